package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/transport/http/handler"
	"github.com/rfbooking/rfbooking/internal/transport/http/middleware"
	"github.com/rfbooking/rfbooking/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuthUsecase implements the unexported authUsecaser interface via method matching.
type fakeAuthUsecase struct {
	requestMagicLink func(ctx context.Context, email, name, ip string) (*usecase.MagicLinkResult, error)
	verifyMagicLink  func(ctx context.Context, rawToken, ip, userAgent string) (*domain.User, *domain.AuthToken, error)
	logout           func(ctx context.Context, rawToken string) error
}

func (f *fakeAuthUsecase) RequestMagicLink(ctx context.Context, email, name, ip string) (*usecase.MagicLinkResult, error) {
	if f.requestMagicLink == nil {
		return &usecase.MagicLinkResult{}, nil
	}
	return f.requestMagicLink(ctx, email, name, ip)
}

func (f *fakeAuthUsecase) VerifyMagicLink(ctx context.Context, rawToken, ip, userAgent string) (*domain.User, *domain.AuthToken, error) {
	if f.verifyMagicLink == nil {
		return nil, nil, domain.ErrMagicLinkInvalid
	}
	return f.verifyMagicLink(ctx, rawToken, ip, userAgent)
}

func (f *fakeAuthUsecase) Logout(ctx context.Context, rawToken string) error {
	if f.logout == nil {
		return nil
	}
	return f.logout(ctx, rawToken)
}

func newAuthEngine(uc *fakeAuthUsecase) *gin.Engine {
	h := handler.NewAuthHandler(uc, 30*24*time.Hour, false, slog.New(slog.DiscardHandler))

	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.GET("/api/auth/verify", h.Verify)
	r.POST("/api/auth/logout", h.Logout)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_InvalidJSON_Returns400(t *testing.T) {
	w := postJSON(newAuthEngine(&fakeAuthUsecase{}), "/api/auth/register", `{bad json}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRegister_InvalidEmail_Returns400(t *testing.T) {
	w := postJSON(newAuthEngine(&fakeAuthUsecase{}), "/api/auth/register", `{"email":"not-an-email"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRegister_Success_Returns200(t *testing.T) {
	var gotEmail string
	uc := &fakeAuthUsecase{
		requestMagicLink: func(_ context.Context, email, _, _ string) (*usecase.MagicLinkResult, error) {
			gotEmail = email
			return &usecase.MagicLinkResult{}, nil
		},
	}
	w := postJSON(newAuthEngine(uc), "/api/auth/register", `{"email":"alice@example.com","name":"Alice"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotEmail != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", gotEmail)
	}
	if strings.Contains(w.Body.String(), "dev_link") {
		t.Error("dev_link must not appear when delivery succeeded")
	}
}

func TestRegister_SendFailure_ExposesDevLink(t *testing.T) {
	uc := &fakeAuthUsecase{
		requestMagicLink: func(_ context.Context, _, _, _ string) (*usecase.MagicLinkResult, error) {
			return &usecase.MagicLinkResult{DevLink: "http://localhost:8080/api/auth/verify?token=raw"}, nil
		},
	}
	w := postJSON(newAuthEngine(uc), "/api/auth/register", `{"email":"alice@example.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["dev_mode"] != true || resp["dev_link"] == "" {
		t.Errorf("resp = %v, want dev_mode with link", resp)
	}
}

func TestRegister_DeactivatedUser_Returns403(t *testing.T) {
	uc := &fakeAuthUsecase{
		requestMagicLink: func(_ context.Context, _, _, _ string) (*usecase.MagicLinkResult, error) {
			return nil, domain.ErrUserDeactivated
		},
	}
	w := postJSON(newAuthEngine(uc), "/api/auth/register", `{"email":"alice@example.com"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestVerify_MissingToken_Returns401(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
	newAuthEngine(&fakeAuthUsecase{}).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestVerify_InvalidToken_Returns401(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify?token=stale", nil)
	newAuthEngine(&fakeAuthUsecase{}).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestVerify_Success_SetsSessionAndCSRFCookies(t *testing.T) {
	uc := &fakeAuthUsecase{
		verifyMagicLink: func(_ context.Context, rawToken, _, _ string) (*domain.User, *domain.AuthToken, error) {
			if rawToken != "fresh" {
				t.Errorf("rawToken = %q, want fresh", rawToken)
			}
			user := &domain.User{ID: 7, Email: "alice@example.com", RoleID: domain.RoleUser, IsActive: true}
			token := &domain.AuthToken{ID: 3, Token: "session-token", ExpiresAt: time.Now().Add(24 * time.Hour)}
			return user, token, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify?token=fresh", nil)
	newAuthEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	cookies := map[string]*http.Cookie{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c
	}
	session, ok := cookies[middleware.AuthCookie]
	if !ok || session.Value != "session-token" {
		t.Errorf("session cookie = %+v, want the raw token", session)
	}
	if ok && !session.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	csrf, ok := cookies[middleware.CSRFCookie]
	if !ok || csrf.Value == "" {
		t.Error("csrf cookie missing")
	}
	if ok && csrf.HttpOnly {
		t.Error("csrf cookie must be readable by page scripts")
	}

	if !strings.Contains(w.Body.String(), `"session-token"`) {
		t.Errorf("body = %s, want the token echoed for API clients", w.Body.String())
	}
}

func TestLogout_RevokesBearerToken(t *testing.T) {
	var revoked string
	uc := &fakeAuthUsecase{
		logout: func(_ context.Context, rawToken string) error {
			revoked = rawToken
			return nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	newAuthEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if revoked != "session-token" {
		t.Errorf("revoked = %q, want session-token", revoked)
	}
}
