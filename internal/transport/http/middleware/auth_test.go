package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/transport/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuth resolves one known token to one user.
type fakeAuth struct {
	token string
	user  *domain.User
}

func (a *fakeAuth) Authenticate(_ context.Context, rawToken string) (*domain.User, error) {
	if rawToken == a.token {
		return a.user, nil
	}
	return nil, domain.ErrTokenInvalid
}

// newEngine protects GET /protected with Auth and echoes the resolved
// user's ID so tests can assert the context was populated.
func newEngine(auth *fakeAuth, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{middleware.Auth(auth)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		c.String(http.StatusOK, "%d", middleware.CurrentUser(c).ID)
	})
	r.GET("/protected", chain...)
	return r
}

func TestAuth_MissingToken_Returns401(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	newEngine(&fakeAuth{}).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_InvalidToken_Returns401(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	newEngine(&fakeAuth{token: "good"}).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_BearerToken_SetsUser(t *testing.T) {
	auth := &fakeAuth{token: "good", user: &domain.User{ID: 7, RoleID: domain.RoleUser}}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	newEngine(auth).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "7" {
		t.Errorf("body = %q, want the user id", w.Body.String())
	}
}

func TestAuth_CookieToken_SetsUser(t *testing.T) {
	auth := &fakeAuth{token: "good", user: &domain.User{ID: 7, RoleID: domain.RoleUser}}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: "good"})
	newEngine(auth).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAuth_HeaderWinsOverCookie(t *testing.T) {
	auth := &fakeAuth{token: "header-token", user: &domain.User{ID: 7, RoleID: domain.RoleUser}}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: "cookie-token"})
	newEngine(auth).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 via the header token", w.Code)
	}
}

func TestRequireManager(t *testing.T) {
	tests := []struct {
		name string
		role domain.RoleID
		want int
	}{
		{"regular user", domain.RoleUser, http.StatusForbidden},
		{"manager", domain.RoleManager, http.StatusOK},
		{"admin", domain.RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{token: "good", user: &domain.User{ID: 7, RoleID: tt.role}}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer good")
			newEngine(auth, middleware.RequireManager()).ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		role domain.RoleID
		want int
	}{
		{"regular user", domain.RoleUser, http.StatusForbidden},
		{"manager", domain.RoleManager, http.StatusForbidden},
		{"admin", domain.RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{token: "good", user: &domain.User{ID: 7, RoleID: tt.role}}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer good")
			newEngine(auth, middleware.RequireAdmin()).ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
