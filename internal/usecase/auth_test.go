package usecase_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/usecase"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newAuthUsecase(users *fakeUserRepo, auth *fakeAuthRepo, types *fakeTypeRepo, sender *fakeEmailSender) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(users, auth, types, sender, usecase.AuthConfig{
		BaseURL:          "http://localhost:8080",
		AdminEmail:       "admin@example.com",
		MagicLinkTTL:     15 * time.Minute,
		AuthTokenTTL:     30 * 24 * time.Hour,
		MaxTokensPerUser: 10,
	}, discardLogger())
}

func sha(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

func TestRequestMagicLinkStoresHashOfEmailedToken(t *testing.T) {
	var storedToken, emailedBody string

	auth := &fakeAuthRepo{
		createMagicLink: func(_ context.Context, link *domain.MagicLink) (*domain.MagicLink, error) {
			storedToken = link.Token
			link.ID = 1
			return link, nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, body string) error {
			emailedBody = body
			return nil
		},
	}

	uc := newAuthUsecase(&fakeUserRepo{}, auth, &fakeTypeRepo{}, sender)
	result, err := uc.RequestMagicLink(context.Background(), "Alice@Example.com", "Alice", "1.2.3.4")
	if err != nil {
		t.Fatalf("RequestMagicLink: %v", err)
	}
	if result.DevLink != "" {
		t.Errorf("DevLink should be empty when email delivery succeeded, got %q", result.DevLink)
	}

	// The emailed link carries the raw token; the store only sees its hash.
	idx := strings.Index(emailedBody, "token=")
	if idx < 0 {
		t.Fatalf("email body has no token parameter: %q", emailedBody)
	}
	raw := emailedBody[idx+len("token="):]
	if end := strings.IndexAny(raw, "\"'& <"); end >= 0 {
		raw = raw[:end]
	}
	if storedToken == raw {
		t.Error("stored token must not equal the raw emailed token")
	}
	if storedToken != sha(raw) {
		t.Errorf("stored token = %q, want sha256 of emailed token %q", storedToken, sha(raw))
	}
}

func TestRequestMagicLinkDeactivatedUser(t *testing.T) {
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: 1, IsActive: false}, nil
		},
	}

	uc := newAuthUsecase(users, &fakeAuthRepo{}, &fakeTypeRepo{}, &fakeEmailSender{})
	_, err := uc.RequestMagicLink(context.Background(), "gone@example.com", "", "")
	if !errors.Is(err, domain.ErrUserDeactivated) {
		t.Errorf("err = %v, want ErrUserDeactivated", err)
	}
}

func TestRequestMagicLinkReturnsDevLinkOnSendFailure(t *testing.T) {
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error {
			return errors.New("smtp down")
		},
	}

	uc := newAuthUsecase(&fakeUserRepo{}, &fakeAuthRepo{}, &fakeTypeRepo{}, sender)
	result, err := uc.RequestMagicLink(context.Background(), "alice@example.com", "", "")
	if err != nil {
		t.Fatalf("RequestMagicLink: %v", err)
	}
	if !strings.Contains(result.DevLink, "/api/auth/verify?token=") {
		t.Errorf("DevLink = %q, want a verify URL", result.DevLink)
	}
}

func TestVerifyMagicLinkCreatesUserOnFirstLogin(t *testing.T) {
	raw := "raw-magic-token"
	name := "Alice"
	link := &domain.MagicLink{
		ID:        7,
		Email:     "alice@example.com",
		Name:      &name,
		Token:     sha(raw),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}

	var createdUser *domain.User
	var granted, marked bool

	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
		create: func(_ context.Context, u *domain.User) (*domain.User, error) {
			u.ID = 42
			createdUser = u
			return u, nil
		},
	}
	auth := &fakeAuthRepo{
		findMagicLink: func(_ context.Context, token string) (*domain.MagicLink, error) {
			if token != sha(raw) {
				return nil, domain.ErrMagicLinkInvalid
			}
			return link, nil
		},
		markMagicLinkUsed: func(_ context.Context, id int64, _ time.Time, tokenID int64) error {
			if id != link.ID {
				t.Errorf("marked link %d, want %d", id, link.ID)
			}
			if tokenID == 0 {
				t.Error("marked link without the issued token id")
			}
			marked = true
			return nil
		},
	}
	types := &fakeTypeRepo{
		grantAllActive: func(_ context.Context, userID int64) error {
			if userID != 42 {
				t.Errorf("granted access to user %d, want 42", userID)
			}
			granted = true
			return nil
		},
	}

	uc := newAuthUsecase(users, auth, types, &fakeEmailSender{})
	user, token, err := uc.VerifyMagicLink(context.Background(), raw, "1.2.3.4", "curl")
	if err != nil {
		t.Fatalf("VerifyMagicLink: %v", err)
	}

	if user.ID != 42 || user.Name != "Alice" {
		t.Errorf("user = %+v, want id 42 name Alice", user)
	}
	if createdUser.RoleID != domain.RoleUser {
		t.Errorf("role = %v, want regular user", createdUser.RoleID)
	}
	if token.Token == "" || token.Token == raw {
		t.Errorf("session token %q must be a fresh credential", token.Token)
	}
	if !granted {
		t.Error("new user was not granted default type access")
	}
	if !marked {
		t.Error("magic link was not marked used")
	}
}

func TestVerifyMagicLinkAdminEmailGetsAdminRole(t *testing.T) {
	raw := "admin-token"
	link := &domain.MagicLink{
		ID:        1,
		Email:     "admin@example.com",
		Token:     sha(raw),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}

	var created *domain.User
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
		create: func(_ context.Context, u *domain.User) (*domain.User, error) {
			u.ID = 1
			created = u
			return u, nil
		},
	}
	auth := &fakeAuthRepo{
		findMagicLink: func(_ context.Context, _ string) (*domain.MagicLink, error) { return link, nil },
	}

	uc := newAuthUsecase(users, auth, &fakeTypeRepo{}, &fakeEmailSender{})
	if _, _, err := uc.VerifyMagicLink(context.Background(), raw, "", ""); err != nil {
		t.Fatalf("VerifyMagicLink: %v", err)
	}
	if created.RoleID != domain.RoleAdmin {
		t.Errorf("role = %v, want admin", created.RoleID)
	}
}

func TestVerifyMagicLinkExpired(t *testing.T) {
	raw := "expired"
	auth := &fakeAuthRepo{
		findMagicLink: func(_ context.Context, _ string) (*domain.MagicLink, error) {
			return &domain.MagicLink{Email: "a@b.c", ExpiresAt: time.Now().Add(-time.Minute)}, nil
		},
	}

	uc := newAuthUsecase(&fakeUserRepo{}, auth, &fakeTypeRepo{}, &fakeEmailSender{})
	_, _, err := uc.VerifyMagicLink(context.Background(), raw, "", "")
	if !errors.Is(err, domain.ErrMagicLinkInvalid) {
		t.Errorf("err = %v, want ErrMagicLinkInvalid", err)
	}
}

func TestVerifyMagicLinkReuseWindow(t *testing.T) {
	usedAt := time.Now().Add(-time.Minute)
	tokenID := int64(9)
	link := &domain.MagicLink{
		ID: 1, Email: "alice@example.com",
		Used: true, UsedAt: &usedAt, LastAuthTokenID: &tokenID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	session := &domain.AuthToken{ID: tokenID, UserID: 42, Token: "session", ExpiresAt: time.Now().Add(time.Hour)}

	auth := &fakeAuthRepo{
		findMagicLink: func(_ context.Context, _ string) (*domain.MagicLink, error) { return link, nil },
		findAuthTokenByID: func(_ context.Context, id int64) (*domain.AuthToken, error) {
			if id != tokenID {
				return nil, domain.ErrTokenInvalid
			}
			return session, nil
		},
	}
	users := &fakeUserRepo{
		findByID: func(_ context.Context, _ int64) (*domain.User, error) {
			return &domain.User{ID: 42, IsActive: true}, nil
		},
	}

	uc := newAuthUsecase(users, auth, &fakeTypeRepo{}, &fakeEmailSender{})
	user, token, err := uc.VerifyMagicLink(context.Background(), "whatever", "", "")
	if err != nil {
		t.Fatalf("VerifyMagicLink inside reuse window: %v", err)
	}
	if user.ID != 42 || token.Token != "session" {
		t.Errorf("reuse returned user %d token %q, want 42 / session", user.ID, token.Token)
	}

	// Outside the window the link is dead.
	staleUsedAt := time.Now().Add(-domain.MagicLinkReuseWindow - time.Second)
	link.UsedAt = &staleUsedAt
	if _, _, err := uc.VerifyMagicLink(context.Background(), "whatever", "", ""); !errors.Is(err, domain.ErrMagicLinkInvalid) {
		t.Errorf("err = %v, want ErrMagicLinkInvalid after reuse window", err)
	}
}

func TestAuthenticate(t *testing.T) {
	valid := &domain.AuthToken{ID: 1, UserID: 42, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	revoked := &domain.AuthToken{ID: 2, UserID: 42, Token: "rev", ExpiresAt: time.Now().Add(time.Hour), IsRevoked: true}

	auth := &fakeAuthRepo{
		findAuthToken: func(_ context.Context, token string) (*domain.AuthToken, error) {
			switch token {
			case "tok":
				return valid, nil
			case "rev":
				return revoked, nil
			}
			return nil, domain.ErrTokenInvalid
		},
	}
	users := &fakeUserRepo{
		findByID: func(_ context.Context, _ int64) (*domain.User, error) {
			return &domain.User{ID: 42, IsActive: true}, nil
		},
	}

	uc := newAuthUsecase(users, auth, &fakeTypeRepo{}, &fakeEmailSender{})

	user, err := uc.Authenticate(context.Background(), "tok")
	if err != nil || user.ID != 42 {
		t.Errorf("Authenticate(valid) = %v, %v", user, err)
	}
	if _, err := uc.Authenticate(context.Background(), "rev"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("revoked token err = %v, want ErrTokenInvalid", err)
	}
	if _, err := uc.Authenticate(context.Background(), "missing"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("unknown token err = %v, want ErrTokenInvalid", err)
	}
}
