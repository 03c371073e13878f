package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/email"
	"github.com/rfbooking/rfbooking/internal/repository"
)

type AuthConfig struct {
	BaseURL          string
	AdminEmail       string
	MagicLinkTTL     time.Duration
	AuthTokenTTL     time.Duration
	MaxTokensPerUser int
}

type AuthUsecase struct {
	users  repository.UserRepository
	auth   repository.AuthRepository
	types  repository.EquipmentTypeRepository
	email  email.Sender
	cfg    AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthUsecase(
	users repository.UserRepository,
	auth repository.AuthRepository,
	types repository.EquipmentTypeRepository,
	emailSender email.Sender,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:  users,
		auth:   auth,
		types:  types,
		email:  emailSender,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// MagicLinkResult reports where the sign-in link went. DevLink is set only
// when email delivery failed and the caller should surface the link directly.
type MagicLinkResult struct {
	DevLink string
}

// RequestMagicLink generates a single-use sign-in token, stores its hash,
// and emails the verify link. Unknown emails are accepted without creating
// a user; the account is created on first verification.
func (u *AuthUsecase) RequestMagicLink(ctx context.Context, emailAddr, name, ip string) (*MagicLinkResult, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	if user, err := u.users.FindByEmail(ctx, emailAddr); err == nil && !user.IsActive {
		return nil, domain.ErrUserDeactivated
	}

	rawToken, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	link := &domain.MagicLink{
		Email:     emailAddr,
		Token:     hashToken(rawToken),
		ExpiresAt: u.now().Add(u.cfg.MagicLinkTTL),
	}
	if name = strings.TrimSpace(name); name != "" {
		link.Name = &name
	}
	if ip != "" {
		link.IPAddress = &ip
	}
	if _, err := u.auth.CreateMagicLink(ctx, link); err != nil {
		return nil, fmt.Errorf("store magic link: %w", err)
	}

	verifyURL := u.cfg.BaseURL + "/api/auth/verify?token=" + url.QueryEscape(rawToken)
	subject, body := email.MagicLinkMessage(verifyURL, u.cfg.MagicLinkTTL)
	if err := u.email.Send(ctx, emailAddr, subject, body); err != nil {
		u.logger.Warn("magic link email failed, returning dev link", "email", emailAddr, "error", err)
		return &MagicLinkResult{DevLink: verifyURL}, nil
	}
	return &MagicLinkResult{}, nil
}

// VerifyMagicLink consumes the token and issues a session. A link that was
// already used still returns the session it created while the reuse window
// is open, so mail-client prefetches do not burn the real click.
func (u *AuthUsecase) VerifyMagicLink(ctx context.Context, rawToken, ip, userAgent string) (*domain.User, *domain.AuthToken, error) {
	now := u.now()

	link, err := u.auth.FindMagicLink(ctx, hashToken(rawToken))
	if err != nil {
		return nil, nil, domain.ErrMagicLinkInvalid
	}

	if link.Used {
		return u.reuseSession(ctx, link, now)
	}
	if now.After(link.ExpiresAt) {
		return nil, nil, domain.ErrMagicLinkInvalid
	}

	user, err := u.findOrCreateUser(ctx, link)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, domain.ErrUserDeactivated
	}

	rawSession, err := generateToken()
	if err != nil {
		return nil, nil, fmt.Errorf("generate session token: %w", err)
	}
	token := &domain.AuthToken{
		UserID:    user.ID,
		Token:     rawSession,
		ExpiresAt: now.Add(u.cfg.AuthTokenTTL),
	}
	if ip != "" {
		token.IPAddress = &ip
	}
	if userAgent != "" {
		token.UserAgent = &userAgent
	}
	token, err = u.auth.CreateAuthToken(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("store auth token: %w", err)
	}

	if err := u.auth.MarkMagicLinkUsed(ctx, link.ID, now, token.ID); err != nil {
		return nil, nil, fmt.Errorf("mark magic link used: %w", err)
	}
	if err := u.auth.EnforceTokenLimit(ctx, user.ID, u.cfg.MaxTokensPerUser); err != nil {
		return nil, nil, fmt.Errorf("enforce token limit: %w", err)
	}
	if err := u.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		u.logger.Warn("touch last login failed", "user_id", user.ID, "error", err)
	}

	return user, token, nil
}

// Authenticate resolves a presented session token to its active user.
func (u *AuthUsecase) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	now := u.now()

	token, err := u.auth.FindAuthToken(ctx, rawToken)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	if !token.IsValid(now) {
		return nil, domain.ErrTokenInvalid
	}

	user, err := u.users.FindByID(ctx, token.UserID)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	if !user.IsActive {
		return nil, domain.ErrUserDeactivated
	}

	if err := u.auth.TouchAuthToken(ctx, token.ID, now); err != nil {
		u.logger.Warn("touch auth token failed", "token_id", token.ID, "error", err)
	}
	return user, nil
}

func (u *AuthUsecase) Logout(ctx context.Context, rawToken string) error {
	if err := u.auth.RevokeAuthToken(ctx, rawToken); err != nil {
		return fmt.Errorf("revoke auth token: %w", err)
	}
	return nil
}

func (u *AuthUsecase) reuseSession(ctx context.Context, link *domain.MagicLink, now time.Time) (*domain.User, *domain.AuthToken, error) {
	if link.UsedAt == nil || link.LastAuthTokenID == nil {
		return nil, nil, domain.ErrMagicLinkInvalid
	}
	if now.After(link.UsedAt.Add(domain.MagicLinkReuseWindow)) {
		return nil, nil, domain.ErrMagicLinkInvalid
	}

	token, err := u.auth.FindAuthTokenByID(ctx, *link.LastAuthTokenID)
	if err != nil || !token.IsValid(now) {
		return nil, nil, domain.ErrMagicLinkInvalid
	}
	user, err := u.users.FindByID(ctx, token.UserID)
	if err != nil || !user.IsActive {
		return nil, nil, domain.ErrMagicLinkInvalid
	}
	return user, token, nil
}

func (u *AuthUsecase) findOrCreateUser(ctx context.Context, link *domain.MagicLink) (*domain.User, error) {
	user, err := u.users.FindByEmail(ctx, link.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	name := link.Email
	if link.Name != nil && *link.Name != "" {
		name = *link.Name
	}
	role := domain.RoleUser
	if strings.EqualFold(link.Email, u.cfg.AdminEmail) {
		role = domain.RoleAdmin
	}

	user, err = u.users.Create(ctx, &domain.User{
		Email:              link.Email,
		Name:               name,
		RoleID:             role,
		IsActive:           true,
		EmailNotifications: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := u.types.GrantAllActive(ctx, user.ID); err != nil {
		u.logger.Warn("grant default type access failed", "user_id", user.ID, "error", err)
	}

	u.logger.Info("user created on first login", "user_id", user.ID, "email", user.Email, "role", user.RoleID.String())
	return user, nil
}

func generateToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func hashToken(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}
