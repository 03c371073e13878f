package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/transport/http/middleware"
	"github.com/rfbooking/rfbooking/internal/usecase"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	RequestMagicLink(ctx context.Context, email, name, ip string) (*usecase.MagicLinkResult, error)
	VerifyMagicLink(ctx context.Context, rawToken, ip, userAgent string) (*domain.User, *domain.AuthToken, error)
	Logout(ctx context.Context, rawToken string) error
}

type AuthHandler struct {
	uc           authUsecaser
	cookieMaxAge int
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(uc authUsecaser, tokenTTL time.Duration, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:           uc,
		cookieMaxAge: int(tokenTTL.Seconds()),
		secureCookie: secureCookie,
		logger:       logger.With("component", "auth_handler"),
	}
}

type registerRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"  binding:"omitempty,max=256"`
}

// POST /api/auth/register
// Always returns 200 for valid input so the response does not reveal
// whether the email is registered. dev_link is populated only when email
// delivery failed.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.uc.RequestMagicLink(c.Request.Context(), req.Email, req.Name, c.ClientIP())
	if err != nil {
		if errors.Is(err, domain.ErrUserDeactivated) {
			c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrUserDeactivated.Error()})
			return
		}
		h.logger.Error("request magic link", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := gin.H{"message": "Check your email for a sign-in link"}
	if result.DevLink != "" {
		resp["dev_mode"] = true
		resp["dev_link"] = result.DevLink
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/auth/verify?token=<raw>
// On success the session token is returned in the body and as cookies for
// browser clients; a fresh CSRF token accompanies it.
func (h *AuthHandler) Verify(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrMagicLinkInvalid.Error()})
		return
	}

	user, token, err := h.uc.VerifyMagicLink(c.Request.Context(), rawToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMagicLinkInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrMagicLinkInvalid.Error()})
		case errors.Is(err, domain.ErrUserDeactivated):
			c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrUserDeactivated.Error()})
		default:
			h.logger.Error("verify magic link", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	csrf := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, token.Token, h.cookieMaxAge, "/", "", h.secureCookie, true)
	c.SetCookie(middleware.CSRFCookie, csrf, h.cookieMaxAge, "/", "", h.secureCookie, false)

	c.JSON(http.StatusOK, gin.H{
		"token":      token.Token,
		"expires_at": token.ExpiresAt,
		"user":       toUserResponse(user),
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(middleware.CurrentUser(c)))
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.SessionToken(c); token != "" {
		if err := h.uc.Logout(c.Request.Context(), token); err != nil {
			h.logger.Error("logout", "error", err)
		}
	}

	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", h.secureCookie, true)
	c.SetCookie(middleware.CSRFCookie, "", -1, "/", "", h.secureCookie, false)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

type userResponse struct {
	ID                 int64      `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	Role               string     `json:"role"`
	IsActive           bool       `json:"is_active"`
	EmailNotifications bool       `json:"email_notifications"`
	CreatedAt          time.Time  `json:"created_at"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Role:               u.RoleID.String(),
		IsActive:           u.IsActive,
		EmailNotifications: u.EmailNotifications,
		CreatedAt:          u.CreatedAt,
		LastLoginAt:        u.LastLoginAt,
	}
}
