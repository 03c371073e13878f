package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rfbooking/rfbooking/internal/domain"
)

const (
	errUnauthorized = "Unauthorized"
	errForbidden    = "Forbidden"

	// AuthCookie carries the session token for browser clients; API
	// clients use the Authorization header instead.
	AuthCookie = "auth_token"

	userKey      = "user"
	viaCookieKey = "authViaCookie"
)

// authenticator is the subset of AuthUsecase the middleware needs.
type authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*domain.User, error)
}

// Auth resolves the session token (Bearer header first, cookie second) to
// an active user and stores it in the gin context.
func Auth(auth authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, viaCookie := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Set(userKey, user)
		c.Set(viaCookieKey, viaCookie)
		c.Next()
	}
}

// RequireManager allows only managers and admins past this point.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := CurrentUser(c); user == nil || !user.IsManager() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errForbidden})
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only admins past this point.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := CurrentUser(c); user == nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errForbidden})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by Auth, or nil.
func CurrentUser(c *gin.Context) *domain.User {
	user, _ := c.Get(userKey)
	u, _ := user.(*domain.User)
	return u
}

// SessionToken returns the raw token the request authenticated with.
func SessionToken(c *gin.Context) string {
	token, _ := extractToken(c)
	return token
}

func extractToken(c *gin.Context) (token string, viaCookie bool) {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer "), false
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}
