package domain

import (
	"errors"
	"time"
)

var (
	ErrTokenInvalid     = errors.New("token is invalid, expired or revoked")
	ErrMagicLinkInvalid = errors.New("magic link is invalid, expired or already used")
)

// MagicLinkReuseWindow is how long a used magic link keeps returning the
// session it created. Mobile mail clients prefetch links before the user
// taps them; without this window the real click would land on a dead link.
const MagicLinkReuseWindow = 2 * time.Minute

// AuthToken is an opaque, revocable session credential. Tokens live in the
// database so admins can revoke them and the per-user cap can be enforced.
type AuthToken struct {
	ID         int64
	UserID     int64
	Token      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastUsedAt *time.Time
	IPAddress  *string
	UserAgent  *string
	IsRevoked  bool
}

func (t *AuthToken) IsValid(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}

type MagicLink struct {
	ID              int64
	Email           string
	Name            *string
	Token           string
	ExpiresAt       time.Time
	Used            bool
	UsedAt          *time.Time
	CreatedAt       time.Time
	IPAddress       *string
	UserID          *int64
	LastAuthTokenID *int64
}

func (m *MagicLink) IsValid(now time.Time) bool {
	return !m.Used && now.Before(m.ExpiresAt)
}
