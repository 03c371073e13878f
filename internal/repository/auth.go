package repository

import (
	"context"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
)

type AuthRepository interface {
	CreateMagicLink(ctx context.Context, link *domain.MagicLink) (*domain.MagicLink, error)
	FindMagicLink(ctx context.Context, token string) (*domain.MagicLink, error)
	// MarkMagicLinkUsed records the consumption and remembers the issued
	// auth token so the link can re-serve it inside the reuse window.
	MarkMagicLinkUsed(ctx context.Context, id int64, usedAt time.Time, authTokenID int64) error

	CreateAuthToken(ctx context.Context, token *domain.AuthToken) (*domain.AuthToken, error)
	FindAuthToken(ctx context.Context, token string) (*domain.AuthToken, error)
	FindAuthTokenByID(ctx context.Context, id int64) (*domain.AuthToken, error)
	TouchAuthToken(ctx context.Context, id int64, at time.Time) error
	RevokeAuthToken(ctx context.Context, token string) error
	RevokeUserTokens(ctx context.Context, userID int64) error
	// EnforceTokenLimit revokes the oldest live tokens of the user so that
	// at most keep remain.
	EnforceTokenLimit(ctx context.Context, userID int64, keep int) error

	DeleteExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteExpiredMagicLinks(ctx context.Context, cutoff time.Time) (int64, error)
}
