package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rfbooking/rfbooking/internal/domain"
)

const (
	magicLinkColumns = `id, email, name, token, expires_at, used, used_at, created_at, ip_address, user_id, last_auth_token_id`
	authTokenColumns = `id, user_id, token, expires_at, created_at, last_used_at, ip_address, user_agent, is_revoked`
)

type AuthRepository struct {
	pool *pgxpool.Pool
}

func NewAuthRepository(pool *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{pool: pool}
}

func (r *AuthRepository) CreateMagicLink(ctx context.Context, link *domain.MagicLink) (*domain.MagicLink, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO magic_links (email, name, token, expires_at, ip_address, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+magicLinkColumns,
		link.Email, link.Name, link.Token, link.ExpiresAt, link.IPAddress, link.UserID,
	)
	return scanMagicLink(row)
}

func (r *AuthRepository) FindMagicLink(ctx context.Context, token string) (*domain.MagicLink, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+magicLinkColumns+` FROM magic_links WHERE token = $1`, token)
	return scanMagicLink(row)
}

func (r *AuthRepository) MarkMagicLinkUsed(ctx context.Context, id int64, usedAt time.Time, authTokenID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE magic_links SET used = TRUE, used_at = $2, last_auth_token_id = $3
		WHERE id = $1`,
		id, usedAt, authTokenID,
	)
	if err != nil {
		return fmt.Errorf("mark magic link used: %w", err)
	}
	return nil
}

func (r *AuthRepository) CreateAuthToken(ctx context.Context, token *domain.AuthToken) (*domain.AuthToken, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO auth_tokens (user_id, token, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+authTokenColumns,
		token.UserID, token.Token, token.ExpiresAt, token.IPAddress, token.UserAgent,
	)
	return scanAuthToken(row)
}

func (r *AuthRepository) FindAuthToken(ctx context.Context, token string) (*domain.AuthToken, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+authTokenColumns+` FROM auth_tokens WHERE token = $1`, token)
	return scanAuthToken(row)
}

func (r *AuthRepository) FindAuthTokenByID(ctx context.Context, id int64) (*domain.AuthToken, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+authTokenColumns+` FROM auth_tokens WHERE id = $1`, id)
	return scanAuthToken(row)
}

func (r *AuthRepository) TouchAuthToken(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE auth_tokens SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch auth token: %w", err)
	}
	return nil
}

func (r *AuthRepository) RevokeAuthToken(ctx context.Context, token string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE auth_tokens SET is_revoked = TRUE WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("revoke auth token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTokenInvalid
	}
	return nil
}

func (r *AuthRepository) RevokeUserTokens(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE auth_tokens SET is_revoked = TRUE WHERE user_id = $1 AND NOT is_revoked`, userID)
	if err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

func (r *AuthRepository) EnforceTokenLimit(ctx context.Context, userID int64, keep int) error {
	// Revoke everything but the newest keep live tokens.
	_, err := r.pool.Exec(ctx, `
		UPDATE auth_tokens SET is_revoked = TRUE
		WHERE id IN (
			SELECT id FROM auth_tokens
			WHERE user_id = $1 AND NOT is_revoked
			ORDER BY created_at DESC
			OFFSET $2
		)`,
		userID, keep,
	)
	if err != nil {
		return fmt.Errorf("enforce token limit: %w", err)
	}
	return nil
}

func (r *AuthRepository) DeleteExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM auth_tokens
		WHERE expires_at < $1 OR (is_revoked AND created_at < $1)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *AuthRepository) DeleteExpiredMagicLinks(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM magic_links WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired magic links: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMagicLink(row rowScanner) (*domain.MagicLink, error) {
	var m domain.MagicLink
	err := row.Scan(&m.ID, &m.Email, &m.Name, &m.Token, &m.ExpiresAt, &m.Used,
		&m.UsedAt, &m.CreatedAt, &m.IPAddress, &m.UserID, &m.LastAuthTokenID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMagicLinkInvalid
		}
		return nil, fmt.Errorf("scan magic link: %w", err)
	}
	return &m, nil
}

func scanAuthToken(row rowScanner) (*domain.AuthToken, error) {
	var t domain.AuthToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt,
		&t.LastUsedAt, &t.IPAddress, &t.UserAgent, &t.IsRevoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("scan auth token: %w", err)
	}
	return &t, nil
}
