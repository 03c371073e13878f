package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rfbooking/rfbooking/internal/domain"
)

const notificationColumns = `id, notification_type, recipient_user_id, reference_id, reference_type,
	scheduled_for, sent_at, status, error_message, send_attempts, created_at`

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Enqueue(ctx context.Context, n *domain.NotificationLog) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO notification_log (notification_type, recipient_user_id, reference_id, reference_type, scheduled_for)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (notification_type, recipient_user_id, reference_id, reference_type) DO NOTHING`,
		n.Type, n.RecipientUserID, n.ReferenceID, n.ReferenceType, n.ScheduledFor,
	)
	if err != nil {
		return false, fmt.Errorf("enqueue notification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *NotificationRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.NotificationLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+notificationColumns+`
		 FROM notification_log
		 WHERE status = 'pending' AND scheduled_for <= $1
		 ORDER BY scheduled_for, id
		 LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	defer rows.Close()

	var items []*domain.NotificationLog
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_log
		SET status = 'sent', sent_at = $2, send_attempts = send_attempts + 1
		WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_log
		SET status = 'failed', error_message = $2, send_attempts = send_attempts + 1
		WHERE id = $1`, id, errMsg)
	if err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

func (r *NotificationRepository) MarkSkipped(ctx context.Context, id int64, reason string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_log
		SET status = 'skipped', error_message = $2
		WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("mark notification skipped: %w", err)
	}
	return nil
}

func (r *NotificationRepository) Defer(ctx context.Context, id int64, until time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_log SET scheduled_for = $2 WHERE id = $1 AND status = 'pending'`,
		id, until)
	if err != nil {
		return fmt.Errorf("defer notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) DeleteTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notification_log
		 WHERE status IN ('sent', 'failed', 'skipped') AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete terminal notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row rowScanner) (*domain.NotificationLog, error) {
	var n domain.NotificationLog
	err := row.Scan(&n.ID, &n.Type, &n.RecipientUserID, &n.ReferenceID, &n.ReferenceType,
		&n.ScheduledFor, &n.SentAt, &n.Status, &n.ErrorMessage, &n.SendAttempts, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	return &n, nil
}
