package repository

import (
	"context"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
)

type NotificationRepository interface {
	// Enqueue inserts the row unless the (type, recipient, reference) tuple
	// already exists. Returns false when the insert was a duplicate no-op.
	Enqueue(ctx context.Context, n *domain.NotificationLog) (bool, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.NotificationLog, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	MarkSkipped(ctx context.Context, id int64, reason string) error
	// Defer pushes a pending row's scheduled_for to a later instant.
	Defer(ctx context.Context, id int64, until time.Time) error
	// DeleteTerminal removes sent/failed/skipped rows created before cutoff.
	DeleteTerminal(ctx context.Context, cutoff time.Time) (int64, error)
}
