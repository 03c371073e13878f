package repository

import (
	"context"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
)

type CronJobRepository interface {
	List(ctx context.Context) ([]*domain.CronJob, error)
	GetByID(ctx context.Context, id int64) (*domain.CronJob, error)
	GetByKey(ctx context.Context, key string) (*domain.CronJob, error)
	// Seed inserts the job row if its key is not present yet.
	Seed(ctx context.Context, job *domain.CronJob) error
	UpdateSettings(ctx context.Context, id int64, schedule *string, enabled *bool) error
	// RecordRun updates last-run bookkeeping and bumps the run/error counters.
	RecordRun(ctx context.Context, key, status string, duration time.Duration, at time.Time) error
}
