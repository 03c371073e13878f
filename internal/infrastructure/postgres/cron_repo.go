package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rfbooking/rfbooking/internal/domain"
)

const cronJobColumns = `id, job_key, job_name, description, cron_schedule, is_enabled,
	last_run_at, last_run_status, last_run_duration_ms, total_runs, total_errors,
	created_at, updated_at`

type CronJobRepository struct {
	pool *pgxpool.Pool
}

func NewCronJobRepository(pool *pgxpool.Pool) *CronJobRepository {
	return &CronJobRepository{pool: pool}
}

func (r *CronJobRepository) List(ctx context.Context) ([]*domain.CronJob, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cronJobColumns+` FROM cron_jobs ORDER BY job_key`)
	if err != nil {
		return nil, fmt.Errorf("list cron jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.CronJob
	for rows.Next() {
		job, err := scanCronJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *CronJobRepository) GetByID(ctx context.Context, id int64) (*domain.CronJob, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+cronJobColumns+` FROM cron_jobs WHERE id = $1`, id)
	return scanCronJob(row)
}

func (r *CronJobRepository) GetByKey(ctx context.Context, key string) (*domain.CronJob, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+cronJobColumns+` FROM cron_jobs WHERE job_key = $1`, key)
	return scanCronJob(row)
}

func (r *CronJobRepository) Seed(ctx context.Context, job *domain.CronJob) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cron_jobs (job_key, job_name, description, cron_schedule, is_enabled)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (job_key) DO NOTHING`,
		job.JobKey, job.JobName, job.Description, job.CronSchedule, job.IsEnabled,
	)
	if err != nil {
		return fmt.Errorf("seed cron job %s: %w", job.JobKey, err)
	}
	return nil
}

func (r *CronJobRepository) UpdateSettings(ctx context.Context, id int64, schedule *string, enabled *bool) error {
	var (
		set  []string
		args = []any{id}
	)
	if schedule != nil {
		args = append(args, *schedule)
		set = append(set, fmt.Sprintf("cron_schedule = $%d", len(args)))
	}
	if enabled != nil {
		args = append(args, *enabled)
		set = append(set, fmt.Sprintf("is_enabled = $%d", len(args)))
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = NOW()")

	tag, err := r.pool.Exec(ctx,
		`UPDATE cron_jobs SET `+strings.Join(set, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("update cron job settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCronJobNotFound
	}
	return nil
}

func (r *CronJobRepository) RecordRun(ctx context.Context, key, status string, duration time.Duration, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE cron_jobs
		SET last_run_at = $2,
		    last_run_status = $3,
		    last_run_duration_ms = $4,
		    total_runs = total_runs + 1,
		    total_errors = total_errors + CASE WHEN $3 = 'error' THEN 1 ELSE 0 END,
		    updated_at = NOW()
		WHERE job_key = $1`,
		key, at, status, duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record cron run %s: %w", key, err)
	}
	return nil
}

func scanCronJob(row rowScanner) (*domain.CronJob, error) {
	var j domain.CronJob
	err := row.Scan(&j.ID, &j.JobKey, &j.JobName, &j.Description, &j.CronSchedule, &j.IsEnabled,
		&j.LastRunAt, &j.LastRunStatus, &j.LastRunDurationMS, &j.TotalRuns, &j.TotalErrors,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCronJobNotFound
		}
		return nil, fmt.Errorf("scan cron job: %w", err)
	}
	return &j, nil
}
