package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/metrics"
	"github.com/rfbooking/rfbooking/internal/repository"
)

// JobFunc is one scheduled unit of work. Errors are recorded on the job
// row, never propagated.
type JobFunc func(ctx context.Context) error

type seedJob struct {
	name        string
	description string
	schedule    string
}

var seedJobs = map[string]seedJob{
	domain.JobDailyNotifications: {
		name:        "Daily notifications",
		description: "Queues reminders and drains the pending notification queue",
		schedule:    "0 8 * * *",
	},
	domain.JobDailyCleanup: {
		name:        "Daily cleanup",
		description: "Deletes expired credentials and old log rows",
		schedule:    "0 8 * * *",
	},
	domain.JobWeeklyManagerReports: {
		name:        "Weekly manager reports",
		description: "Emails managers next week's bookings for their equipment",
		schedule:    "0 9 * * FRI",
	},
}

// Runner wires persisted cron_jobs rows to robfig/cron triggers. The rows
// own the schedule and enabled flag; the library owns the wall clock.
type Runner struct {
	repo   repository.CronJobRepository
	cron   *cron.Cron
	jobs   map[string]JobFunc
	logger *slog.Logger

	baseCtx context.Context
}

func NewRunner(repo repository.CronJobRepository, logger *slog.Logger) *Runner {
	return &Runner{
		repo:   repo,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		jobs:   map[string]JobFunc{},
		logger: logger.With("component", "cron"),
	}
}

// Register binds a job key to its work function. Must happen before Start.
func (r *Runner) Register(key string, fn JobFunc) {
	r.jobs[key] = fn
}

// Start seeds missing job rows, schedules every registered job, and runs
// the cron loop until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.baseCtx = ctx

	for key, fn := range r.jobs {
		seed, ok := seedJobs[key]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnknownJobKey, key)
		}
		if err := r.repo.Seed(ctx, &domain.CronJob{
			JobKey:       key,
			JobName:      seed.name,
			Description:  seed.description,
			CronSchedule: seed.schedule,
			IsEnabled:    true,
		}); err != nil {
			return err
		}

		job, err := r.repo.GetByKey(ctx, key)
		if err != nil {
			return err
		}

		key, fn := key, fn
		if _, err := r.cron.AddFunc(job.CronSchedule, func() { r.fire(key, fn) }); err != nil {
			return fmt.Errorf("schedule job %s: %w", key, err)
		}
		r.logger.Info("cron job scheduled", "job", key, "schedule", job.CronSchedule)
	}

	r.cron.Start()
	<-ctx.Done()

	stopped := r.cron.Stop()
	<-stopped.Done()
	r.logger.Info("cron runner shut down")
	return nil
}

// RunJob fires the job immediately, bypassing the schedule. The enabled
// flag is the caller's concern; the admin usecase checks it first.
func (r *Runner) RunJob(ctx context.Context, key string) error {
	fn, ok := r.jobs[key]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownJobKey, key)
	}
	return r.run(ctx, key, fn)
}

// fire is the scheduled entry point. It re-reads the row so a job disabled
// after scheduling is skipped at trigger time.
func (r *Runner) fire(key string, fn JobFunc) {
	ctx := r.baseCtx
	if ctx == nil || ctx.Err() != nil {
		return
	}

	job, err := r.repo.GetByKey(ctx, key)
	if err != nil {
		r.logger.Error("load cron job", "job", key, "error", err)
		return
	}
	if !job.IsEnabled {
		r.logger.Debug("cron job disabled, skipping", "job", key)
		return
	}

	if err := r.run(ctx, key, fn); err != nil {
		r.logger.Error("cron job failed", "job", key, "error", err)
	}
}

func (r *Runner) run(ctx context.Context, key string, fn JobFunc) error {
	start := time.Now()
	r.logger.Info("cron job started", "job", key)

	runErr := fn(ctx)
	duration := time.Since(start)

	status := "success"
	if runErr != nil {
		status = "error"
	}
	metrics.CronRunsTotal.WithLabelValues(key, status).Inc()
	metrics.CronRunDuration.WithLabelValues(key).Observe(duration.Seconds())

	if err := r.repo.RecordRun(ctx, key, status, duration, start); err != nil {
		r.logger.Error("record cron run", "job", key, "error", err)
	}

	r.logger.Info("cron job finished", "job", key, "status", status, "duration", duration)
	return runErr
}
