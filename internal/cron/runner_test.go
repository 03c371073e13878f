package cron_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/rfbooking/rfbooking/internal/cron"
	"github.com/rfbooking/rfbooking/internal/domain"
)

type fakeCronRepo struct {
	getByKey  func(ctx context.Context, key string) (*domain.CronJob, error)
	seed      func(ctx context.Context, job *domain.CronJob) error
	recordRun func(ctx context.Context, key, status string, duration time.Duration, at time.Time) error
}

func (r *fakeCronRepo) List(ctx context.Context) ([]*domain.CronJob, error) { return nil, nil }

func (r *fakeCronRepo) GetByID(ctx context.Context, id int64) (*domain.CronJob, error) {
	return nil, domain.ErrCronJobNotFound
}

func (r *fakeCronRepo) GetByKey(ctx context.Context, key string) (*domain.CronJob, error) {
	if r.getByKey == nil {
		return &domain.CronJob{JobKey: key, IsEnabled: true}, nil
	}
	return r.getByKey(ctx, key)
}

func (r *fakeCronRepo) Seed(ctx context.Context, job *domain.CronJob) error {
	if r.seed == nil {
		return nil
	}
	return r.seed(ctx, job)
}

func (r *fakeCronRepo) UpdateSettings(ctx context.Context, id int64, schedule *string, enabled *bool) error {
	return nil
}

func (r *fakeCronRepo) RecordRun(ctx context.Context, key, status string, duration time.Duration, at time.Time) error {
	if r.recordRun == nil {
		return nil
	}
	return r.recordRun(ctx, key, status, duration, at)
}

func TestRunJobUnknownKey(t *testing.T) {
	r := cron.NewRunner(&fakeCronRepo{}, slog.New(slog.DiscardHandler))
	err := r.RunJob(context.Background(), "no_such_job")
	if !errors.Is(err, domain.ErrUnknownJobKey) {
		t.Errorf("err = %v, want ErrUnknownJobKey", err)
	}
}

func TestRunJobRecordsSuccess(t *testing.T) {
	var gotKey, gotStatus string
	repo := &fakeCronRepo{
		recordRun: func(_ context.Context, key, status string, _ time.Duration, _ time.Time) error {
			gotKey, gotStatus = key, status
			return nil
		},
	}
	r := cron.NewRunner(repo, slog.New(slog.DiscardHandler))

	ran := false
	r.Register(domain.JobDailyCleanup, func(ctx context.Context) error {
		ran = true
		return nil
	})

	if err := r.RunJob(context.Background(), domain.JobDailyCleanup); err != nil {
		t.Fatalf("RunJob: %v", err)
	}
	if !ran {
		t.Error("job function was not invoked")
	}
	if gotKey != domain.JobDailyCleanup || gotStatus != "success" {
		t.Errorf("recorded %s/%s, want %s/success", gotKey, gotStatus, domain.JobDailyCleanup)
	}
}

func TestRunJobRecordsErrorAndPropagates(t *testing.T) {
	var gotStatus string
	repo := &fakeCronRepo{
		recordRun: func(_ context.Context, _, status string, _ time.Duration, _ time.Time) error {
			gotStatus = status
			return nil
		},
	}
	r := cron.NewRunner(repo, slog.New(slog.DiscardHandler))

	boom := errors.New("queue unavailable")
	r.Register(domain.JobDailyNotifications, func(ctx context.Context) error { return boom })

	err := r.RunJob(context.Background(), domain.JobDailyNotifications)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want the job error back", err)
	}
	if gotStatus != "error" {
		t.Errorf("recorded status %q, want error", gotStatus)
	}
}

func TestStartRejectsUnknownJobKey(t *testing.T) {
	r := cron.NewRunner(&fakeCronRepo{}, slog.New(slog.DiscardHandler))
	r.Register("made_up", func(ctx context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); !errors.Is(err, domain.ErrUnknownJobKey) {
		t.Errorf("Start err = %v, want ErrUnknownJobKey", err)
	}
}

func TestStartSeedsAndStopsOnCancel(t *testing.T) {
	var seeded []*domain.CronJob
	repo := &fakeCronRepo{
		seed: func(_ context.Context, job *domain.CronJob) error {
			seeded = append(seeded, job)
			return nil
		},
		getByKey: func(_ context.Context, key string) (*domain.CronJob, error) {
			return &domain.CronJob{JobKey: key, CronSchedule: "0 8 * * *", IsEnabled: true}, nil
		},
	}
	r := cron.NewRunner(repo, slog.New(slog.DiscardHandler))
	r.Register(domain.JobWeeklyManagerReports, func(ctx context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	if len(seeded) != 1 || seeded[0].JobKey != domain.JobWeeklyManagerReports {
		t.Fatalf("seeded = %+v, want the registered job row", seeded)
	}
	if seeded[0].CronSchedule != "0 9 * * FRI" {
		t.Errorf("seed schedule = %q, want default weekly schedule", seeded[0].CronSchedule)
	}
}
