package domain

import (
	"errors"
	"time"
)

var (
	ErrCronJobNotFound = errors.New("cron job not found")
	ErrCronJobDisabled = errors.New("cron job is disabled")
	ErrUnknownJobKey   = errors.New("unknown cron job key")
	ErrInvalidCronExpr = errors.New("invalid cron expression")
)

const (
	JobDailyNotifications   = "daily_notifications"
	JobDailyCleanup         = "daily_cleanup"
	JobWeeklyManagerReports = "weekly_manager_reports"
)

// CronJob is persisted schedule metadata and run bookkeeping. The trigger
// itself lives in the cron runner; these rows control whether a job fires
// and record what happened when it did.
type CronJob struct {
	ID                int64
	JobKey            string
	JobName           string
	Description       string
	CronSchedule      string
	IsEnabled         bool
	LastRunAt         *time.Time
	LastRunStatus     *string
	LastRunDurationMS *int64
	TotalRuns         int
	TotalErrors       int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
