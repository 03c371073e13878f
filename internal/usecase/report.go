package usecase

import (
	"context"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/repository"
)

const defaultReportDays = 30

type ReportUsecase struct {
	reports repository.ReportRepository
	now     func() time.Time
}

func NewReportUsecase(reports repository.ReportRepository) *ReportUsecase {
	return &ReportUsecase{reports: reports, now: time.Now}
}

// Window normalizes an optional report range to whole days, defaulting to
// the last 30 days.
func (u *ReportUsecase) Window(from, to *time.Time) (time.Time, time.Time) {
	end := domain.Date(u.now())
	if to != nil {
		end = domain.Date(*to)
	}
	start := end.AddDate(0, 0, -defaultReportDays+1)
	if from != nil {
		start = domain.Date(*from)
	}
	if end.Before(start) {
		start, end = end, start
	}
	return start, end
}

func (u *ReportUsecase) EquipmentUsage(ctx context.Context, from, to time.Time, equipmentID, typeID *int64) ([]*repository.EquipmentUsageRow, error) {
	return u.reports.EquipmentUsage(ctx, from, to, equipmentID, typeID)
}

// UserActivity restricts non-managers to their own row.
func (u *ReportUsecase) UserActivity(ctx context.Context, actor *domain.User, from, to time.Time, userID *int64) ([]*repository.UserActivityRow, error) {
	if !actor.IsManager() {
		if userID != nil && *userID != actor.ID {
			return nil, domain.ErrForbidden
		}
		userID = &actor.ID
	}
	return u.reports.UserActivity(ctx, from, to, userID)
}

// BookingStats bundles the overview widgets: status breakdown, per-day
// series, and the most booked equipment.
type BookingStats struct {
	StatusCounts []*repository.StatusCount     `json:"status_counts"`
	DailyCounts  []*repository.DailyCount      `json:"daily_counts"`
	TopEquipment []*repository.TopEquipmentRow `json:"top_equipment"`
}

func (u *ReportUsecase) BookingStats(ctx context.Context, from, to time.Time) (*BookingStats, error) {
	statuses, err := u.reports.BookingStatusCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	daily, err := u.reports.DailyBookingCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	top, err := u.reports.TopEquipment(ctx, from, to, 5)
	if err != nil {
		return nil, err
	}
	return &BookingStats{StatusCounts: statuses, DailyCounts: daily, TopEquipment: top}, nil
}
