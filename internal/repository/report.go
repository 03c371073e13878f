package repository

import (
	"context"
	"time"
)

type EquipmentUsageRow struct {
	EquipmentID   int64
	Name          string
	Location      *string
	TypeName      *string
	TotalBookings int
	UniqueUsers   int
}

type UserActivityRow struct {
	UserID          int64
	Name            string
	Email           string
	TotalBookings   int
	UniqueEquipment int
}

type StatusCount struct {
	Status string
	Count  int
}

type DailyCount struct {
	Day   time.Time
	Count int
}

type TopEquipmentRow struct {
	EquipmentID  int64
	Name         string
	BookingCount int
}

type ReportRepository interface {
	EquipmentUsage(ctx context.Context, from, to time.Time, equipmentID, typeID *int64) ([]*EquipmentUsageRow, error)
	UserActivity(ctx context.Context, from, to time.Time, userID *int64) ([]*UserActivityRow, error)
	BookingStatusCounts(ctx context.Context, from, to time.Time) ([]*StatusCount, error)
	DailyBookingCounts(ctx context.Context, from, to time.Time) ([]*DailyCount, error)
	TopEquipment(ctx context.Context, from, to time.Time, limit int) ([]*TopEquipmentRow, error)
}
