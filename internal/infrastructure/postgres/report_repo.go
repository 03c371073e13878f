package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/repository"
)

type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

func (r *ReportRepository) EquipmentUsage(ctx context.Context, from, to time.Time, equipmentID, typeID *int64) ([]*repository.EquipmentUsageRow, error) {
	where := []string{"b.start_date <= $2", "b.end_date >= $1", "b.status <> 'cancelled'"}
	args := []any{from, to}
	if equipmentID != nil {
		args = append(args, *equipmentID)
		where = append(where, fmt.Sprintf("e.id = $%d", len(args)))
	}
	if typeID != nil {
		args = append(args, *typeID)
		where = append(where, fmt.Sprintf("e.type_id = $%d", len(args)))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.name, e.location, t.name,
		       COUNT(b.id), COUNT(DISTINCT b.user_id)
		FROM equipment e
		LEFT JOIN equipment_types t ON t.id = e.type_id
		JOIN bookings b ON b.equipment_id = e.id
		WHERE `+strings.Join(where, " AND ")+`
		GROUP BY e.id, e.name, e.location, t.name
		ORDER BY COUNT(b.id) DESC, e.name`, args...)
	if err != nil {
		return nil, fmt.Errorf("equipment usage report: %w", err)
	}
	defer rows.Close()

	var report []*repository.EquipmentUsageRow
	for rows.Next() {
		var row repository.EquipmentUsageRow
		if err := rows.Scan(&row.EquipmentID, &row.Name, &row.Location, &row.TypeName,
			&row.TotalBookings, &row.UniqueUsers); err != nil {
			return nil, fmt.Errorf("scan equipment usage row: %w", err)
		}
		report = append(report, &row)
	}
	return report, rows.Err()
}

func (r *ReportRepository) UserActivity(ctx context.Context, from, to time.Time, userID *int64) ([]*repository.UserActivityRow, error) {
	where := []string{"b.start_date <= $2", "b.end_date >= $1", "b.status <> 'cancelled'"}
	args := []any{from, to}
	if userID != nil {
		args = append(args, *userID)
		where = append(where, fmt.Sprintf("u.id = $%d", len(args)))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.name, u.email,
		       COUNT(b.id), COUNT(DISTINCT b.equipment_id)
		FROM users u
		JOIN bookings b ON b.user_id = u.id
		WHERE `+strings.Join(where, " AND ")+`
		GROUP BY u.id, u.name, u.email
		ORDER BY COUNT(b.id) DESC, u.name`, args...)
	if err != nil {
		return nil, fmt.Errorf("user activity report: %w", err)
	}
	defer rows.Close()

	var report []*repository.UserActivityRow
	for rows.Next() {
		var row repository.UserActivityRow
		if err := rows.Scan(&row.UserID, &row.Name, &row.Email,
			&row.TotalBookings, &row.UniqueEquipment); err != nil {
			return nil, fmt.Errorf("scan user activity row: %w", err)
		}
		report = append(report, &row)
	}
	return report, rows.Err()
}

func (r *ReportRepository) BookingStatusCounts(ctx context.Context, from, to time.Time) ([]*repository.StatusCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM bookings
		WHERE start_date <= $2 AND end_date >= $1
		GROUP BY status
		ORDER BY status`, from, to)
	if err != nil {
		return nil, fmt.Errorf("booking status counts: %w", err)
	}
	defer rows.Close()

	var counts []*repository.StatusCount
	for rows.Next() {
		var c repository.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts = append(counts, &c)
	}
	return counts, rows.Err()
}

func (r *ReportRepository) DailyBookingCounts(ctx context.Context, from, to time.Time) ([]*repository.DailyCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_date, COUNT(*)
		FROM bookings
		WHERE start_date >= $1 AND start_date <= $2 AND status <> 'cancelled'
		GROUP BY start_date
		ORDER BY start_date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily booking counts: %w", err)
	}
	defer rows.Close()

	var counts []*repository.DailyCount
	for rows.Next() {
		var c repository.DailyCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		c.Day = domain.Date(c.Day)
		counts = append(counts, &c)
	}
	return counts, rows.Err()
}

func (r *ReportRepository) TopEquipment(ctx context.Context, from, to time.Time, limit int) ([]*repository.TopEquipmentRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.name, COUNT(b.id)
		FROM equipment e
		JOIN bookings b ON b.equipment_id = e.id
		WHERE b.start_date <= $2 AND b.end_date >= $1 AND b.status <> 'cancelled'
		GROUP BY e.id, e.name
		ORDER BY COUNT(b.id) DESC, e.name
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top equipment report: %w", err)
	}
	defer rows.Close()

	var report []*repository.TopEquipmentRow
	for rows.Next() {
		var row repository.TopEquipmentRow
		if err := rows.Scan(&row.EquipmentID, &row.Name, &row.BookingCount); err != nil {
			return nil, fmt.Errorf("scan top equipment row: %w", err)
		}
		report = append(report, &row)
	}
	return report, rows.Err()
}
