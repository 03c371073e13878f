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
	"github.com/rfbooking/rfbooking/internal/repository"
)

const bookingColumns = `b.id, b.user_id, b.equipment_id, b.start_date, b.end_date,
	b.start_time, b.end_time, b.description, b.status, b.created_at, b.updated_at,
	u.name, u.email, e.name, e.location`

const bookingFrom = ` FROM bookings b
	JOIN users u ON u.id = b.user_id
	JOIN equipment e ON e.id = b.equipment_id`

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (user_id, equipment_id, start_date, end_date, start_time, end_time, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		b.UserID, b.EquipmentID, b.StartDate, b.EndDate, b.StartTime, b.EndTime, b.Description,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+bookingFrom+` WHERE b.id = $1`, id)
	return scanBooking(row)
}

func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET start_date = $2, end_date = $3, start_time = $4, end_time = $5,
		    description = $6, updated_at = NOW()
		WHERE id = $1`,
		b.ID, b.StartDate, b.EndDate, b.StartTime, b.EndTime, b.Description,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) SetStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) List(ctx context.Context, input repository.ListBookingsInput) ([]*domain.Booking, error) {
	var (
		where []string
		args  []any
	)
	if input.EquipmentID != nil {
		args = append(args, *input.EquipmentID)
		where = append(where, fmt.Sprintf("b.equipment_id = $%d", len(args)))
	}
	if input.UserID != nil {
		args = append(args, *input.UserID)
		where = append(where, fmt.Sprintf("b.user_id = $%d", len(args)))
	}
	if input.StartDate != nil {
		args = append(args, *input.StartDate)
		where = append(where, fmt.Sprintf("b.end_date >= $%d", len(args)))
	}
	if input.EndDate != nil {
		args = append(args, *input.EndDate)
		where = append(where, fmt.Sprintf("b.start_date <= $%d", len(args)))
	}
	if input.Status != nil {
		args = append(args, *input.Status)
		where = append(where, fmt.Sprintf("b.status = $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + bookingFrom
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY b.start_date, b.start_time, b.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *BookingRepository) ListOverlappingDates(ctx context.Context, equipmentID int64, startDate, endDate time.Time, excludeID int64) ([]*domain.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+bookingFrom+`
		 WHERE b.equipment_id = $1 AND b.status = 'active'
		   AND b.start_date <= $3 AND b.end_date >= $2
		   AND b.id <> $4
		 ORDER BY b.start_date, b.start_time`,
		equipmentID, startDate, endDate, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list overlapping bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *BookingRepository) CountCreatedBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`,
		userID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return count, nil
}

func (r *BookingRepository) ListStartingOn(ctx context.Context, day time.Time) ([]*domain.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+bookingFrom+`
		 WHERE b.status = 'active' AND b.start_date = $1
		 ORDER BY b.start_time, b.id`, day)
	if err != nil {
		return nil, fmt.Errorf("list bookings starting on %s: %w", day.Format("2006-01-02"), err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *BookingRepository) ListForEquipmentRange(ctx context.Context, equipmentID int64, from, to time.Time) ([]*domain.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+bookingFrom+`
		 WHERE b.equipment_id = $1 AND b.status = 'active'
		   AND b.start_date <= $3 AND b.end_date >= $2
		 ORDER BY b.start_date, b.start_time`,
		equipmentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list bookings for equipment range: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.EquipmentID, &b.StartDate, &b.EndDate,
		&b.StartTime, &b.EndTime, &b.Description, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		&b.UserName, &b.UserEmail, &b.EquipmentName, &b.EquipmentLocation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	b.StartDate = domain.Date(b.StartDate)
	b.EndDate = domain.Date(b.EndDate)
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]*domain.Booking, error) {
	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
