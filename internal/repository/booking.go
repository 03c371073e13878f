package repository

import (
	"context"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
)

type ListBookingsInput struct {
	EquipmentID *int64
	UserID      *int64
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *domain.BookingStatus
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
	SetStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	List(ctx context.Context, input ListBookingsInput) ([]*domain.Booking, error)

	// ListOverlappingDates returns active bookings of the equipment whose
	// date range intersects [startDate, endDate], excluding excludeID when
	// non-zero. Time-of-day filtering happens in the caller.
	ListOverlappingDates(ctx context.Context, equipmentID int64, startDate, endDate time.Time, excludeID int64) ([]*domain.Booking, error)

	CountCreatedBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)
	// ListStartingOn returns active bookings whose start date is exactly day.
	ListStartingOn(ctx context.Context, day time.Time) ([]*domain.Booking, error)
	// ListForEquipmentRange returns active bookings of the equipment touching
	// [from, to], ordered by start date and time.
	ListForEquipmentRange(ctx context.Context, equipmentID int64, from, to time.Time) ([]*domain.Booking, error)
}
