package domain

import (
	"errors"
	"time"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingConflict   = errors.New("booking conflicts with an existing booking")
	ErrBookingCancelled  = errors.New("booking is already cancelled")
	ErrBookingImmutable  = errors.New("cannot edit a cancelled booking")
	ErrBookingInPast     = errors.New("cannot create bookings in the past")
	ErrBookingTooLong    = errors.New("booking duration exceeds the maximum")
	ErrBookingRange      = errors.New("end date must be on or after start date")
	ErrDailyLimitReached = errors.New("daily booking limit reached")
	ErrNoEquipmentAccess = errors.New("no access to book this equipment")
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Booking reserves one equipment item over a date range. Times are
// clock-of-day strings in 24h "HH:MM" form; zero-padded strings compare
// correctly with plain string ordering.
type Booking struct {
	ID          int64
	UserID      int64
	EquipmentID int64
	StartDate   time.Time // date only, midnight UTC
	EndDate     time.Time
	StartTime   string
	EndTime     string
	Description *string
	Status      BookingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// denormalized for responses
	UserName          string
	UserEmail         string
	EquipmentName     string
	EquipmentLocation *string
}

// Date truncates t to its calendar day in UTC. All booking dates are stored
// and compared at this granularity.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether the booking collides with the candidate range.
// Date ranges are inclusive. When both bookings sit on the same single day,
// times are compared half-open: a.end <= b.start or a.start >= b.end means
// no conflict. Multi-day bookings conflict on any date intersection
// regardless of time-of-day; that asymmetry is intentional.
func (b *Booking) Overlaps(startDate, endDate time.Time, startTime, endTime string) bool {
	if b.EndDate.Before(startDate) || b.StartDate.After(endDate) {
		return false
	}

	if b.StartDate.Equal(b.EndDate) && startDate.Equal(endDate) && b.StartDate.Equal(startDate) {
		if b.EndTime <= startTime || b.StartTime >= endTime {
			return false
		}
	}

	return true
}

// DurationDays is the inclusive day count of the booking range.
func DurationDays(startDate, endDate time.Time) int {
	return int(endDate.Sub(startDate)/(24*time.Hour)) + 1
}
