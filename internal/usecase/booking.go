package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/repository"
)

type BookingConfig struct {
	MaxDurationDays      int
	MaxDescriptionLength int
	MaxPerUserPerDay     int
}

// bookingNotifier decouples booking operations from notification queueing;
// queue failures are logged, never returned to the caller.
type bookingNotifier interface {
	BookingCreated(ctx context.Context, b *domain.Booking)
	BookingCancelled(ctx context.Context, b *domain.Booking)
}

type BookingUsecase struct {
	bookings  repository.BookingRepository
	equipment repository.EquipmentRepository
	types     repository.EquipmentTypeRepository
	notifier  bookingNotifier
	cfg       BookingConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewBookingUsecase(
	bookings repository.BookingRepository,
	equipment repository.EquipmentRepository,
	types repository.EquipmentTypeRepository,
	notifier bookingNotifier,
	cfg BookingConfig,
	logger *slog.Logger,
) *BookingUsecase {
	return &BookingUsecase{
		bookings:  bookings,
		equipment: equipment,
		types:     types,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

type BookingInput struct {
	EquipmentID int64
	StartDate   time.Time
	EndDate     time.Time
	StartTime   string
	EndTime     string
	Description *string
}

type ListBookingsFilter struct {
	EquipmentID *int64
	UserID      *int64
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *domain.BookingStatus
}

// List applies visibility rules: regular users only see their own bookings,
// managers and admins may filter freely.
func (u *BookingUsecase) List(ctx context.Context, actor *domain.User, filter ListBookingsFilter) ([]*domain.Booking, error) {
	if !actor.IsManager() {
		if filter.UserID != nil && *filter.UserID != actor.ID {
			return nil, domain.ErrForbidden
		}
		filter.UserID = &actor.ID
	}
	return u.bookings.List(ctx, repository.ListBookingsInput{
		EquipmentID: filter.EquipmentID,
		UserID:      filter.UserID,
		StartDate:   filter.StartDate,
		EndDate:     filter.EndDate,
		Status:      filter.Status,
	})
}

func (u *BookingUsecase) Get(ctx context.Context, actor *domain.User, id int64) (*domain.Booking, error) {
	b, err := u.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.canManage(ctx, actor, b); err != nil {
		return nil, err
	}
	return b, nil
}

// CheckConflicts returns active bookings of the equipment that collide with
// the candidate range. excludeID skips the booking being edited.
func (u *BookingUsecase) CheckConflicts(ctx context.Context, equipmentID int64, startDate, endDate time.Time, startTime, endTime string, excludeID int64) ([]*domain.Booking, error) {
	candidates, err := u.bookings.ListOverlappingDates(ctx, equipmentID, startDate, endDate, excludeID)
	if err != nil {
		return nil, err
	}
	var conflicts []*domain.Booking
	for _, b := range candidates {
		if b.Overlaps(startDate, endDate, startTime, endTime) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts, nil
}

// Create validates the candidate booking, checks access and conflicts, and
// queues the confirmation and manager notifications. On conflict the
// colliding bookings are returned alongside ErrBookingConflict.
func (u *BookingUsecase) Create(ctx context.Context, actor *domain.User, input BookingInput) (*domain.Booking, []*domain.Booking, error) {
	input.StartDate = domain.Date(input.StartDate)
	input.EndDate = domain.Date(input.EndDate)

	if err := u.validateRange(input); err != nil {
		return nil, nil, err
	}
	if input.StartDate.Before(domain.Date(u.now())) {
		return nil, nil, domain.ErrBookingInPast
	}

	eq, err := u.equipment.GetByID(ctx, input.EquipmentID)
	if err != nil {
		return nil, nil, err
	}
	if !eq.IsActive {
		return nil, nil, domain.ErrEquipmentNotFound
	}
	if err := u.checkAccess(ctx, actor, eq); err != nil {
		return nil, nil, err
	}

	today := domain.Date(u.now())
	created, err := u.bookings.CountCreatedBetween(ctx, actor.ID, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, nil, fmt.Errorf("count today's bookings: %w", err)
	}
	if created >= u.cfg.MaxPerUserPerDay {
		return nil, nil, domain.ErrDailyLimitReached
	}

	conflicts, err := u.CheckConflicts(ctx, input.EquipmentID, input.StartDate, input.EndDate, input.StartTime, input.EndTime, 0)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, conflicts, domain.ErrBookingConflict
	}

	b, err := u.bookings.Create(ctx, &domain.Booking{
		UserID:      actor.ID,
		EquipmentID: input.EquipmentID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Description: input.Description,
	})
	if err != nil {
		return nil, nil, err
	}

	u.notifier.BookingCreated(ctx, b)
	u.logger.Info("booking created", "booking_id", b.ID, "user_id", actor.ID, "equipment_id", b.EquipmentID)
	return b, nil, nil
}

// Update rewrites the booking's range and description. Cancelled bookings
// are immutable.
func (u *BookingUsecase) Update(ctx context.Context, actor *domain.User, id int64, input BookingInput) (*domain.Booking, []*domain.Booking, error) {
	b, err := u.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := u.canManage(ctx, actor, b); err != nil {
		return nil, nil, err
	}
	if b.Status == domain.BookingCancelled {
		return nil, nil, domain.ErrBookingImmutable
	}

	input.StartDate = domain.Date(input.StartDate)
	input.EndDate = domain.Date(input.EndDate)
	input.EquipmentID = b.EquipmentID
	if err := u.validateRange(input); err != nil {
		return nil, nil, err
	}

	conflicts, err := u.CheckConflicts(ctx, b.EquipmentID, input.StartDate, input.EndDate, input.StartTime, input.EndTime, b.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, conflicts, domain.ErrBookingConflict
	}

	b.StartDate = input.StartDate
	b.EndDate = input.EndDate
	b.StartTime = input.StartTime
	b.EndTime = input.EndTime
	b.Description = input.Description
	if err := u.bookings.Update(ctx, b); err != nil {
		return nil, nil, err
	}
	updated, err := u.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, nil, nil
}

// UpdateDescription changes only the free-text note, skipping the conflict
// check since the reserved range is untouched.
func (u *BookingUsecase) UpdateDescription(ctx context.Context, actor *domain.User, id int64, description *string) (*domain.Booking, error) {
	b, err := u.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.canManage(ctx, actor, b); err != nil {
		return nil, err
	}
	if b.Status == domain.BookingCancelled {
		return nil, domain.ErrBookingImmutable
	}

	b.Description = description
	if err := u.bookings.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Cancel is idempotency-guarded: cancelling an already-cancelled booking
// fails. Cancellation and short-notice notifications are queued after the
// status flip.
func (u *BookingUsecase) Cancel(ctx context.Context, actor *domain.User, id int64) error {
	b, err := u.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := u.canManage(ctx, actor, b); err != nil {
		return err
	}
	if b.Status == domain.BookingCancelled {
		return domain.ErrBookingCancelled
	}

	if err := u.bookings.SetStatus(ctx, id, domain.BookingCancelled); err != nil {
		return err
	}

	u.notifier.BookingCancelled(ctx, b)
	u.logger.Info("booking cancelled", "booking_id", id, "by_user_id", actor.ID)
	return nil
}

func (u *BookingUsecase) validateRange(input BookingInput) error {
	if input.EndDate.Before(input.StartDate) {
		return domain.ErrBookingRange
	}
	if input.StartDate.Equal(input.EndDate) && input.EndTime <= input.StartTime {
		return domain.ErrBookingRange
	}
	if domain.DurationDays(input.StartDate, input.EndDate) > u.cfg.MaxDurationDays {
		return domain.ErrBookingTooLong
	}
	if input.Description != nil && len(*input.Description) > u.cfg.MaxDescriptionLength {
		return fmt.Errorf("%w: description too long", domain.ErrBookingRange)
	}
	return nil
}

// canManage allows the owner, admins, and managers of the booked equipment.
func (u *BookingUsecase) canManage(ctx context.Context, actor *domain.User, b *domain.Booking) error {
	if actor.IsAdmin() || b.UserID == actor.ID {
		return nil
	}
	if actor.RoleID == domain.RoleManager {
		managed, err := u.equipment.IsManagedBy(ctx, b.EquipmentID, actor.ID)
		if err != nil {
			return err
		}
		if managed {
			return nil
		}
	}
	return domain.ErrForbidden
}

func (u *BookingUsecase) checkAccess(ctx context.Context, actor *domain.User, eq *domain.Equipment) error {
	if eq.TypeID == nil || actor.IsAdmin() {
		return nil
	}
	ids, err := u.types.AccessibleTypeIDs(ctx, actor.ID)
	if err != nil {
		return fmt.Errorf("load accessible types: %w", err)
	}
	if !slices.Contains(ids, *eq.TypeID) {
		return domain.ErrNoEquipmentAccess
	}
	return nil
}

// ValidTime reports whether s is a zero-padded 24h "HH:MM" clock string.
func ValidTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	if strings.IndexFunc(s[:2]+s[3:], func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return false
	}
	return s >= "00:00" && s <= "23:59" && s[3] < '6'
}
