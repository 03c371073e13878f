package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/email"
	"github.com/rfbooking/rfbooking/internal/repository"
)

const sweepBatchLimit = 100

// urgentTypes bypass the working-hours deferral; a cancellation is only
// useful if it reaches people before the freed slot passes.
var urgentTypes = map[domain.NotificationType]bool{
	domain.NotifyBookingCancellation: true,
	domain.NotifyShortNoticeCancel:   true,
}

type NotificationConfig struct {
	EmailEnabled            bool
	WorkingHoursStart       string // "HH:MM", UTC
	WorkingHoursEnd         string
	EnforceWorkingHours     bool
	ReminderHours           int
	CalibrationReminderDays int
	ShortNoticeDays         int
}

type NotificationUsecase struct {
	queue     repository.NotificationRepository
	users     repository.UserRepository
	bookings  repository.BookingRepository
	equipment repository.EquipmentRepository
	sender    email.Sender
	cfg       NotificationConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewNotificationUsecase(
	queue repository.NotificationRepository,
	users repository.UserRepository,
	bookings repository.BookingRepository,
	equipment repository.EquipmentRepository,
	sender email.Sender,
	cfg NotificationConfig,
	logger *slog.Logger,
) *NotificationUsecase {
	return &NotificationUsecase{
		queue:     queue,
		users:     users,
		bookings:  bookings,
		equipment: equipment,
		sender:    sender,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// BookingCreated queues the owner's confirmation and a heads-up to every
// manager of the booked equipment.
func (u *NotificationUsecase) BookingCreated(ctx context.Context, b *domain.Booking) {
	u.enqueue(ctx, domain.NotifyBookingConfirmation, b.UserID, b.ID, domain.RefBooking, u.now())
	u.notifyManagers(ctx, b, domain.NotifyManagerNewBooking)
}

// BookingCancelled queues the owner's cancellation notice. When the booking
// would have started within the short-notice window, managers are alerted
// that the slot freed up.
func (u *NotificationUsecase) BookingCancelled(ctx context.Context, b *domain.Booking) {
	u.enqueue(ctx, domain.NotifyBookingCancellation, b.UserID, b.ID, domain.RefBooking, u.now())

	shortNoticeCutoff := domain.Date(u.now()).AddDate(0, 0, u.cfg.ShortNoticeDays)
	if b.StartDate.Before(shortNoticeCutoff) && !b.StartDate.Before(domain.Date(u.now())) {
		u.notifyManagers(ctx, b, domain.NotifyShortNoticeCancel)
	}
}

// QueueReminders queues booking reminders for bookings starting tomorrow
// and calibration reminders for equipment due calibration soon. Runs inside
// the daily cron job.
func (u *NotificationUsecase) QueueReminders(ctx context.Context) error {
	now := u.now()

	tomorrow := domain.Date(now).AddDate(0, 0, 1)
	starting, err := u.bookings.ListStartingOn(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("list bookings starting tomorrow: %w", err)
	}
	for _, b := range starting {
		// the reminder targets ReminderHours before the booking starts,
		// clamped to now so it is picked up by the next sweep at the latest
		scheduled := at(b.StartDate, b.StartTime).Add(-time.Duration(u.cfg.ReminderHours) * time.Hour)
		if scheduled.Before(now) {
			scheduled = now
		}
		u.enqueue(ctx, domain.NotifyBookingReminder, b.UserID, b.ID, domain.RefBooking, scheduled)
	}

	calDay := domain.Date(now).AddDate(0, 0, u.cfg.CalibrationReminderDays)
	due, err := u.equipment.ListByCalibrationDate(ctx, calDay)
	if err != nil {
		return fmt.Errorf("list equipment due calibration: %w", err)
	}
	for _, eq := range due {
		managers, err := u.equipment.ManagerUsers(ctx, eq.ID)
		if err != nil {
			u.logger.Warn("list managers for calibration reminder failed", "equipment_id", eq.ID, "error", err)
			continue
		}
		for _, m := range managers {
			u.enqueue(ctx, domain.NotifyCalibrationReminder, m.ID, eq.ID, domain.RefEquipment, now)
		}
	}
	return nil
}

// SendWeeklyManagerReports mails every active admin and manager (with
// notifications on) a summary of next week's bookings across their
// equipment. Admins get the whole inventory. Sent directly, not queued:
// the report has no stable reference row for the idempotency tuple.
func (u *NotificationUsecase) SendWeeklyManagerReports(ctx context.Context) error {
	if !u.cfg.EmailEnabled {
		return nil
	}

	recipients, err := u.users.ListNotifiableManagers(ctx)
	if err != nil {
		return fmt.Errorf("list report recipients: %w", err)
	}

	weekStart := domain.Date(u.now()).AddDate(0, 0, 1)
	weekEnd := weekStart.AddDate(0, 0, 6)

	for _, recipient := range recipients {
		var items []*domain.Equipment
		if recipient.IsAdmin() {
			items, err = u.equipment.List(ctx, repository.ListEquipmentInput{})
		} else {
			items, err = u.equipment.ListManagedBy(ctx, recipient.ID)
		}
		if err != nil {
			u.logger.Error("list equipment for weekly report failed", "user_id", recipient.ID, "error", err)
			continue
		}

		var sections []email.WeeklyReportSection
		for _, eq := range items {
			bookings, err := u.bookings.ListForEquipmentRange(ctx, eq.ID, weekStart, weekEnd)
			if err != nil {
				u.logger.Error("list bookings for weekly report failed", "equipment_id", eq.ID, "error", err)
				continue
			}
			sections = append(sections, email.WeeklyReportSection{
				EquipmentName: eq.Name,
				Bookings:      bookings,
			})
		}

		subject, body := email.WeeklyManagerReport(recipient.Name, weekStart, sections)
		if err := u.sender.Send(ctx, recipient.Email, subject, body); err != nil {
			u.logger.Error("weekly report send failed", "user_id", recipient.ID, "error", err)
		}
	}
	return nil
}

// SweepStats summarizes one dispatcher pass.
type SweepStats struct {
	Sent     int
	Failed   int
	Skipped  int
	Deferred int
}

// Sweep drains due pending notifications, one batch per call. Rows outside
// working hours are pushed to the next window unless their type is urgent.
// Failed sends stay failed; there is no retry.
func (u *NotificationUsecase) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats
	now := u.now()

	due, err := u.queue.ListDue(ctx, now, sweepBatchLimit)
	if err != nil {
		return stats, fmt.Errorf("list due notifications: %w", err)
	}

	for _, n := range due {
		if u.cfg.EnforceWorkingHours && !urgentTypes[n.Type] && !u.withinWorkingHours(now) {
			if err := u.queue.Defer(ctx, n.ID, u.nextWindowStart(now)); err != nil {
				u.logger.Error("defer notification failed", "notification_id", n.ID, "error", err)
				continue
			}
			stats.Deferred++
			continue
		}

		switch u.dispatch(ctx, n, now) {
		case domain.NotificationSent:
			stats.Sent++
		case domain.NotificationFailed:
			stats.Failed++
		default:
			stats.Skipped++
		}
	}
	return stats, nil
}

func (u *NotificationUsecase) dispatch(ctx context.Context, n *domain.NotificationLog, now time.Time) domain.NotificationStatus {
	if !u.cfg.EmailEnabled {
		u.skip(ctx, n.ID, "email delivery disabled")
		return domain.NotificationSkipped
	}

	recipient, err := u.users.FindByID(ctx, n.RecipientUserID)
	if err != nil || !recipient.IsActive {
		u.skip(ctx, n.ID, "recipient missing or inactive")
		return domain.NotificationSkipped
	}
	if !recipient.EmailNotifications {
		u.skip(ctx, n.ID, "recipient opted out")
		return domain.NotificationSkipped
	}

	subject, body, err := u.buildMessage(ctx, n)
	if err != nil {
		u.skip(ctx, n.ID, err.Error())
		return domain.NotificationSkipped
	}

	if err := u.sender.Send(ctx, recipient.Email, subject, body); err != nil {
		u.logger.Error("notification send failed", "notification_id", n.ID, "type", n.Type, "error", err)
		if err := u.queue.MarkFailed(ctx, n.ID, err.Error()); err != nil {
			u.logger.Error("mark failed failed", "notification_id", n.ID, "error", err)
		}
		return domain.NotificationFailed
	}

	if err := u.queue.MarkSent(ctx, n.ID, now); err != nil {
		u.logger.Error("mark sent failed", "notification_id", n.ID, "error", err)
	}
	return domain.NotificationSent
}

func (u *NotificationUsecase) buildMessage(ctx context.Context, n *domain.NotificationLog) (string, string, error) {
	switch n.Type {
	case domain.NotifyBookingConfirmation, domain.NotifyBookingCancellation,
		domain.NotifyBookingReminder, domain.NotifyManagerNewBooking,
		domain.NotifyShortNoticeCancel:
		if n.ReferenceID == nil {
			return "", "", fmt.Errorf("booking notification without reference")
		}
		b, err := u.bookings.GetByID(ctx, *n.ReferenceID)
		if err != nil {
			return "", "", fmt.Errorf("referenced booking missing")
		}
		switch n.Type {
		case domain.NotifyBookingConfirmation:
			s, body := email.BookingConfirmation(b)
			return s, body, nil
		case domain.NotifyBookingCancellation:
			s, body := email.BookingCancellation(b)
			return s, body, nil
		case domain.NotifyBookingReminder:
			s, body := email.BookingReminder(b)
			return s, body, nil
		case domain.NotifyManagerNewBooking:
			s, body := email.ManagerNewBooking(b)
			return s, body, nil
		default:
			s, body := email.ShortNoticeCancellation(b)
			return s, body, nil
		}

	case domain.NotifyCalibrationReminder:
		if n.ReferenceID == nil {
			return "", "", fmt.Errorf("calibration notification without reference")
		}
		eq, err := u.equipment.GetByID(ctx, *n.ReferenceID)
		if err != nil {
			return "", "", fmt.Errorf("referenced equipment missing")
		}
		due := u.now()
		if eq.NextCalibrationDate != nil {
			due = *eq.NextCalibrationDate
		}
		s, body := email.CalibrationReminder(eq, due)
		return s, body, nil

	default:
		return "", "", fmt.Errorf("unknown notification type %q", n.Type)
	}
}

func (u *NotificationUsecase) enqueue(ctx context.Context, t domain.NotificationType, recipient, refID int64, refType domain.ReferenceType, scheduledFor time.Time) {
	if !u.cfg.EmailEnabled {
		return
	}
	inserted, err := u.queue.Enqueue(ctx, &domain.NotificationLog{
		Type:            t,
		RecipientUserID: recipient,
		ReferenceID:     &refID,
		ReferenceType:   &refType,
		ScheduledFor:    scheduledFor,
	})
	if err != nil {
		u.logger.Error("enqueue notification failed", "type", t, "recipient", recipient, "error", err)
		return
	}
	if !inserted {
		u.logger.Debug("notification already queued", "type", t, "recipient", recipient, "reference_id", refID)
	}
}

func (u *NotificationUsecase) notifyManagers(ctx context.Context, b *domain.Booking, t domain.NotificationType) {
	managers, err := u.equipment.ManagerUsers(ctx, b.EquipmentID)
	if err != nil {
		u.logger.Error("list equipment managers failed", "equipment_id", b.EquipmentID, "error", err)
		return
	}
	for _, m := range managers {
		if m.ID == b.UserID {
			continue
		}
		u.enqueue(ctx, t, m.ID, b.ID, domain.RefBooking, u.now())
	}
}

func (u *NotificationUsecase) skip(ctx context.Context, id int64, reason string) {
	if err := u.queue.MarkSkipped(ctx, id, reason); err != nil {
		u.logger.Error("mark skipped failed", "notification_id", id, "error", err)
	}
}

func (u *NotificationUsecase) withinWorkingHours(t time.Time) bool {
	clock := t.UTC().Format("15:04")
	return clock >= u.cfg.WorkingHoursStart && clock < u.cfg.WorkingHoursEnd
}

// nextWindowStart is the upcoming working-hours opening: today's if the
// window has not opened yet, otherwise tomorrow's.
func (u *NotificationUsecase) nextWindowStart(t time.Time) time.Time {
	day := domain.Date(t)
	start := at(day, u.cfg.WorkingHoursStart)
	if t.UTC().Before(start) {
		return start
	}
	return at(day.AddDate(0, 0, 1), u.cfg.WorkingHoursStart)
}

func at(day time.Time, clock string) time.Time {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return day
	}
	return day.Add(time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute)
}
