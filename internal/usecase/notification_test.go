package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/repository"
	"github.com/rfbooking/rfbooking/internal/usecase"
)

func newNotificationUsecase(queue *fakeNotificationRepo, users *fakeUserRepo, bookings *fakeBookingRepo, equipment *fakeEquipmentRepo, sender *fakeEmailSender, cfg usecase.NotificationConfig) *usecase.NotificationUsecase {
	return usecase.NewNotificationUsecase(queue, users, bookings, equipment, sender, cfg, discardLogger())
}

func defaultNotificationConfig() usecase.NotificationConfig {
	return usecase.NotificationConfig{
		EmailEnabled: true,
		// the full day counts as working hours so sweeps dispatch immediately
		WorkingHoursStart:       "00:00",
		WorkingHoursEnd:         "23:59",
		EnforceWorkingHours:     true,
		ReminderHours:           24,
		CalibrationReminderDays: 7,
		ShortNoticeDays:         8,
	}
}

func TestBookingCreatedQueuesOwnerAndManagers(t *testing.T) {
	var queued []*domain.NotificationLog
	queue := &fakeNotificationRepo{
		enqueue: func(_ context.Context, n *domain.NotificationLog) (bool, error) {
			queued = append(queued, n)
			return true, nil
		},
	}
	equipment := &fakeEquipmentRepo{
		managerUsers: func(_ context.Context, _ int64) ([]*domain.User, error) {
			return []*domain.User{{ID: 5}, {ID: 10}}, nil
		},
	}

	uc := newNotificationUsecase(queue, &fakeUserRepo{}, &fakeBookingRepo{}, equipment, &fakeEmailSender{}, defaultNotificationConfig())
	uc.BookingCreated(context.Background(), &domain.Booking{ID: 1, UserID: 10, EquipmentID: 2})

	if len(queued) != 2 {
		t.Fatalf("queued %d notifications, want 2 (owner + one manager)", len(queued))
	}
	if queued[0].Type != domain.NotifyBookingConfirmation || queued[0].RecipientUserID != 10 {
		t.Errorf("first = %+v, want owner confirmation", queued[0])
	}
	// The booking owner who also manages the equipment is not notified twice.
	if queued[1].Type != domain.NotifyManagerNewBooking || queued[1].RecipientUserID != 5 {
		t.Errorf("second = %+v, want manager notice for user 5", queued[1])
	}
}

// Queueing is keyed on (type, recipient, reference_id, reference_type);
// replaying an event must not produce a second row or an error.
func TestBookingCreatedReplayQueuesOnce(t *testing.T) {
	type identity struct {
		t       domain.NotificationType
		user    int64
		refID   int64
		refType domain.ReferenceType
	}
	seen := map[identity]int{}
	queue := &fakeNotificationRepo{
		enqueue: func(_ context.Context, n *domain.NotificationLog) (bool, error) {
			if n.ReferenceID == nil || n.ReferenceType == nil {
				t.Fatalf("notification %+v missing its reference", n)
			}
			key := identity{n.Type, n.RecipientUserID, *n.ReferenceID, *n.ReferenceType}
			seen[key]++
			return seen[key] == 1, nil
		},
	}

	uc := newNotificationUsecase(queue, &fakeUserRepo{}, &fakeBookingRepo{}, &fakeEquipmentRepo{}, &fakeEmailSender{}, defaultNotificationConfig())
	booking := &domain.Booking{ID: 1, UserID: 10, EquipmentID: 2}
	uc.BookingCreated(context.Background(), booking)
	uc.BookingCreated(context.Background(), booking)

	key := identity{domain.NotifyBookingConfirmation, 10, 1, domain.RefBooking}
	if seen[key] != 2 {
		t.Fatalf("enqueue attempts for the owner = %d, want 2", seen[key])
	}
	if len(seen) != 1 {
		t.Errorf("distinct identities = %d, want 1 (replay reuses the tuple)", len(seen))
	}
}

func TestBookingCancelledShortNoticeAlertsManagers(t *testing.T) {
	var types []domain.NotificationType
	queue := &fakeNotificationRepo{
		enqueue: func(_ context.Context, n *domain.NotificationLog) (bool, error) {
			types = append(types, n.Type)
			return true, nil
		},
	}
	equipment := &fakeEquipmentRepo{
		managerUsers: func(_ context.Context, _ int64) ([]*domain.User, error) {
			return []*domain.User{{ID: 5}}, nil
		},
	}

	uc := newNotificationUsecase(queue, &fakeUserRepo{}, &fakeBookingRepo{}, equipment, &fakeEmailSender{}, defaultNotificationConfig())

	// Starts in 2 days: inside the short-notice window.
	uc.BookingCancelled(context.Background(), &domain.Booking{ID: 1, UserID: 10, EquipmentID: 2, StartDate: futureDay(2)})
	want := []domain.NotificationType{domain.NotifyBookingCancellation, domain.NotifyShortNoticeCancel}
	if len(types) != len(want) || types[0] != want[0] || types[1] != want[1] {
		t.Errorf("types = %v, want %v", types, want)
	}

	// Starts in 30 days: no short-notice alert.
	types = nil
	uc.BookingCancelled(context.Background(), &domain.Booking{ID: 2, UserID: 10, EquipmentID: 2, StartDate: futureDay(30)})
	if len(types) != 1 || types[0] != domain.NotifyBookingCancellation {
		t.Errorf("types = %v, want just the cancellation", types)
	}
}

func TestQueueRemindersForTomorrowsBookings(t *testing.T) {
	var queued []*domain.NotificationLog
	queue := &fakeNotificationRepo{
		enqueue: func(_ context.Context, n *domain.NotificationLog) (bool, error) {
			queued = append(queued, n)
			return true, nil
		},
	}
	bookings := &fakeBookingRepo{
		listStartingOn: func(_ context.Context, day time.Time) ([]*domain.Booking, error) {
			if !day.Equal(futureDay(1)) {
				t.Errorf("listed bookings for %v, want tomorrow", day)
			}
			return []*domain.Booking{
				{ID: 1, UserID: 10, StartDate: futureDay(1), StartTime: "09:00"},
			}, nil
		},
	}
	cal := futureDay(7)
	equipment := &fakeEquipmentRepo{
		listByCalibrationDate: func(_ context.Context, day time.Time) ([]*domain.Equipment, error) {
			if !day.Equal(cal) {
				t.Errorf("listed calibration for %v, want %v", day, cal)
			}
			return []*domain.Equipment{{ID: 3, NextCalibrationDate: &cal}}, nil
		},
		managerUsers: func(_ context.Context, _ int64) ([]*domain.User, error) {
			return []*domain.User{{ID: 5}}, nil
		},
	}

	uc := newNotificationUsecase(queue, &fakeUserRepo{}, bookings, equipment, &fakeEmailSender{}, defaultNotificationConfig())
	if err := uc.QueueReminders(context.Background()); err != nil {
		t.Fatalf("QueueReminders: %v", err)
	}

	if len(queued) != 2 {
		t.Fatalf("queued %d, want reminder + calibration", len(queued))
	}
	if queued[0].Type != domain.NotifyBookingReminder {
		t.Errorf("first = %v, want booking reminder", queued[0].Type)
	}
	// 24h before a 09:00 start tomorrow is in the past, so it clamps to now.
	if queued[0].ScheduledFor.After(time.Now().Add(time.Minute)) {
		t.Errorf("reminder scheduled at %v, want clamped to roughly now", queued[0].ScheduledFor)
	}
	if queued[1].Type != domain.NotifyCalibrationReminder || queued[1].RecipientUserID != 5 {
		t.Errorf("second = %+v, want calibration reminder for manager", queued[1])
	}
	if queued[1].ReferenceType == nil || *queued[1].ReferenceType != domain.RefEquipment {
		t.Error("calibration reminder must reference the equipment")
	}
}

func TestSweepDispatches(t *testing.T) {
	refID := int64(1)
	refType := domain.RefBooking
	due := []*domain.NotificationLog{
		{ID: 1, Type: domain.NotifyBookingConfirmation, RecipientUserID: 10, ReferenceID: &refID, ReferenceType: &refType},
		{ID: 2, Type: domain.NotifyBookingConfirmation, RecipientUserID: 11, ReferenceID: &refID, ReferenceType: &refType},
		{ID: 3, Type: domain.NotifyBookingConfirmation, RecipientUserID: 12, ReferenceID: &refID, ReferenceType: &refType},
	}

	var sent, failed, skipped []int64
	queue := &fakeNotificationRepo{
		listDue: func(_ context.Context, _ time.Time, _ int) ([]*domain.NotificationLog, error) {
			return due, nil
		},
		markSent:    func(_ context.Context, id int64, _ time.Time) error { sent = append(sent, id); return nil },
		markFailed:  func(_ context.Context, id int64, _ string) error { failed = append(failed, id); return nil },
		markSkipped: func(_ context.Context, id int64, _ string) error { skipped = append(skipped, id); return nil },
	}
	users := &fakeUserRepo{
		findByID: func(_ context.Context, id int64) (*domain.User, error) {
			switch id {
			case 10:
				return &domain.User{ID: 10, Email: "ok@x", IsActive: true, EmailNotifications: true}, nil
			case 11:
				return &domain.User{ID: 11, Email: "optout@x", IsActive: true, EmailNotifications: false}, nil
			case 12:
				return &domain.User{ID: 12, Email: "fail@x", IsActive: true, EmailNotifications: true}, nil
			}
			return nil, domain.ErrUserNotFound
		},
	}
	bookings := &fakeBookingRepo{
		getByID: func(_ context.Context, _ int64) (*domain.Booking, error) {
			return &domain.Booking{ID: 1, UserName: "Alice", EquipmentName: "FSW26",
				StartDate: futureDay(1), EndDate: futureDay(1), StartTime: "09:00", EndTime: "12:00"}, nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, to, _, _ string) error {
			if to == "fail@x" {
				return errors.New("bounce")
			}
			return nil
		},
	}

	uc := newNotificationUsecase(queue, users, bookings, &fakeEquipmentRepo{}, sender, defaultNotificationConfig())
	stats, err := uc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if stats.Sent != 1 || stats.Skipped != 1 || stats.Failed != 1 || stats.Deferred != 0 {
		t.Errorf("stats = %+v, want 1 sent, 1 skipped, 1 failed", stats)
	}
	if len(sent) != 1 || sent[0] != 1 {
		t.Errorf("sent ids = %v, want [1]", sent)
	}
	if len(skipped) != 1 || skipped[0] != 2 {
		t.Errorf("skipped ids = %v, want [2]", skipped)
	}
	if len(failed) != 1 || failed[0] != 3 {
		t.Errorf("failed ids = %v, want [3]", failed)
	}
}

func TestSweepDefersOutsideWorkingHoursExceptUrgent(t *testing.T) {
	refID := int64(1)
	refType := domain.RefBooking
	due := []*domain.NotificationLog{
		{ID: 1, Type: domain.NotifyBookingReminder, RecipientUserID: 10, ReferenceID: &refID, ReferenceType: &refType},
		{ID: 2, Type: domain.NotifyBookingCancellation, RecipientUserID: 10, ReferenceID: &refID, ReferenceType: &refType},
	}

	var deferred []int64
	queue := &fakeNotificationRepo{
		listDue: func(_ context.Context, _ time.Time, _ int) ([]*domain.NotificationLog, error) {
			return due, nil
		},
		defer_: func(_ context.Context, id int64, until time.Time) error {
			deferred = append(deferred, id)
			if !until.After(time.Now()) {
				t.Errorf("deferred until %v, want a future instant", until)
			}
			return nil
		},
	}
	users := &fakeUserRepo{
		findByID: func(_ context.Context, _ int64) (*domain.User, error) {
			return &domain.User{ID: 10, Email: "ok@x", IsActive: true, EmailNotifications: true}, nil
		},
	}
	bookings := &fakeBookingRepo{
		getByID: func(_ context.Context, _ int64) (*domain.Booking, error) {
			return &domain.Booking{ID: 1, StartDate: futureDay(1), EndDate: futureDay(1)}, nil
		},
	}

	// A zero-width window puts every sweep outside working hours.
	cfg := defaultNotificationConfig()
	cfg.WorkingHoursStart = "00:00"
	cfg.WorkingHoursEnd = "00:00"

	uc := newNotificationUsecase(queue, users, bookings, &fakeEquipmentRepo{}, &fakeEmailSender{}, cfg)
	stats, err := uc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if stats.Deferred != 1 || stats.Sent != 1 {
		t.Errorf("stats = %+v, want reminder deferred and urgent cancellation sent", stats)
	}
	if len(deferred) != 1 || deferred[0] != 1 {
		t.Errorf("deferred ids = %v, want [1]", deferred)
	}
}

func TestSweepSkipsEverythingWhenEmailDisabled(t *testing.T) {
	refID := int64(1)
	refType := domain.RefBooking
	queue := &fakeNotificationRepo{
		listDue: func(_ context.Context, _ time.Time, _ int) ([]*domain.NotificationLog, error) {
			return []*domain.NotificationLog{
				{ID: 1, Type: domain.NotifyBookingReminder, RecipientUserID: 10, ReferenceID: &refID, ReferenceType: &refType},
			}, nil
		},
	}

	cfg := defaultNotificationConfig()
	cfg.EmailEnabled = false

	uc := newNotificationUsecase(queue, &fakeUserRepo{}, &fakeBookingRepo{}, &fakeEquipmentRepo{}, &fakeEmailSender{}, cfg)
	stats, err := uc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 1 skipped", stats)
	}
}

func TestSendWeeklyManagerReports(t *testing.T) {
	users := &fakeUserRepo{
		listNotifiableManagers: func(_ context.Context) ([]*domain.User, error) {
			return []*domain.User{
				{ID: 1, Name: "Admin", Email: "admin@x", RoleID: domain.RoleAdmin},
				{ID: 5, Name: "Manager", Email: "mgr@x", RoleID: domain.RoleManager},
			}, nil
		},
	}

	var listedAll, listedManaged bool
	equipment := &fakeEquipmentRepo{
		list: func(_ context.Context, _ repository.ListEquipmentInput) ([]*domain.Equipment, error) {
			listedAll = true
			return []*domain.Equipment{{ID: 3, Name: "FSW26"}}, nil
		},
		listManagedBy: func(_ context.Context, managerID int64) ([]*domain.Equipment, error) {
			if managerID != 5 {
				t.Errorf("listed managed equipment for %d, want 5", managerID)
			}
			listedManaged = true
			return []*domain.Equipment{{ID: 3, Name: "FSW26"}}, nil
		},
	}
	bookings := &fakeBookingRepo{
		listForEquipmentRange: func(_ context.Context, _ int64, from, to time.Time) ([]*domain.Booking, error) {
			if !from.Equal(futureDay(1)) || !to.Equal(futureDay(7)) {
				t.Errorf("report window %v..%v, want tomorrow..+6", from, to)
			}
			return nil, nil
		},
	}

	var recipients []string
	sender := &fakeEmailSender{
		send: func(_ context.Context, to, _, _ string) error {
			recipients = append(recipients, to)
			return nil
		},
	}

	uc := newNotificationUsecase(&fakeNotificationRepo{}, users, bookings, equipment, sender, defaultNotificationConfig())
	if err := uc.SendWeeklyManagerReports(context.Background()); err != nil {
		t.Fatalf("SendWeeklyManagerReports: %v", err)
	}

	if !listedAll {
		t.Error("admin report should cover the whole inventory")
	}
	if !listedManaged {
		t.Error("manager report should cover managed equipment only")
	}
	if len(recipients) != 2 {
		t.Errorf("sent to %v, want both recipients", recipients)
	}
}
