package domain

import "time"

type NotificationType string

const (
	NotifyBookingConfirmation NotificationType = "booking_confirmation_user"
	NotifyBookingCancellation NotificationType = "booking_cancellation"
	NotifyBookingReminder     NotificationType = "booking_reminder"
	NotifyManagerNewBooking   NotificationType = "manager_new_booking"
	NotifyShortNoticeCancel   NotificationType = "short_notice_cancellation"
	NotifyCalibrationReminder NotificationType = "calibration_reminder"
)

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
	NotificationSkipped NotificationStatus = "skipped"
)

type ReferenceType string

const (
	RefBooking   ReferenceType = "booking"
	RefEquipment ReferenceType = "equipment"
)

// NotificationLog is one queued email. The (type, recipient, reference)
// tuple is unique, which makes queueing idempotent: re-queueing the same
// event is a no-op.
type NotificationLog struct {
	ID              int64
	Type            NotificationType
	RecipientUserID int64
	ReferenceID     *int64
	ReferenceType   *ReferenceType
	ScheduledFor    time.Time
	SentAt          *time.Time
	Status          NotificationStatus
	ErrorMessage    *string
	SendAttempts    int
	CreatedAt       time.Time
}
