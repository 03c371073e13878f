package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
)

const dateLayout = "2006-01-02"

// MagicLinkMessage builds the sign-in email.
func MagicLinkMessage(link string, ttl time.Duration) (subject, body string) {
	subject = "Your sign-in link"
	body = fmt.Sprintf(
		`<p>Click the link below to sign in (expires in %d minutes):</p><p><a href="%s">%s</a></p>`,
		int(ttl.Minutes()), link, link,
	)
	return subject, body
}

func BookingConfirmation(b *domain.Booking) (subject, body string) {
	subject = fmt.Sprintf("Booking confirmed: %s", b.EquipmentName)
	body = fmt.Sprintf(
		`<p>Hi %s,</p><p>Your booking is confirmed.</p>%s<p>You can manage your bookings from your account.</p>`,
		b.UserName, bookingDetails(b),
	)
	return subject, body
}

func BookingCancellation(b *domain.Booking) (subject, body string) {
	subject = fmt.Sprintf("Booking cancelled: %s", b.EquipmentName)
	body = fmt.Sprintf(
		`<p>Hi %s,</p><p>The following booking has been cancelled.</p>%s`,
		b.UserName, bookingDetails(b),
	)
	return subject, body
}

func BookingReminder(b *domain.Booking) (subject, body string) {
	subject = fmt.Sprintf("Reminder: %s booking starts %s", b.EquipmentName, b.StartDate.Format(dateLayout))
	body = fmt.Sprintf(
		`<p>Hi %s,</p><p>A reminder that your booking starts soon.</p>%s`,
		b.UserName, bookingDetails(b),
	)
	return subject, body
}

func ManagerNewBooking(b *domain.Booking) (subject, body string) {
	subject = fmt.Sprintf("New booking for %s", b.EquipmentName)
	body = fmt.Sprintf(
		`<p>%s (%s) booked equipment you manage.</p>%s`,
		b.UserName, b.UserEmail, bookingDetails(b),
	)
	return subject, body
}

// ShortNoticeCancellation notifies managers that a slot freed up close to
// its start date.
func ShortNoticeCancellation(b *domain.Booking) (subject, body string) {
	subject = fmt.Sprintf("Slot freed on short notice: %s", b.EquipmentName)
	body = fmt.Sprintf(
		`<p>A booking on equipment you manage was cancelled close to its start date. The slot is available again.</p>%s`,
		bookingDetails(b),
	)
	return subject, body
}

func CalibrationReminder(e *domain.Equipment, due time.Time) (subject, body string) {
	subject = fmt.Sprintf("Calibration due: %s", e.Name)
	location := ""
	if e.Location != nil {
		location = fmt.Sprintf("<p>Location: %s</p>", *e.Location)
	}
	body = fmt.Sprintf(
		`<p>Equipment <strong>%s</strong> is due for calibration on %s.</p>%s`,
		e.Name, due.Format(dateLayout), location,
	)
	return subject, body
}

// WeeklyReportSection groups the upcoming bookings of one managed item.
type WeeklyReportSection struct {
	EquipmentName string
	Bookings      []*domain.Booking
}

// WeeklyManagerReport renders the Friday summary of the coming week's
// bookings across the manager's equipment.
func WeeklyManagerReport(managerName string, weekStart time.Time, sections []WeeklyReportSection) (subject, body string) {
	subject = fmt.Sprintf("Weekly equipment report, week of %s", weekStart.Format(dateLayout))

	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>Hi %s,</p><p>Bookings for the coming week on equipment you manage:</p>", managerName)
	if len(sections) == 0 {
		sb.WriteString("<p>No bookings scheduled.</p>")
	}
	for _, section := range sections {
		fmt.Fprintf(&sb, "<h3>%s</h3>", section.EquipmentName)
		if len(section.Bookings) == 0 {
			sb.WriteString("<p>No bookings.</p>")
			continue
		}
		sb.WriteString("<ul>")
		for _, b := range section.Bookings {
			fmt.Fprintf(&sb, "<li>%s to %s (%s&ndash;%s): %s</li>",
				b.StartDate.Format(dateLayout), b.EndDate.Format(dateLayout),
				b.StartTime, b.EndTime, b.UserName)
		}
		sb.WriteString("</ul>")
	}
	return subject, sb.String()
}

func bookingDetails(b *domain.Booking) string {
	var sb strings.Builder
	sb.WriteString("<ul>")
	fmt.Fprintf(&sb, "<li>Equipment: %s</li>", b.EquipmentName)
	if b.EquipmentLocation != nil {
		fmt.Fprintf(&sb, "<li>Location: %s</li>", *b.EquipmentLocation)
	}
	fmt.Fprintf(&sb, "<li>Dates: %s to %s</li>", b.StartDate.Format(dateLayout), b.EndDate.Format(dateLayout))
	fmt.Fprintf(&sb, "<li>Time: %s&ndash;%s</li>", b.StartTime, b.EndTime)
	if b.Description != nil && *b.Description != "" {
		fmt.Fprintf(&sb, "<li>Description: %s</li>", *b.Description)
	}
	sb.WriteString("</ul>")
	return sb.String()
}
