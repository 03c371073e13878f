package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/rfbooking/rfbooking/config"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs emails instead of sending them. Used with the "log"
// provider for local development.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info("email (log provider)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// SMTPSender delivers HTML mail through a plain SMTP relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send email via smtp: %w", err)
	}
	return nil
}

// NewSender builds the sender for the configured provider.
func NewSender(cfg config.EmailConfig, logger *slog.Logger) Sender {
	from := cfg.FromAddress
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
	}

	switch cfg.Provider {
	case "resend":
		return &ResendSender{
			client: resend.NewClient(cfg.ResendAPIKey),
			from:   from,
		}
	case "smtp":
		var auth smtp.Auth
		if cfg.SMTPUsername != "" {
			auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
		}
		return &SMTPSender{
			addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
			auth: auth,
			from: from,
		}
	default:
		return &LogSender{logger: logger}
	}
}
