// Package notifications delivers operator email for cycle errors and the
// daily summary. When email is disabled a noop implementation is returned so
// callers never branch on configuration.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ledgersync/internal/config"
	"ledgersync/internal/logging"
)

// Summary is the per-day aggregate reported to operators.
type Summary struct {
	Date          string
	Cycles        int
	Success       int
	Failure       int
	Uploaded      int
	Cancellations int
}

// Service is the notification surface consumed by the orchestrator and
// scheduler.
type Service interface {
	NotifyError(ctx context.Context, summary, detail string) error
	NotifySummary(ctx context.Context, summary Summary) error
	TestNotification(ctx context.Context) error
}

// NewService builds an email notification service. When email notifications
// are disabled, a noop implementation is returned.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	email := cfg.Notification.Email
	if !email.Enabled {
		return noopService{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &smtpService{
		email:   email,
		logger:  logging.NewComponentLogger(logger, "notifications"),
		send:    smtp.SendMail,
		printer: message.NewPrinter(language.English),
	}
}

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

type smtpService struct {
	email   config.Email
	logger  *slog.Logger
	send    sendFunc
	printer *message.Printer
}

func (s *smtpService) NotifyError(ctx context.Context, summary, detail string) error {
	now := time.Now().Format("2006-01-02 15:04:05")
	subject := fmt.Sprintf("[ledgersync] cycle error - %s", now)
	if detail == "" {
		detail = "no further detail"
	}
	body := strings.Join([]string{
		"A synchronization cycle failed.",
		"",
		"Time:  " + now,
		"Error: " + summary,
		"",
		"Detail:",
		detail,
		"",
		"This message was sent automatically.",
	}, "\r\n")
	return s.deliver(ctx, subject, body)
}

func (s *smtpService) NotifySummary(ctx context.Context, summary Summary) error {
	subject := fmt.Sprintf("[ledgersync] daily summary - %s", summary.Date)
	body := strings.Join([]string{
		"Daily synchronization summary (" + summary.Date + ")",
		"",
		s.printer.Sprintf("Cycles run:    %d", summary.Cycles),
		s.printer.Sprintf("Succeeded:     %d", summary.Success),
		s.printer.Sprintf("Failed:        %d", summary.Failure),
		s.printer.Sprintf("Rows uploaded: %d", summary.Uploaded),
		s.printer.Sprintf("Cancellations: %d", summary.Cancellations),
		"",
		"This message was sent automatically.",
	}, "\r\n")
	return s.deliver(ctx, subject, body)
}

func (s *smtpService) TestNotification(ctx context.Context) error {
	return s.deliver(ctx, "[ledgersync] test notification",
		"Email notifications are configured correctly.\r\n")
}

func (s *smtpService) deliver(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	headers := strings.Join([]string{
		"From: " + s.email.Sender,
		"To: " + s.email.Recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
	}, "\r\n")
	payload := []byte(headers + "\r\n\r\n" + body)

	addr := fmt.Sprintf("%s:%d", s.email.SMTPServer, s.email.SMTPPort)
	auth := smtp.PlainAuth("", s.email.Sender, s.email.SenderPassword, s.email.SMTPServer)
	if err := s.send(addr, auth, s.email.Sender, []string{s.email.Recipient}, payload); err != nil {
		s.logger.Error("email delivery failed",
			logging.String("subject", subject),
			logging.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent", logging.String("subject", subject))
	return nil
}

type noopService struct{}

func (noopService) NotifyError(context.Context, string, string) error { return nil }
func (noopService) NotifySummary(context.Context, Summary) error      { return nil }
func (noopService) TestNotification(context.Context) error            { return nil }
