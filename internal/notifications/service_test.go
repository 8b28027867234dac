package notifications

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ledgersync/internal/config"
	"ledgersync/internal/logging"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newCapturingService(email config.Email, sendErr error) (*smtpService, *[]capturedMail) {
	var sent []capturedMail
	svc := &smtpService{
		email:  email,
		logger: logging.NewNop(),
		send: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			if sendErr != nil {
				return sendErr
			}
			sent = append(sent, capturedMail{addr: addr, from: from, to: to, msg: string(msg)})
			return nil
		},
		printer: message.NewPrinter(language.English),
	}
	return svc, &sent
}

func testEmail() config.Email {
	return config.Email{
		Enabled:        true,
		SMTPServer:     "smtp.example.com",
		SMTPPort:       587,
		Sender:         "daemon@example.com",
		SenderPassword: "secret",
		Recipient:      "operator@example.com",
	}
}

func TestNewServiceDisabledIsNoop(t *testing.T) {
	cfg := config.Default()
	svc := NewService(&cfg, nil)

	if _, ok := svc.(noopService); !ok {
		t.Fatalf("disabled email must yield the noop service, got %T", svc)
	}
	if err := svc.NotifyError(context.Background(), "boom", ""); err != nil {
		t.Fatalf("noop NotifyError: %v", err)
	}
	if err := svc.NotifySummary(context.Background(), Summary{}); err != nil {
		t.Fatalf("noop NotifySummary: %v", err)
	}
}

func TestNotifyErrorMessage(t *testing.T) {
	svc, sent := newCapturingService(testEmail(), nil)

	if err := svc.NotifyError(context.Background(), "upload not confirmed", "cycle abc123"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(*sent))
	}

	mail := (*sent)[0]
	if mail.addr != "smtp.example.com:587" {
		t.Fatalf("addr = %q", mail.addr)
	}
	if mail.from != "daemon@example.com" || len(mail.to) != 1 || mail.to[0] != "operator@example.com" {
		t.Fatalf("envelope = %q -> %v", mail.from, mail.to)
	}
	for _, want := range []string{
		"Subject: [ledgersync] cycle error",
		"Error: upload not confirmed",
		"cycle abc123",
		"From: daemon@example.com",
	} {
		if !strings.Contains(mail.msg, want) {
			t.Fatalf("message missing %q:\n%s", want, mail.msg)
		}
	}
}

func TestNotifyErrorDefaultsDetail(t *testing.T) {
	svc, sent := newCapturingService(testEmail(), nil)

	if err := svc.NotifyError(context.Background(), "boom", ""); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if !strings.Contains((*sent)[0].msg, "no further detail") {
		t.Fatalf("empty detail not defaulted:\n%s", (*sent)[0].msg)
	}
}

func TestNotifySummaryFormatsCounts(t *testing.T) {
	svc, sent := newCapturingService(testEmail(), nil)

	summary := Summary{
		Date:          "2026-01-05",
		Cycles:        24,
		Success:       23,
		Failure:       1,
		Uploaded:      1250,
		Cancellations: 3,
	}
	if err := svc.NotifySummary(context.Background(), summary); err != nil {
		t.Fatalf("NotifySummary: %v", err)
	}

	mail := (*sent)[0]
	for _, want := range []string{
		"Subject: [ledgersync] daily summary - 2026-01-05",
		"Cycles run:    24",
		// Counts are grouped for readability.
		"Rows uploaded: 1,250",
		"Cancellations: 3",
	} {
		if !strings.Contains(mail.msg, want) {
			t.Fatalf("summary missing %q:\n%s", want, mail.msg)
		}
	}
}

func TestDeliveryFailurePropagates(t *testing.T) {
	svc, _ := newCapturingService(testEmail(), errors.New("connection refused"))

	if err := svc.NotifyError(context.Background(), "boom", ""); err == nil {
		t.Fatalf("send failure not propagated")
	}
}

func TestDeliverHonorsCancelledContext(t *testing.T) {
	svc, sent := newCapturingService(testEmail(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.TestNotification(ctx); err == nil {
		t.Fatalf("cancelled context must abort delivery")
	}
	if len(*sent) != 0 {
		t.Fatalf("mail sent despite cancelled context")
	}
}
