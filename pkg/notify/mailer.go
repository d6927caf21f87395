package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/cinescan/cinescan/pkg/config"
)

// Sender delivers one notification. Delivery is fire-and-forget from the
// scan job's perspective: failures are logged by the caller, never retried
// here.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends notification email over plain SMTP.
type SMTPMailer struct {
	addr     string
	from     string
	password string
	logger   *slog.Logger
}

func NewSMTPMailer(cfg config.MailConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		addr:     cfg.SMTPAddr,
		from:     cfg.From,
		password: cfg.Password,
		logger:   logger,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	host := m.addr
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)

	auth := smtp.PlainAuth("", m.from, m.password, host)
	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}

	m.logger.Info("notification email sent", "to", to, "subject", subject)

	return nil
}
