// Package mailer submits composed messages to the configured SMTP server.
package mailer

import (
	"fmt"
	"log/slog"
	"strings"

	mail "gopkg.in/mail.v2"

	"github.com/spazza/bi-mail-service/internal/config"
)

// Submitter hands a composed message to a mail transfer mechanism. Delivery
// beyond acceptance is the server's responsibility.
type Submitter interface {
	Submit(m *mail.Message) error
}

// SMTP submits messages over a single SMTP connection per call.
type SMTP struct {
	dialer *mail.Dialer
	logger *slog.Logger
}

// NewSMTP creates an SMTP submitter. With use_ssl the connection uses
// implicit TLS; otherwise STARTTLS is negotiated when the server offers it.
func NewSMTP(cfg config.SMTP, logger *slog.Logger) *SMTP {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = cfg.Timeout()
	d.SSL = cfg.UseSSL
	return &SMTP{dialer: d, logger: logger}
}

// Submit dials the server, sends the message and closes the connection.
// Failures are returned as-is; no retries.
func (s *SMTP) Submit(m *mail.Message) error {
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp submit: %w", err)
	}
	s.logger.Info("message submitted",
		"to", strings.Join(m.GetHeader("To"), ", "),
		"subject", strings.Join(m.GetHeader("Subject"), ""),
	)
	return nil
}
