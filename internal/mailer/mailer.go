// Package mailer delivers the notification emails produced by a form
// submission. The transport is an interface so handlers and tests can swap
// SMTP for a recording fake.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"

	"github.com/sonam-git/hscsonoma-backend/internal/config"
)

// Mailer errors
var (
	ErrNotConfigured = errors.New("mail transport is not configured")
	ErrSendTimeout   = errors.New("mail send timed out")
)

// Message is a fully rendered email ready for delivery.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Transport delivers a single message. Implementations must respect the
// context deadline.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPTransport delivers mail over authenticated SMTP.
type SMTPTransport struct {
	cfg    config.MailConfig
	logger *slog.Logger
}

// NewSMTPTransport creates an SMTP transport from mail configuration. The
// returned transport fails every send with ErrNotConfigured if credentials
// are missing, so callers can construct it unconditionally at startup.
func NewSMTPTransport(cfg config.MailConfig, logger *slog.Logger) *SMTPTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPTransport{cfg: cfg, logger: logger}
}

// Send delivers the message, bounded by the configured send timeout. A send
// that outlives the context keeps running in its goroutine until the SMTP
// library gives up, but the caller is released as soon as the deadline hits.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if !t.cfg.Configured() {
		return ErrNotConfigured
	}

	e := email.NewEmail()
	e.From = msg.From
	e.To = msg.To
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	e.HTML = []byte(msg.HTML)
	if msg.ReplyTo != "" {
		e.ReplyTo = []string{msg.ReplyTo}
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.SendTimeout)
	defer cancel()

	auth := smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)

	tlsCfg := &tls.Config{ServerName: t.cfg.SMTPHost}

	done := make(chan error, 1)
	go func() {
		done <- e.SendWithStartTLS(t.cfg.Addr(), auth, tlsCfg)
	}()

	start := time.Now()
	select {
	case err := <-done:
		if err != nil {
			t.logger.Error("smtp send failed",
				"to", msg.To,
				"subject", msg.Subject,
				"duration", time.Since(start),
				"error", err,
			)
			return fmt.Errorf("sending mail: %w", err)
		}
		t.logger.Info("mail sent",
			"to", msg.To,
			"subject", msg.Subject,
			"duration", time.Since(start),
		)
		return nil
	case <-ctx.Done():
		t.logger.Error("smtp send timed out",
			"to", msg.To,
			"subject", msg.Subject,
			"timeout", t.cfg.SendTimeout,
		)
		return ErrSendTimeout
	}
}
