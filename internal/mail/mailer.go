// Package mail delivers transactional email. Delivery is fire-and-forget from
// the caller's perspective; no retries happen at this layer.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Mailer sends a single plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer constructs a mailer for the given relay address. user/pass may
// be empty for an unauthenticated relay.
func NewSMTPMailer(addr, from, user, pass string) *SMTPMailer {
	var auth smtp.Auth
	if user != "" {
		host := addr
		if i := strings.LastIndex(addr, ":"); i >= 0 {
			host = addr[:i]
		}
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &SMTPMailer{addr: addr, from: from, auth: auth}
}

// Send delivers the message. net/smtp has no context support, so cancellation
// only bounds the caller, not the dial.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them; used in
// development environments without an SMTP relay.
type LogMailer struct {
	Logger *zap.Logger
}

var _ Mailer = (*LogMailer)(nil)

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	logger := m.Logger
	if logger == nil {
		logger = zap.L()
	}
	logger.Info("mail (not delivered)",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
