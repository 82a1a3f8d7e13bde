// Package mail sends transactional email for the application.
package mail

import (
	"context"
	"fmt"

	"quill/internal/config"
	"quill/internal/middleware"

	"gopkg.in/gomail.v2"
)

// Mailer delivers transactional messages to users.
type Mailer interface {
	// SendVerificationCode emails a password recovery code to the address.
	SendVerificationCode(ctx context.Context, to string, code string) error
}

// SMTPMailer sends mail through an SMTP relay using gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer from the SMTP settings in the config.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.MailFrom,
	}
}

func (m *SMTPMailer) SendVerificationCode(ctx context.Context, to string, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your verification code")
	msg.SetBody("text/plain", fmt.Sprintf("Your password recovery verification code is %s.\n\nIf you did not request a password reset, you can ignore this email.", code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		middleware.MailDispatches.WithLabelValues("error").Inc()
		middleware.Logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "to", to)
		return fmt.Errorf("sending verification email: %w", err)
	}
	middleware.MailDispatches.WithLabelValues("sent").Inc()
	return nil
}

// LogMailer writes the code to the log instead of sending mail. Used in
// development and test environments where no SMTP relay is running.
type LogMailer struct{}

func (LogMailer) SendVerificationCode(ctx context.Context, to string, code string) error {
	middleware.Logger.InfoContext(ctx, "Verification code issued", "to", to, "code", code)
	middleware.MailDispatches.WithLabelValues("logged").Inc()
	return nil
}

// New picks the SMTP mailer in production and the log mailer elsewhere.
func New(cfg *config.Config) Mailer {
	if cfg.IsProduction() {
		return NewSMTPMailer(cfg)
	}
	return LogMailer{}
}
