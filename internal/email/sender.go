// Package email delivers workflow notifications over SMTP. It is one of the
// delivery channels behind the notification dispatcher; when email is disabled
// in config the noop sender is used and delivery falls back to in-app only.
package email

import (
	"context"
	"fmt"

	"petcare_ops_backend/platform/config"
	"petcare_ops_backend/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers a notification email to a single recipient.
type Sender interface {
	Send(ctx context.Context, toEmail, title, message string) error
}

// NewSender builds a sender from config. Returns the noop sender when email
// delivery is disabled.
func NewSender(cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return &NoopSender{log: log}, nil
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.GetSMTPPort()),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.GetSMTPUsername() != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.GetSMTPUsername()),
			gomail.WithPassword(cfg.GetSMTPPassword()),
		)
	}

	client, err := gomail.NewClient(cfg.GetSMTPHost(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPSender{
		client:      client,
		fromName:    cfg.GetEmailFromName(),
		fromAddress: cfg.GetEmailFromAddress(),
		log:         log,
	}, nil
}

// SMTPSender delivers mail through an SMTP relay using go-mail.
type SMTPSender struct {
	client      *gomail.Client
	fromName    string
	fromAddress string
	log         *logger.Logger
}

func (s *SMTPSender) Send(ctx context.Context, toEmail, title, message string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromAddress); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(title)

	body, err := renderNotification(title, message)
	if err != nil {
		return fmt.Errorf("render email body: %w", err)
	}
	msg.SetBodyString(gomail.TypeTextHTML, body)
	msg.AddAlternativeString(gomail.TypeTextPlain, message)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.log.Info("email sent", "to", toEmail, "subject", title)
	return nil
}

// NoopSender logs instead of sending. Used when email delivery is disabled.
type NoopSender struct {
	log *logger.Logger
}

func (s *NoopSender) Send(_ context.Context, toEmail, title, _ string) error {
	if s.log != nil {
		s.log.Info("email delivery disabled, skipping", "to", toEmail, "subject", title)
	}
	return nil
}
