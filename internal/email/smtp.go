package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/dukerupert/mailinglist/internal/secret"
)

// SMTPConfig holds SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string        // optional - some servers allow unauthenticated relay
	Password secret.String // optional
	Timeout  time.Duration
}

// SMTPSender implements Sender using go-mail. It is meant for local development
// against Mailpit or MailHog; production delivery goes through PostmarkSender.
type SMTPSender struct {
	config SMTPConfig
	logger *slog.Logger
}

// NewSMTPSender creates an SMTP sender from a config struct.
func NewSMTPSender(config SMTPConfig, logger *slog.Logger) *SMTPSender {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{config: config, logger: logger}
}

// Send sends an email via SMTP. One dial, one message, no retry.
func (s *SMTPSender) Send(ctx context.Context, email *Message) error {
	msg := mail.NewMsg()

	if err := msg.From(email.From); err != nil {
		return &DeliveryError{Kind: KindTransport, Provider: "smtp", Err: fmt.Errorf("invalid from address: %w", err)}
	}
	if err := msg.To(email.To); err != nil {
		return &DeliveryError{Kind: KindTransport, Provider: "smtp", Err: fmt.Errorf("invalid to address: %w", err)}
	}

	msg.Subject(email.Subject)

	// Prefer HTML with text fallback, or just text
	switch {
	case email.HTMLBody != "" && email.TextBody != "":
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	case email.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	}

	client, err := mail.NewClient(s.config.Host, s.clientOptions()...)
	if err != nil {
		return &DeliveryError{Kind: KindTransport, Provider: "smtp", Err: fmt.Errorf("failed to create SMTP client: %w", err)}
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &DeliveryError{Kind: classify(err), Provider: "smtp", Err: err}
	}

	s.logger.Debug("smtp: email sent", "host", s.config.Host, "port", s.config.Port)
	return nil
}

// clientOptions returns go-mail client options based on configuration.
func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTimeout(s.config.Timeout),
	}

	switch s.config.Port {
	case 465:
		// Implicit TLS (SMTPS)
		opts = append(opts, mail.WithSSL())
	case 587:
		// STARTTLS (submission port)
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		// 25, or 1025 for Mailpit
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if s.config.Username != "" && !s.config.Password.IsEmpty() {
		opts = append(opts,
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password.Expose()),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	return opts
}
