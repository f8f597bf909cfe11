package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // optional - some servers allow unauthenticated relay
	Password string // optional
	From     string // default sender address
	FromName string // optional sender display name
}

// SMTPSender implements Sender using go-mail. TLS mode is picked from the port.
type SMTPSender struct {
	config SMTPConfig
	logger *slog.Logger
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(config SMTPConfig, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{config: config, logger: logger}
}

// Send sends an email via SMTP.
func (s *SMTPSender) Send(ctx context.Context, email *Email) (string, error) {
	msg, err := s.buildMessage(email)
	if err != nil {
		return "", err
	}

	client, err := mail.NewClient(s.config.Host, clientOptions(s.config, 30*time.Second)...)
	if err != nil {
		return "", fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("smtp: failed to send email", "to", email.To, "error", err)
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("smtp: email sent", "to", email.To, "subject", email.Subject)

	// SMTP doesn't hand back a message id
	return fmt.Sprintf("smtp-%d-%d", time.Now().UnixNano(), len(email.To)), nil
}

func (s *SMTPSender) buildMessage(email *Email) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if email.From != "" {
		if err := msg.From(email.From); err != nil {
			return nil, fmt.Errorf("invalid from address: %w", err)
		}
	} else if s.config.FromName != "" {
		if err := msg.FromFormat(s.config.FromName, s.config.From); err != nil {
			return nil, fmt.Errorf("invalid from address: %w", err)
		}
	} else if err := msg.From(s.config.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}

	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}

	msg.Subject(email.Subject)

	switch {
	case email.HTMLBody != "" && email.TextBody != "":
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	case email.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	}

	for key, value := range email.Headers {
		msg.SetGenHeader(mail.Header(key), value)
	}
	return msg, nil
}

// Ping verifies SMTP connectivity and authentication without sending mail.
func (s *SMTPSender) Ping(ctx context.Context) error {
	client, err := mail.NewClient(s.config.Host, clientOptions(s.config, 10*time.Second)...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	return client.Close()
}

func clientOptions(cfg SMTPConfig, timeout time.Duration) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(timeout),
	}

	switch cfg.Port {
	case 465:
		// Implicit TLS (SMTPS)
		opts = append(opts, mail.WithSSL())
	case 587:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		// 25, and local relays like Mailhog on 1025
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}
	return opts
}
