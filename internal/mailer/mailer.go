// Package mailer provides the domain.EmailClient implementations used to
// deliver 2FA codes.
package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/FilipeAphrody/sentinel-authcore/internal/domain"
)

// Config holds SMTP configuration for sending emails.
type Config struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

// Validate checks if the SMTP configuration is complete.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("missing SMTP_HOST environment variable")
	}
	if c.Port == 0 {
		return fmt.Errorf("missing SMTP_PORT environment variable")
	}
	if c.Username == "" {
		return fmt.Errorf("missing SMTP_USERNAME environment variable")
	}
	if c.Password == "" {
		return fmt.Errorf("missing SMTP_PASSWORD environment variable")
	}
	if c.From == "" {
		return fmt.Errorf("missing SMTP_FROM environment variable")
	}

	return nil
}

type dialAndSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPClient sends plain-text emails through an SMTP relay.
type SMTPClient struct {
	from   string
	dialer dialAndSender
}

// NewSMTPClient creates a client from a validated configuration.
func NewSMTPClient(cfg Config) (*SMTPClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	return &SMTPClient{from: cfg.From, dialer: dialer}, nil
}

// SendEmail delivers a single plain-text message to recipient.
func (c *SMTPClient) SendEmail(ctx context.Context, recipient domain.Email, subject, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.dialer.DialAndSend(c.newMessage(recipient, subject, content)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (c *SMTPClient) newMessage(recipient domain.Email, subject, content string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", c.from)
	msg.SetHeader("To", recipient.String())
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", content)
	return msg
}

// LogClient writes emails to the logger instead of sending them.
type LogClient struct {
	logger zerolog.Logger
}

func NewLogClient(logger zerolog.Logger) *LogClient {
	return &LogClient{logger: logger.With().Str("component", "mailer").Logger()}
}

func (c *LogClient) SendEmail(_ context.Context, recipient domain.Email, subject, content string) error {
	c.logger.Info().
		Str("recipient", recipient.String()).
		Str("subject", subject).
		Str("content", content).
		Msg("sending email")
	return nil
}
