package notification

import (
	"context"
	"fmt"

	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/outbound"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var (
	_ outbound.EmailSenderPort = (*SMTPSender)(nil)
	_ outbound.EmailSenderPort = (*LogSender)(nil)
)

// SMTPConfig contains SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers email through an SMTP server.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates an SMTP email sender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	port := cfg.Port
	if port == 0 {
		port = 465
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:   from,
	}
}

// Send dials the server and sends one message. gomail has no context support,
// so a cancelled ctx is only honoured before dialing.
func (s *SMTPSender) Send(ctx context.Context, email *model.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", email.To, err)
	}
	return nil
}

// LogSender writes emails to the log instead of sending them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only email sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger.Named("email")}
}

// Send logs the email.
func (s *LogSender) Send(_ context.Context, email *model.Email) error {
	s.logger.Info("email",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body))
	return nil
}
