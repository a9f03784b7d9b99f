package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/vendorconnect/jobs/internal/config"
)

// dialer is the part of gomail.Dialer the service uses.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer   dialer
	from     string
	fromName string
}

func NewSMTPService(cfg config.MailConfig) Service {
	return newSMTPService(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg)
}

func newSMTPService(d dialer, cfg config.MailConfig) *smtpService {
	return &smtpService{
		dialer:   d,
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
	}
}

func (s *smtpService) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("email has no recipient")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}
