package notify

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/randopony/backend/config"
)

// Mailer sends composed messages.
type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer sends mail through the configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
}

// NewSMTPMailer creates an SMTP mailer from email config.
func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
	}
}

// Send delivers one message.
func (m *SMTPMailer) Send(msg Message) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", msg.From)
	gm.SetHeader("To", msg.To...)
	if msg.Sender != "" {
		gm.SetHeader("Sender", msg.Sender)
	}
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
