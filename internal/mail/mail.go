// Package mail delivers alarm emails over SMTP.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/tiny-oracle/tinyd/internal/alarm"
	"github.com/tiny-oracle/tinyd/pkg/logging"
)

// Config carries the SMTP coordinates for alarm delivery.
type Config struct {
	// Host and Port address the SMTP relay. Implicit TLS stays off;
	// STARTTLS is used when the relay offers it.
	Host string
	Port int
	// From and To are the alarm sender and recipient addresses.
	From string
	To   string
	// Username and Password authenticate against the relay.
	Username string
	Password string
}

// Sender mails alarms through one SMTP relay.
type Sender struct {
	cfg Config
	log *logging.Logger
}

// NewSender builds a sender for the configured relay.
func NewSender(cfg Config) *Sender {
	return &Sender{
		cfg: cfg,
		log: logging.GetDefault().Component("mail"),
	}
}

// Send delivers one alarm as a plain text message. The connection is
// dialed per call so a dead relay never wedges the dispatcher.
func (s *Sender) Send(ctx context.Context, a alarm.Alarm) error {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender %q: %w", s.cfg.From, err)
	}
	if err := m.To(s.cfg.To); err != nil {
		return fmt.Errorf("failed to set recipient %q: %w", s.cfg.To, err)
	}
	m.Subject(a.Subject)
	m.SetBodyString(gomail.TypeTextPlain, a.Body)

	c, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("failed to build smtp client: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send alarm %d: %w", a.MessageID, err)
	}
	s.log.Info("Alarm mailed", "id", a.MessageID, "subject", a.Subject)
	return nil
}
