// Package mailer delivers contact form submissions, either through the
// EmailJS REST API or over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Tharun-Kumar-228/portfolio/internal/config"
)

var (
	ErrNotConfigured = errors.New("mail delivery is not configured")
	ErrInvalidInput  = errors.New("invalid contact message")
)

// Message is one contact form submission.
type Message struct {
	Name    string
	Email   string
	Body    string
	To      string
	Subject string
}

// Validate trims the fields in place and checks that a reply is possible.
func (m *Message) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Body = strings.TrimSpace(m.Body)

	switch {
	case m.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case m.Body == "":
		return fmt.Errorf("%w: message is required", ErrInvalidInput)
	case len(m.Body) > 5000:
		return fmt.Errorf("%w: message is too long", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(m.Email)
	if err != nil || addr.Address != m.Email {
		return fmt.Errorf("%w: email address is invalid", ErrInvalidInput)
	}
	// Header injection.
	if strings.ContainsAny(m.Name, "\r\n") {
		return fmt.Errorf("%w: name contains line breaks", ErrInvalidInput)
	}
	return nil
}

func (m Message) subject() string {
	if m.Subject != "" {
		return m.Subject
	}
	return fmt.Sprintf("Portfolio Contact: %s", m.Name)
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Disabled is used when neither EmailJS nor SMTP is configured.
type Disabled struct{}

func (Disabled) Send(context.Context, Message) error { return ErrNotConfigured }

// FromConfig picks EmailJS when its keys are set, then SMTP, and otherwise
// a sender that always reports ErrNotConfigured.
func FromConfig(cfg config.Config) Sender {
	switch {
	case cfg.EmailJS.Enabled():
		return NewEmailJS(cfg.EmailJS.ServiceID, cfg.EmailJS.TemplateID, cfg.EmailJS.PublicKey)
	case cfg.SMTP.Enabled():
		return NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass)
	default:
		return Disabled{}
	}
}
