package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
)

// SMTP sends plain-text mail with PLAIN auth.
type SMTP struct {
	Host string
	Port string
	User string
	Pass string

	// send is swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(host, port, user, pass string) *SMTP {
	return &SMTP{Host: host, Port: port, User: user, Pass: pass, send: smtp.SendMail}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if s.User == "" || s.Pass == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, msg.Name, msg.Email, msg.Body)

	raw := []byte("To: " + msg.To + "\r\n" +
		"Subject: " + msg.subject() + "\r\n" +
		"From: " + s.User + "\r\n" +
		"Reply-To: " + msg.Email + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", s.User, s.Pass, s.Host)
	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(net.JoinHostPort(s.Host, s.Port), auth, s.User, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
