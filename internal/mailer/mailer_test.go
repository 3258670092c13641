package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"github.com/Tharun-Kumar-228/portfolio/internal/config"
)

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"ok", Message{Name: " Ada ", Email: "ada@example.com", Body: "hi"}, false},
		{"no name", Message{Email: "ada@example.com", Body: "hi"}, true},
		{"bad email", Message{Name: "Ada", Email: "not-an-email", Body: "hi"}, true},
		{"display name email", Message{Name: "Ada", Email: "Ada <ada@example.com>", Body: "hi"}, true},
		{"empty body", Message{Name: "Ada", Email: "ada@example.com", Body: "   "}, true},
		{"header injection", Message{Name: "Ada\r\nBcc: x@y.z", Email: "ada@example.com", Body: "hi"}, true},
		{"too long", Message{Name: "Ada", Email: "ada@example.com", Body: strings.Repeat("a", 5001)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			err := msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestMessageValidateTrims(t *testing.T) {
	msg := Message{Name: " Ada ", Email: " ada@example.com ", Body: " hi "}
	if err := msg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if msg.Name != "Ada" || msg.Email != "ada@example.com" || msg.Body != "hi" {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestEmailJSSend(t *testing.T) {
	var got emailJSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	e := NewEmailJS("service_x", "template_y", "pk")
	e.Endpoint = srv.URL
	e.Client = srv.Client()

	err := e.Send(context.Background(), Message{Name: "Ada", Email: "ada@example.com", Body: "hello", To: "me@example.com"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.ServiceID != "service_x" || got.TemplateID != "template_y" || got.UserID != "pk" {
		t.Fatalf("request = %+v", got)
	}
	if got.TemplateParams["from_name"] != "Ada" || got.TemplateParams["to_email"] != "me@example.com" {
		t.Fatalf("params = %v", got.TemplateParams)
	}
}

func TestEmailJSErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The Public Key is invalid", http.StatusBadRequest)
	}))
	defer srv.Close()

	e := NewEmailJS("s", "t", "bad")
	e.Endpoint = srv.URL
	err := e.Send(context.Background(), Message{Name: "Ada", Email: "ada@example.com", Body: "hello"})
	if err == nil || !strings.Contains(err.Error(), "Public Key") {
		t.Fatalf("err = %v", err)
	}
}

func TestSMTPSend(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	s := NewSMTP("smtp.example.com", "587", "bot@example.com", "pw")
	s.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := s.Send(context.Background(), Message{Name: "Ada", Email: "ada@example.com", Body: "hello", To: "me@example.com"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || len(gotTo) != 1 || gotTo[0] != "me@example.com" {
		t.Fatalf("addr=%s to=%v", gotAddr, gotTo)
	}
	if !strings.Contains(gotMsg, "Reply-To: ada@example.com") || !strings.Contains(gotMsg, "Subject: Portfolio Contact: Ada") {
		t.Fatalf("message = %q", gotMsg)
	}
}

func TestUnconfiguredSenders(t *testing.T) {
	senders := map[string]Sender{
		"disabled": Disabled{},
		"emailjs":  &EmailJS{},
		"smtp":     NewSMTP("smtp.example.com", "587", "", ""),
	}
	for name, s := range senders {
		if err := s.Send(context.Background(), Message{}); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("%s: err = %v, want ErrNotConfigured", name, err)
		}
	}
}

func TestFromConfig(t *testing.T) {
	var cfg config.Config
	if _, ok := FromConfig(cfg).(Disabled); !ok {
		t.Fatal("expected Disabled without credentials")
	}

	cfg.SMTP = config.SMTPConfig{Host: "smtp.example.com", Port: "587", User: "u", Pass: "p"}
	if _, ok := FromConfig(cfg).(*SMTP); !ok {
		t.Fatal("expected SMTP")
	}

	cfg.EmailJS = config.EmailJSConfig{ServiceID: "s", TemplateID: "t", PublicKey: "k"}
	if _, ok := FromConfig(cfg).(*EmailJS); !ok {
		t.Fatal("expected EmailJS to take precedence")
	}
}
