// Package mailx is the outbound mail collaborator. The SMTP transport is
// deliberately thin; callers treat any dispatch failure as recoverable and
// surface it, never crash on it.
package mailx

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Message is a single outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer dispatches messages. Implementations must return an error when the
// transport does not accept the message; callers rely on that to decide
// whether dependent state may be persisted.
type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
}

func (m *SMTPMailer) Send(msg Message) error {
	if m.Host == "" || m.Port == "" {
		return fmt.Errorf("mailx: smtp transport not configured")
	}

	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	addr := m.Host + ":" + m.Port

	if err := smtp.SendMail(addr, auth, msg.From, []string{msg.To}, BuildMIME(msg)); err != nil {
		return fmt.Errorf("mailx: send failed: %w", err)
	}
	return nil
}

// BuildMIME assembles the raw message. HTML takes precedence when both
// bodies are set.
func BuildMIME(msg Message) []byte {
	var b strings.Builder

	b.WriteString("From: " + msg.From + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")

	body := msg.Text
	contentType := `text/plain; charset="utf-8"`
	if msg.HTML != "" {
		body = msg.HTML
		contentType = `text/html; charset="utf-8"`
	}

	b.WriteString("Content-Type: " + contentType + "\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	return []byte(b.String())
}

// LogMailer logs messages instead of sending them. Used in dev when no SMTP
// relay is configured, mirroring the usual "log the OTP locally" fallback.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(msg Message) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mail dispatch (log transport)",
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
