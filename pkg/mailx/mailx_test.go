package mailx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMIMEPlainText(t *testing.T) {
	t.Parallel()

	raw := string(BuildMIME(Message{
		From:    "no-reply@nido.example",
		To:      "alice@example.com",
		Subject: "Your recovery code",
		Text:    "Your code is 123456",
	}))

	require.Contains(t, raw, "From: no-reply@nido.example\r\n")
	require.Contains(t, raw, "To: alice@example.com\r\n")
	require.Contains(t, raw, "Subject: Your recovery code\r\n")
	require.Contains(t, raw, `text/plain; charset="utf-8"`)
	require.Contains(t, raw, "Your code is 123456")
}

func TestBuildMIMEPrefersHTML(t *testing.T) {
	t.Parallel()

	raw := string(BuildMIME(Message{
		From:    "no-reply@nido.example",
		To:      "alice@example.com",
		Subject: "Reset your password",
		Text:    "plain fallback",
		HTML:    "<a href=\"https://nido.example/reset-password?token=x\">Reset</a>",
	}))

	require.Contains(t, raw, `text/html; charset="utf-8"`)
	require.Contains(t, raw, "reset-password?token=x")
	require.NotContains(t, raw, "plain fallback")
}

func TestSMTPMailerRequiresConfig(t *testing.T) {
	t.Parallel()

	m := &SMTPMailer{}
	require.Error(t, m.Send(Message{To: "alice@example.com"}))
}
