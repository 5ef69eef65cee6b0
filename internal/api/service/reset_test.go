package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nidohq/nido/internal/api/store/drivers/mem"
	"github.com/nidohq/nido/pkg/mailx"
)

// captureMailer records outgoing mail; failSend makes Send error.
type captureMailer struct {
	sent     []mailx.Message
	failSend bool
}

func (m *captureMailer) Send(msg mailx.Message) error {
	if m.failSend {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, msg)
	return nil
}

var (
	codeRe = regexp.MustCompile(`\b(\d{6})\b`)
	linkRe = regexp.MustCompile(`https?://\S+/reset-password\?token=([^\s&]+)`)
)

func newResetFixture(t *testing.T) (*ResetService, *AuthService, *captureMailer) {
	t.Helper()
	st := mem.NewStore()
	signer := newSigner(t)
	mailer := &captureMailer{}
	reset := &ResetService{
		Store:          st,
		Signer:         signer,
		Mailer:         mailer,
		FrontendOrigin: "https://nido.example",
		MailFrom:       "no-reply@nido.example",
	}
	auth := &AuthService{Store: st, Signer: signer}
	return reset, auth, mailer
}

func TestResetService_LinkFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reset, auth, mailer := newResetFixture(t)

	_, err := auth.SignUp(ctx, "erin", "erin@example.com", "old-password-1")
	require.NoError(t, err)

	t.Run("unknown email is named", func(t *testing.T) {
		err := reset.RequestReset(ctx, "nobody@example.com")
		require.ErrorIs(t, err, ErrEmailNotFound)
		require.Empty(t, mailer.sent)
	})

	require.NoError(t, reset.RequestReset(ctx, "erin@example.com"))
	require.Len(t, mailer.sent, 1)
	require.Equal(t, "erin@example.com", mailer.sent[0].To)

	m := linkRe.FindStringSubmatch(mailer.sent[0].Text)
	require.NotNil(t, m, "mail carries a reset link")
	token := m[1]

	t.Run("token sets the new password", func(t *testing.T) {
		require.NoError(t, reset.CompleteReset(ctx, token, "new-password-1"))
		_, _, err := auth.SignIn(ctx, "erin@example.com", "new-password-1")
		require.NoError(t, err)
		_, _, err = auth.SignIn(ctx, "erin@example.com", "old-password-1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("token stays redeemable until it expires", func(t *testing.T) {
		// Link tokens are stateless; nothing records redemption.
		require.NoError(t, reset.CompleteReset(ctx, token, "new-password-2"))
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		err := reset.CompleteReset(ctx, "not-a-token", "whatever-password")
		require.ErrorIs(t, err, ErrInvalidOrExpired)
	})
}

func TestResetService_OTPFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reset, auth, mailer := newResetFixture(t)

	_, err := auth.SignUp(ctx, "frank", "frank@example.com", "old-password-1")
	require.NoError(t, err)

	require.NoError(t, reset.RequestOTP(ctx, "frank@example.com"))
	require.Len(t, mailer.sent, 1)

	m := codeRe.FindStringSubmatch(mailer.sent[0].Text)
	require.NotNil(t, m, "mail carries a 6-digit code")
	code := m[1]

	t.Run("wrong code leaves the pending one intact", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		err := reset.CompleteOTPReset(ctx, "frank@example.com", wrong, "new-password-1")
		require.ErrorIs(t, err, ErrInvalidOrExpired)
	})

	t.Run("correct code resets the password once", func(t *testing.T) {
		require.NoError(t, reset.CompleteOTPReset(ctx, "frank@example.com", code, "new-password-1"))
		_, _, err := auth.SignIn(ctx, "frank@example.com", "new-password-1")
		require.NoError(t, err)

		// Consumed: a second redemption fails even with the right code.
		err = reset.CompleteOTPReset(ctx, "frank@example.com", code, "new-password-2")
		require.ErrorIs(t, err, ErrInvalidOrExpired)
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		require.NoError(t, reset.RequestOTP(ctx, "frank@example.com"))
		last := mailer.sent[len(mailer.sent)-1]
		code := codeRe.FindStringSubmatch(last.Text)[1]

		// Backdate the stored expiry past the cutoff.
		u, err := reset.Store.Users().GetByEmail(ctx, "frank@example.com")
		require.NoError(t, err)
		err = reset.Store.Users().SetResetOTP(ctx, u.ID, u.ResetOTPHash, time.Now().Add(-time.Second))
		require.NoError(t, err)

		err = reset.CompleteOTPReset(ctx, "frank@example.com", code, "new-password-3")
		require.ErrorIs(t, err, ErrInvalidOrExpired)
	})

	t.Run("a new request replaces the old code", func(t *testing.T) {
		require.NoError(t, reset.RequestOTP(ctx, "frank@example.com"))
		first := codeRe.FindStringSubmatch(mailer.sent[len(mailer.sent)-1].Text)[1]
		require.NoError(t, reset.RequestOTP(ctx, "frank@example.com"))
		second := codeRe.FindStringSubmatch(mailer.sent[len(mailer.sent)-1].Text)[1]

		err := reset.CompleteOTPReset(ctx, "frank@example.com", first, "new-password-4")
		if first != second {
			require.ErrorIs(t, err, ErrInvalidOrExpired)
		}
		require.NoError(t, reset.CompleteOTPReset(ctx, "frank@example.com", second, "new-password-5"))
	})
}

func TestResetService_MailFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reset, auth, mailer := newResetFixture(t)
	mailer.failSend = true

	_, err := auth.SignUp(ctx, "grace", "grace@example.com", "old-password-1")
	require.NoError(t, err)

	err = reset.RequestOTP(ctx, "grace@example.com")
	require.ErrorIs(t, err, ErrMailSendFailed)

	// Mail-first ordering: nothing was persisted for the failed send.
	u, err := reset.Store.Users().GetByEmail(ctx, "grace@example.com")
	require.NoError(t, err)
	require.Empty(t, u.ResetOTPHash)
	require.False(t, u.HasPendingOTP(time.Now()))

	err = reset.RequestReset(ctx, "grace@example.com")
	require.ErrorIs(t, err, ErrMailSendFailed)
}

func TestResetService_OTPUnknownEmail(t *testing.T) {
	t.Parallel()

	reset, _, _ := newResetFixture(t)
	err := reset.RequestOTP(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrEmailNotFound)
}
