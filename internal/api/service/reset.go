package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nidohq/nido/internal/api/store"
	"github.com/nidohq/nido/pkg/cryptox"
	"github.com/nidohq/nido/pkg/jwtx"
	"github.com/nidohq/nido/pkg/mailx"
	"github.com/nidohq/nido/pkg/slogx"
)

var (
	// ErrEmailNotFound is returned by the recovery flows when no account has
	// the given address. Unlike sign-in, recovery names unknown addresses.
	ErrEmailNotFound = errors.New("email_not_found")

	// ErrInvalidOrExpired covers a bad reset token or a wrong, expired or
	// already-consumed recovery code.
	ErrInvalidOrExpired = errors.New("invalid_or_expired")

	// ErrMailSendFailed is returned when the recovery mail could not be
	// handed to the mail transport.
	ErrMailSendFailed = errors.New("mail_send_failed")
)

// OTPTTL bounds emailed recovery codes.
const OTPTTL = 10 * time.Minute

type ResetService struct {
	Store  store.Store
	Signer *jwtx.Signer
	Mailer mailx.Mailer

	// FrontendOrigin is the base URL reset links point at.
	FrontendOrigin string
	// MailFrom is the sender address on recovery mail.
	MailFrom string
}

// RequestReset emails a time-limited reset link for the account.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEmailNotFound
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return err
	}

	// Reset tokens are identity-only: no role, shorter TTL. They are not
	// accepted as session tokens by the guard because they never reach it
	// via the cookie.
	token, err := s.Signer.Issue(u.ID, "", jwtx.DefaultResetTTL)
	if err != nil {
		log.Error("failed to issue reset token", slog.Any("error", err))
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimSuffix(s.FrontendOrigin, "/"), url.QueryEscape(token))
	msg := mailx.Message{
		From:    s.MailFrom,
		To:      u.Email,
		Subject: "Reset your password",
		Text: fmt.Sprintf(
			"Hi %s,\n\nFollow this link to choose a new password:\n\n%s\n\nThe link expires in 1 hour. If you didn't ask for this, you can ignore this email.\n",
			u.Username, link,
		),
	}
	if err := s.Mailer.Send(msg); err != nil {
		log.Error("failed to send reset mail", slog.Any("error", err))
		return ErrMailSendFailed
	}

	log.Info("reset link issued", slog.String("user_id", u.ID))
	return nil
}

// CompleteReset verifies a reset-link token and sets the new password.
func (s *ResetService) CompleteReset(ctx context.Context, token, newPassword string) error {
	log := slogx.FromContext(ctx)

	identity, err := s.Signer.Verify(token)
	if err != nil {
		log.Warn("reset token rejected", slog.Any("error", err))
		return ErrInvalidOrExpired
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, identity.ID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpired
		}
		log.Error("failed to update password", slog.Any("error", err))
		return err
	}

	log.Info("password reset via link", slog.String("user_id", identity.ID))
	return nil
}

// RequestOTP emails a 6-digit recovery code and records its fingerprint on
// the account. The mail is sent before the fingerprint is persisted: a code
// that never reached the user must not invalidate anything, and a persisted
// code that never reached the user would be dead weight.
func (s *ResetService) RequestOTP(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEmailNotFound
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return err
	}

	code, err := cryptox.GenerateRecoveryCode()
	if err != nil {
		log.Error("failed to generate recovery code", slog.Any("error", err))
		return err
	}

	msg := mailx.Message{
		From:    s.MailFrom,
		To:      u.Email,
		Subject: "Your password recovery code",
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour recovery code is:\n\n    %s\n\nIt expires in 10 minutes and can be used once. If you didn't ask for this, you can ignore this email.\n",
			u.Username, code,
		),
	}
	if err := s.Mailer.Send(msg); err != nil {
		log.Error("failed to send recovery code mail", slog.Any("error", err))
		return ErrMailSendFailed
	}

	expiry := time.Now().UTC().Add(OTPTTL)
	if err := s.Store.Users().SetResetOTP(ctx, u.ID, cryptox.FingerprintToken(code), expiry); err != nil {
		log.Error("failed to store recovery code", slog.Any("error", err))
		return err
	}

	log.Info("recovery code issued", slog.String("user_id", u.ID))
	return nil
}

// CompleteOTPReset redeems a recovery code and sets the new password. The
// store consumes the code atomically, so a second redemption of the same
// code fails even under concurrent requests.
func (s *ResetService) CompleteOTPReset(ctx context.Context, email, code, newPassword string) error {
	log := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	err = s.Store.Users().UpdatePasswordByOTP(ctx, email, cryptox.FingerprintToken(code), hash, time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("recovery code rejected", slog.String("email", email))
			return ErrInvalidOrExpired
		}
		log.Error("failed to redeem recovery code", slog.Any("error", err))
		return err
	}

	log.Info("password reset via recovery code", slog.String("email", email))
	return nil
}
