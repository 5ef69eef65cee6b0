package http

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/nidohq/nido/internal/api/service"
	"github.com/nidohq/nido/pkg/httpx"
	"github.com/nidohq/nido/pkg/nidosdk"
	"github.com/nidohq/nido/pkg/slogx"
)

// writeResetError maps recovery-flow service errors to wire errors.
func writeResetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmailNotFound):
		nidosdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrInvalidOrExpired):
		nidosdk.ErrInvalidOrExpired.WriteError(w)
	case errors.Is(err, service.ErrMailSendFailed):
		nidosdk.ErrMailTransport.WriteError(w)
	default:
		nidosdk.ErrServerError.WriteError(w)
	}
}

type ForgotPasswordHandler struct {
	ResetService *service.ResetService
}

func (h *ForgotPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req nidosdk.ForgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || !validEmail(req.Email) {
		nidosdk.ErrValidation.WithField("email").WriteError(w)
		return
	}

	if err := h.ResetService.RequestReset(ctx, req.Email); err != nil {
		if !errors.Is(err, service.ErrEmailNotFound) {
			log.Error("reset request failed", "err", err)
		}
		writeResetError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, nidosdk.MessageResponse{
		Status:  "ok",
		Message: "reset link sent",
	})
}

type ResetPasswordHandler struct {
	ResetService *service.ResetService
}

func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req nidosdk.ResetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		nidosdk.ErrValidation.WriteError(w)
		return
	}
	if req.Token == "" {
		nidosdk.ErrValidation.WithField("token").WriteError(w)
		return
	}
	if utf8.RuneCountInString(req.NewPassword) < minPasswordLength {
		nidosdk.ErrValidation.WithField("new_password").WriteError(w)
		return
	}

	if err := h.ResetService.CompleteReset(ctx, req.Token, req.NewPassword); err != nil {
		if !errors.Is(err, service.ErrInvalidOrExpired) {
			log.Error("reset completion failed", "err", err)
		}
		writeResetError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, nidosdk.MessageResponse{
		Status:  "ok",
		Message: "password updated",
	})
}

type RequestOTPHandler struct {
	ResetService *service.ResetService
}

func (h *RequestOTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req nidosdk.ForgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || !validEmail(req.Email) {
		nidosdk.ErrValidation.WithField("email").WriteError(w)
		return
	}

	if err := h.ResetService.RequestOTP(ctx, req.Email); err != nil {
		if !errors.Is(err, service.ErrEmailNotFound) {
			log.Error("otp request failed", "err", err)
		}
		writeResetError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, nidosdk.MessageResponse{
		Status:  "ok",
		Message: "recovery code sent",
	})
}

type ResetPasswordOTPHandler struct {
	ResetService *service.ResetService
}

func (h *ResetPasswordOTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req nidosdk.ResetPasswordOTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		nidosdk.ErrValidation.WriteError(w)
		return
	}
	if !validEmail(req.Email) {
		nidosdk.ErrValidation.WithField("email").WriteError(w)
		return
	}
	if req.OTP == "" {
		nidosdk.ErrValidation.WithField("otp").WriteError(w)
		return
	}
	if utf8.RuneCountInString(req.NewPassword) < minPasswordLength {
		nidosdk.ErrValidation.WithField("new_password").WriteError(w)
		return
	}

	if err := h.ResetService.CompleteOTPReset(ctx, req.Email, req.OTP, req.NewPassword); err != nil {
		if !errors.Is(err, service.ErrInvalidOrExpired) {
			log.Error("otp reset failed", "err", err)
		}
		writeResetError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, nidosdk.MessageResponse{
		Status:  "ok",
		Message: "password updated",
	})
}
