package http

import (
	"errors"
	"net/http"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/nidohq/nido/internal/api/service"
	"github.com/nidohq/nido/internal/api/store"
	"github.com/nidohq/nido/pkg/httpx"
	"github.com/nidohq/nido/pkg/nidosdk"
	"github.com/nidohq/nido/pkg/slogx"
)

const minPasswordLength = 8

type SignUpHandler struct {
	AuthService *service.AuthService
}

func (h *SignUpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req nidosdk.SignUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		nidosdk.ErrValidation.WriteError(w)
		return
	}

	switch {
	case req.Username == "":
		nidosdk.ErrValidation.WithField("username").WriteError(w)
		return
	case !validEmail(req.Email):
		nidosdk.ErrValidation.WithField("email").WriteError(w)
		return
	case utf8.RuneCountInString(req.Password) < minPasswordLength:
		nidosdk.ErrValidation.WithField("password").WriteError(w)
		return
	}

	_, err := h.AuthService.SignUp(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			nidosdk.ErrValidation.WithField(dup.Field).WriteError(w)
			return
		}
		log.Error("sign up failed", "err", err)
		nidosdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, nidosdk.MessageResponse{
		Status:  "ok",
		Message: "account created",
	})
}

type SignInHandler struct {
	AuthService  *service.AuthService
	SessionTTL   time.Duration
	SecureCookie bool
}

func (h *SignInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req nidosdk.SignInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		nidosdk.ErrValidation.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		nidosdk.ErrValidation.WriteError(w)
		return
	}

	u, token, err := h.AuthService.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		// Disabled accounts are reported as bad credentials too, so the
		// response stays uniform across all rejection reasons.
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrAccountDisabled) {
			nidosdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		log.Error("sign in failed", "err", err)
		nidosdk.ErrServerError.WriteError(w)
		return
	}

	httpx.SetSessionCookie(w, token, h.SessionTTL, h.SecureCookie)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, nidosdk.AuthResponse{
		Status: "ok",
		Token:  token,
		User:   userView(u),
	})
}

type GoogleSignInHandler struct {
	AuthService  *service.AuthService
	SessionTTL   time.Duration
	SecureCookie bool
}

func (h *GoogleSignInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req nidosdk.GoogleSignInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		nidosdk.ErrValidation.WriteError(w)
		return
	}
	if !validEmail(req.Email) {
		nidosdk.ErrValidation.WithField("email").WriteError(w)
		return
	}

	u, token, created, err := h.AuthService.SignInWithGoogle(ctx, req.Email, req.Name, req.GoogleID, req.Avatar)
	if err != nil {
		if errors.Is(err, service.ErrAccountDisabled) {
			nidosdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		log.Error("google sign in failed", "err", err)
		nidosdk.ErrServerError.WriteError(w)
		return
	}

	// 201 when the provider identity minted a fresh account, 200 on a
	// returning sign-in.
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	httpx.SetSessionCookie(w, token, h.SessionTTL, h.SecureCookie)
	httpx.NoCache(w)
	httpx.WriteJSON(w, status, nidosdk.AuthResponse{
		Status: "ok",
		Token:  token,
		User:   userView(u),
	})
}

type SignOutHandler struct {
	SecureCookie bool
}

// ServeHTTP clears the session cookie. Tokens are stateless, so there is
// nothing to revoke server-side.
func (h *SignOutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.ClearSessionCookie(w, h.SecureCookie)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, nidosdk.MessageResponse{
		Status:  "ok",
		Message: "signed out",
	})
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
