package http

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/nidohq/nido/internal/api/service"
	"github.com/nidohq/nido/internal/api/store"
	"github.com/nidohq/nido/pkg/httpx"
	"github.com/nidohq/nido/pkg/nidosdk"
	"github.com/nidohq/nido/pkg/slogx"
)

type MeHandler struct {
	UserService *service.UserService
}

func (h *MeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		nidosdk.ErrUnauthorized.WriteError(w)
		return
	}

	u, err := h.UserService.GetByID(ctx, identity.ID)
	if err != nil {
		// A valid token for a since-deleted account.
		if errors.Is(err, store.ErrNotFound) {
			nidosdk.ErrForbidden.WriteError(w)
			return
		}
		log.Error("failed to load user", "err", err)
		nidosdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, struct {
		Status string           `json:"status"`
		User   nidosdk.UserView `json:"user"`
	}{"ok", userView(u)})
}

func (h *MeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		nidosdk.ErrUnauthorized.WriteError(w)
		return
	}

	var req nidosdk.UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		nidosdk.ErrValidation.WriteError(w)
		return
	}
	if req.Email != "" && !validEmail(req.Email) {
		nidosdk.ErrValidation.WithField("email").WriteError(w)
		return
	}
	if req.Password != "" && utf8.RuneCountInString(req.Password) < minPasswordLength {
		nidosdk.ErrValidation.WithField("password").WriteError(w)
		return
	}

	u, err := h.UserService.UpdateProfile(ctx, identity.ID, req.Username, req.Email, req.Avatar, req.Password)
	if err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			nidosdk.ErrValidation.WithField(dup.Field).WriteError(w)
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			nidosdk.ErrForbidden.WriteError(w)
			return
		}
		log.Error("profile update failed", "err", err)
		nidosdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, struct {
		Status string           `json:"status"`
		User   nidosdk.UserView `json:"user"`
	}{"ok", userView(u)})
}
