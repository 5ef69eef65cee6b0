package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/nidohq/nido/internal/api/domain"
	"github.com/nidohq/nido/internal/api/store"
	"github.com/nidohq/nido/pkg/cryptox"
	"github.com/nidohq/nido/pkg/slogx"
)

type UserService struct {
	Store store.Store
}

// GetByID fetches a user by id.
func (s *UserService) GetByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetByID(ctx, userID)
}

// UpdateProfile mutates the caller's own profile. A non-empty password is
// re-hashed; empty fields are left unchanged.
func (s *UserService) UpdateProfile(ctx context.Context, userID, username, email, avatar, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	patch := domain.UserPatch{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Avatar:   avatar,
	}
	if password != "" {
		hash, err := cryptox.HashPassword(password)
		if err != nil {
			log.Error("failed to hash password", slog.Any("error", err))
			return domain.User{}, err
		}
		patch.PasswordHash = hash
	}

	u, err := s.Store.Users().UpdateProfile(ctx, userID, patch)
	if err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			log.Warn("profile update rejected on duplicate field", slog.String("field", dup.Field))
			return domain.User{}, err
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to update profile", slog.Any("error", err))
		}
		return domain.User{}, err
	}

	log.Info("profile updated", slog.String("user_id", userID))
	return u, nil
}
