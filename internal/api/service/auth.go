package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nidohq/nido/internal/api/domain"
	"github.com/nidohq/nido/internal/api/store"
	"github.com/nidohq/nido/pkg/cryptox"
	"github.com/nidohq/nido/pkg/idx"
	"github.com/nidohq/nido/pkg/jwtx"
	"github.com/nidohq/nido/pkg/slogx"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to probe which addresses are registered.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrAccountDisabled = errors.New("account_disabled")
)

type AuthService struct {
	Store  store.Store
	Signer *jwtx.Signer

	// SessionTTL bounds issued session tokens. Zero means the default.
	SessionTTL time.Duration
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return jwtx.DefaultSessionTTL
}

// SignUp registers a local account. Unique collisions surface as
// *store.DuplicateError so the handler can name the field.
func (s *AuthService) SignUp(ctx context.Context, username, email, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Avatar:       defaultAvatar(),
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().Create(ctx, u); err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			log.Warn("sign up rejected on duplicate field", slog.String("field", dup.Field))
			return domain.User{}, err
		}
		log.Error("failed to create user", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("user registered", slog.String("user_id", u.ID))
	return u, nil
}

// SignIn validates credentials and mints a session token. Unknown email and
// wrong password both return ErrInvalidCredentials; the two paths differ in
// cost only.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (domain.User, string, error) {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, "", ErrInvalidCredentials
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, "", err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Warn("sign in rejected", slog.String("user_id", u.ID))
			return domain.User{}, "", ErrInvalidCredentials
		}
		log.Error("failed to verify password", slog.Any("error", err))
		return domain.User{}, "", err
	}

	if !u.Active {
		return domain.User{}, "", ErrAccountDisabled
	}

	token, err := s.Signer.Issue(u.ID, u.Role, s.sessionTTL())
	if err != nil {
		log.Error("failed to issue session token", slog.Any("error", err))
		return domain.User{}, "", err
	}

	log.Info("user signed in", slog.String("user_id", u.ID))
	return u, token, nil
}

// SignInWithGoogle signs in with an externally-verified provider identity.
// A known email links implicitly to the existing account; an unknown one
// creates an account with a random password so the local sign-in path stays
// usable after a later reset. The bool reports whether an account was
// created by this call.
func (s *AuthService) SignInWithGoogle(ctx context.Context, email, name, googleID, avatar string) (domain.User, string, bool, error) {
	log := slogx.FromContext(ctx)

	created := false
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Store.Users().GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.GoogleID == "" {
			// Implicit link: possession of the mailbox was already proven
			// by the provider.
			log.Warn("linking google identity to existing account",
				slog.String("user_id", u.ID),
			)
		}
		if !u.Active {
			return domain.User{}, "", false, ErrAccountDisabled
		}

	case errors.Is(err, store.ErrNotFound):
		u, err = s.createGoogleUser(ctx, email, name, googleID, avatar)
		if err != nil {
			return domain.User{}, "", false, err
		}
		created = true

	default:
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, "", false, err
	}

	token, err := s.Signer.Issue(u.ID, u.Role, s.sessionTTL())
	if err != nil {
		log.Error("failed to issue session token", slog.Any("error", err))
		return domain.User{}, "", false, err
	}

	log.Info("user signed in via google",
		slog.String("user_id", u.ID),
		slog.Bool("created", created),
	)
	return u, token, created, nil
}

func (s *AuthService) createGoogleUser(ctx context.Context, email, name, googleID, avatar string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	password, err := cryptox.GeneratePassword()
	if err != nil {
		log.Error("failed to generate password", slog.Any("error", err))
		return domain.User{}, err
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	if avatar == "" {
		avatar = defaultAvatar()
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     usernameFromName(name),
		Email:        email,
		PasswordHash: hash,
		Avatar:       avatar,
		Role:         domain.RoleUser,
		GoogleID:     googleID,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().Create(ctx, u); err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) && dup.Field == "username" {
			// Display names collide freely; retry once with a random suffix.
			u.Username = usernameFromName(name) + idx.New().String()[20:]
			if err := s.Store.Users().Create(ctx, u); err != nil {
				log.Error("failed to create google user", slog.Any("error", err))
				return domain.User{}, err
			}
			return u, nil
		}
		log.Error("failed to create google user", slog.Any("error", err))
		return domain.User{}, err
	}
	return u, nil
}

// defaultAvatar returns a randomly seeded placeholder image URL for accounts
// created without one.
func defaultAvatar() string {
	return "https://api.dicebear.com/7.x/pixel-art/svg?seed=" + strings.ToLower(idx.New().String())
}

// usernameFromName derives a username from a provider display name.
func usernameFromName(name string) string {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
	if n == "" {
		return "user" + idx.New().String()[20:]
	}
	return n
}
