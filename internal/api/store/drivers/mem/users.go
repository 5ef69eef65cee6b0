package mem

import (
	"context"
	"time"

	"github.com/nidohq/nido/internal/api/domain"
	"github.com/nidohq/nido/internal/api/store"
)

type usersRepo struct {
	s *Store
}

// duplicateOf reports the unique field u collides with against existing
// users, skipping the user with excludeID.
func (r *usersRepo) duplicateOf(u domain.User, excludeID string) string {
	for _, other := range r.s.users {
		if other.ID == excludeID {
			continue
		}
		if u.Email != "" && other.Email == u.Email {
			return "email"
		}
		if u.Username != "" && other.Username == u.Username {
			return "username"
		}
		if u.GoogleID != "" && other.GoogleID == u.GoogleID {
			return "google_id"
		}
	}
	return ""
}

func (r *usersRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (r *usersRepo) Create(_ context.Context, u domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; ok {
		return store.ErrAlreadyExists
	}
	if field := r.duplicateOf(u, u.ID); field != "" {
		return &store.DuplicateError{Field: field}
	}
	r.s.users[u.ID] = u
	return nil
}

func (r *usersRepo) UpdatePasswordHash(_ context.Context, userID string, newHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = newHash
	u.UpdatedAt = time.Now().UTC()
	r.s.users[userID] = u
	return nil
}

func (r *usersRepo) SetResetOTP(_ context.Context, userID string, fingerprint string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.ResetOTPHash = fingerprint
	u.ResetOTPExpiresAt = &expiresAt
	u.UpdatedAt = time.Now().UTC()
	r.s.users[userID] = u
	return nil
}

func (r *usersRepo) UpdatePasswordByOTP(_ context.Context, email string, fingerprint string, newHash string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.users {
		if u.Email != email {
			continue
		}
		if u.ResetOTPHash == "" || u.ResetOTPHash != fingerprint {
			return store.ErrNotFound
		}
		if u.ResetOTPExpiresAt == nil || !now.Before(*u.ResetOTPExpiresAt) {
			return store.ErrNotFound
		}
		u.PasswordHash = newHash
		u.ResetOTPHash = ""
		u.ResetOTPExpiresAt = nil
		u.UpdatedAt = now.UTC()
		r.s.users[id] = u
		return nil
	}
	return store.ErrNotFound
}

func (r *usersRepo) UpdateProfile(_ context.Context, userID string, patch domain.UserPatch) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}

	probe := domain.User{Username: patch.Username, Email: patch.Email}
	if field := r.duplicateOf(probe, userID); field != "" {
		return domain.User{}, &store.DuplicateError{Field: field}
	}

	if patch.Username != "" {
		u.Username = patch.Username
	}
	if patch.Email != "" {
		u.Email = patch.Email
	}
	if patch.Avatar != "" {
		u.Avatar = patch.Avatar
	}
	if patch.PasswordHash != "" {
		u.PasswordHash = patch.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	r.s.users[userID] = u
	return u, nil
}

func (r *usersRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}
