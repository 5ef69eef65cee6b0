package domain

import "time"

// Roles. Admin carries no ownership bypass anywhere; it only gates
// moderation surfaces.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2 encoded
	Avatar       string
	Role         string

	// GoogleID links a Google identity to this account. Empty for
	// password-only accounts.
	GoogleID string

	// ResetOTPHash is the fingerprint of the outstanding recovery code,
	// empty when none is pending. The raw code is never stored.
	ResetOTPHash      string
	ResetOTPExpiresAt *time.Time

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserPatch carries optional profile mutations. Empty strings mean "leave
// unchanged".
type UserPatch struct {
	Username     string
	Email        string
	Avatar       string
	PasswordHash string
}

// HasPendingOTP reports whether a recovery code is outstanding and unexpired.
func (u User) HasPendingOTP(now time.Time) bool {
	return u.ResetOTPHash != "" && u.ResetOTPExpiresAt != nil && now.Before(*u.ResetOTPExpiresAt)
}
