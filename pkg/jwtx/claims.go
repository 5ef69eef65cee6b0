package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants.
const (
	// DefaultSessionTTL is the default lifetime for session tokens. It also
	// bounds the session cookie MaxAge, so keep the two in sync via config.
	DefaultSessionTTL = 7 * 24 * time.Hour

	// DefaultResetTTL is the lifetime of a password-reset link token.
	DefaultResetTTL = time.Hour
)

// Claims are the token claims used across the service. The custom payload is
// deliberately tiny: subject carries the account id, Role the account role.
// Reset-link tokens are issued with an empty Role.
type Claims struct {
	jwt.RegisteredClaims

	// Role tag for the account ("user", "admin"). Ownership checks never
	// consult it; it exists for display and coarse routing.
	Role string `json:"role,omitempty"`
}

// NewClaims builds minimally-correct claims for a subject.
func NewClaims(subject, role string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role: role,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// Identity is the single decoded-token shape handed to the rest of the
// system. It is produced exactly once, at verification time, so downstream
// code never deals with raw or ambiguous claim maps.
type Identity struct {
	ID   string
	Role string
}

// Identity collapses verified claims into the canonical identity struct.
func (c Claims) Identity() Identity {
	return Identity{ID: c.Subject, Role: c.Role}
}

// validateExpiry ensures the token hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) validateExpiry(now time.Time) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
