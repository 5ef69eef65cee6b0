package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")

	// ErrNoSecret reports a missing signing secret. This is a configuration
	// fault: callers should treat it as fatal at startup, not at request time.
	ErrNoSecret = errors.New("jwtx: signing secret not configured")
)

// Verifier validates a token string and yields the identity it proves.
// Middleware and tests depend on this rather than the concrete Signer.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// Signer issues and verifies HS256 tokens with a single process-wide secret.
// Verification is stateless and CPU-bound; a Signer is safe for concurrent
// use by any number of requests.
type Signer struct {
	secret []byte
	issuer string
}

// NewSigner builds a Signer. An empty secret is refused so a misconfigured
// process cannot mint unsigned-in-effect tokens.
func NewSigner(secret []byte, issuer string) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	return &Signer{secret: secret, issuer: issuer}, nil
}

// Issue signs claims for subject with the given role and ttl.
func (s *Signer) Issue(subject, role string, ttl time.Duration) (string, error) {
	return s.Sign(NewClaims(subject, role, ttl, s.issuer, time.Now().UTC()))
}

// Sign produces the compact serialized token for claims.
func (s *Signer) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// Verify decodes and checks signature and expiry, classifying failures into
// ErrMalformed / ErrAlgMismatch / ErrInvalidSig / ErrExpired. It never
// panics on attacker-supplied garbage.
func (s *Signer) Verify(token string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return Identity{}, classifyParseError(err)
	}

	if err := claims.validateExpiry(time.Now().UTC()); err != nil {
		return Identity{}, err
	}

	return claims.Identity(), nil
}

// classifyParseError maps golang-jwt parse failures onto our sentinel set so
// callers can branch with errors.Is instead of string matching.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, ErrAlgMismatch):
		return ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}
