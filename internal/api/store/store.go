package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nidohq/nido/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// DuplicateError reports which unique field collided on insert, so handlers
// can surface a per-field validation message. It unwraps to ErrAlreadyExists.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("store: duplicate %s", e.Field)
}

func (e *DuplicateError) Unwrap() error { return ErrAlreadyExists }

// Store is the root data access interface. Concrete drivers (mongo, mem)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable. Multi-step writes that must be atomic (OTP consumption) are
// expressed as single repository operations rather than a Tx surface, since
// every such write touches exactly one document.
type Store interface {
	Users() Users
	Listings() Listings

	// EnsureIndexes creates unique indexes (email, username, google_id).
	// Idempotent; run at startup.
	EnsureIndexes(ctx context.Context) error

	// Close releases any underlying resources.
	Close(ctx context.Context) error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetByID returns a user by id.
	GetByID(ctx context.Context, id string) (domain.User, error)

	// GetByEmail is used during sign-in and recovery flows.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// Create inserts a new user (id is provided by app via ULID).
	// Unique collisions on email or username return *DuplicateError.
	Create(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// SetResetOTP records the fingerprint of an outstanding recovery code
	// together with its expiry, replacing any previous one.
	SetResetOTP(ctx context.Context, userID string, fingerprint string, expiresAt time.Time) error

	// UpdatePasswordByOTP atomically consumes a pending recovery code: it
	// matches email + fingerprint + unexpired expiry, sets the new hash and
	// clears the OTP fields in one operation. Returns ErrNotFound when no
	// document matches (wrong code, expired, or already consumed).
	UpdatePasswordByOTP(ctx context.Context, email string, fingerprint string, newHash string, now time.Time) error

	// UpdateProfile mutates username, email, avatar and password hash.
	// Empty fields are left untouched. Unique collisions return
	// *DuplicateError.
	UpdateProfile(ctx context.Context, userID string, patch domain.UserPatch) (domain.User, error)

	// Count returns the number of users, for readiness reporting.
	Count(ctx context.Context) (int64, error)
}

// ListingFilter narrows List. Zero values mean "don't care".
type ListingFilter struct {
	Type      string
	Offer     *bool
	Furnished *bool
	Parking   *bool
	MinPrice  float64
	MaxPrice  float64
	Search    string
	OwnerRef  string
	Limit     int
	Offset    int
}

type Listings interface {
	// Create inserts a listing (id provided by app via ULID).
	Create(ctx context.Context, l domain.Listing) error

	// GetByID returns a listing by id.
	GetByID(ctx context.Context, id string) (domain.Listing, error)

	// List returns listings matching the filter, newest first, plus the
	// total match count before limit/offset.
	List(ctx context.Context, f ListingFilter) ([]domain.Listing, int64, error)

	// Update replaces the mutable fields and bumps updated_at. OwnerRef and
	// ContactEmail are immutable after creation.
	Update(ctx context.Context, l domain.Listing) error

	// Delete removes a listing by id.
	Delete(ctx context.Context, id string) error

	// Count returns the number of listings, for readiness reporting.
	Count(ctx context.Context) (int64, error)
}
