package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nidohq/nido/internal/api/domain"
	"github.com/nidohq/nido/internal/api/store"
	"github.com/nidohq/nido/pkg/idx"
	"github.com/nidohq/nido/pkg/jwtx"
	"github.com/nidohq/nido/pkg/slogx"
)

var (
	ErrListingNotFound = errors.New("listing_not_found")

	// ErrNotOwner is returned when the caller's id does not exactly match
	// the listing's owner reference. There is no admin bypass.
	ErrNotOwner = errors.New("not_owner")

	ErrInvalidListing = errors.New("invalid_listing")
)

type ListingService struct {
	Store store.Store
}

// validate checks the business invariants of a listing payload.
func validate(l domain.Listing) error {
	if l.Name == "" || l.Address == "" {
		return ErrInvalidListing
	}
	if l.Type != domain.ListingTypeRent && l.Type != domain.ListingTypeSale {
		return ErrInvalidListing
	}
	if l.RegularPrice < 0 || l.DiscountPrice < 0 {
		return ErrInvalidListing
	}
	if l.Offer && l.DiscountPrice >= l.RegularPrice {
		return ErrInvalidListing
	}
	return nil
}

// Create stores a new listing owned by the caller. The owner's contact email
// is copied onto the listing at creation time.
func (s *ListingService) Create(ctx context.Context, owner jwtx.Identity, l domain.Listing) (domain.Listing, error) {
	log := slogx.FromContext(ctx)

	if err := validate(l); err != nil {
		return domain.Listing{}, err
	}

	u, err := s.Store.Users().GetByID(ctx, owner.ID)
	if err != nil {
		log.Error("failed to fetch owner", slog.Any("error", err))
		return domain.Listing{}, err
	}

	now := time.Now().UTC()
	l.ID = idx.New().String()
	l.OwnerRef = u.ID
	l.ContactEmail = u.Email
	l.CreatedAt = now
	l.UpdatedAt = now

	if err := s.Store.Listings().Create(ctx, l); err != nil {
		log.Error("failed to create listing", slog.Any("error", err))
		return domain.Listing{}, err
	}

	log.Info("listing created",
		slog.String("listing_id", l.ID),
		slog.String("owner_ref", l.OwnerRef),
	)
	return l, nil
}

// Get returns a single listing.
func (s *ListingService) Get(ctx context.Context, id string) (domain.Listing, error) {
	l, err := s.Store.Listings().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Listing{}, ErrListingNotFound
	}
	return l, err
}

// List returns listings matching the filter plus the total match count.
func (s *ListingService) List(ctx context.Context, f store.ListingFilter) ([]domain.Listing, int64, error) {
	return s.Store.Listings().List(ctx, f)
}

// ensureOwner loads the listing and compares owner against the caller. The
// comparison is an exact string match on the identity's subject; role is
// never consulted.
func (s *ListingService) ensureOwner(ctx context.Context, caller jwtx.Identity, listingID string) (domain.Listing, error) {
	l, err := s.Store.Listings().GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Listing{}, ErrListingNotFound
		}
		return domain.Listing{}, err
	}
	if l.OwnerRef != caller.ID {
		return domain.Listing{}, ErrNotOwner
	}
	return l, nil
}

// Update replaces the mutable fields of a listing the caller owns.
func (s *ListingService) Update(ctx context.Context, caller jwtx.Identity, id string, in domain.Listing) (domain.Listing, error) {
	log := slogx.FromContext(ctx)

	cur, err := s.ensureOwner(ctx, caller, id)
	if err != nil {
		if errors.Is(err, ErrNotOwner) {
			log.Warn("listing update rejected",
				slog.String("listing_id", id),
				slog.String("caller_id", caller.ID),
			)
		}
		return domain.Listing{}, err
	}

	if err := validate(in); err != nil {
		return domain.Listing{}, err
	}

	in.ID = cur.ID
	in.OwnerRef = cur.OwnerRef
	in.ContactEmail = cur.ContactEmail
	in.CreatedAt = cur.CreatedAt
	in.UpdatedAt = time.Now().UTC()

	if err := s.Store.Listings().Update(ctx, in); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Listing{}, ErrListingNotFound
		}
		log.Error("failed to update listing", slog.Any("error", err))
		return domain.Listing{}, err
	}

	log.Info("listing updated", slog.String("listing_id", in.ID))
	return in, nil
}

// Delete removes a listing the caller owns.
func (s *ListingService) Delete(ctx context.Context, caller jwtx.Identity, id string) error {
	log := slogx.FromContext(ctx)

	if _, err := s.ensureOwner(ctx, caller, id); err != nil {
		if errors.Is(err, ErrNotOwner) {
			log.Warn("listing delete rejected",
				slog.String("listing_id", id),
				slog.String("caller_id", caller.ID),
			)
		}
		return err
	}

	if err := s.Store.Listings().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrListingNotFound
		}
		log.Error("failed to delete listing", slog.Any("error", err))
		return err
	}

	log.Info("listing deleted", slog.String("listing_id", id))
	return nil
}
