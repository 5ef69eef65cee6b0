package mem

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/nidohq/nido/internal/api/domain"
	"github.com/nidohq/nido/internal/api/store"
)

type listingsRepo struct {
	s *Store
}

func (r *listingsRepo) Create(_ context.Context, l domain.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.listings[l.ID]; ok {
		return store.ErrAlreadyExists
	}
	r.s.listings[l.ID] = l
	return nil
}

func (r *listingsRepo) GetByID(_ context.Context, id string) (domain.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.listings[id]
	if !ok {
		return domain.Listing{}, store.ErrNotFound
	}
	return l, nil
}

func matches(l domain.Listing, f store.ListingFilter) bool {
	if f.Type != "" && l.Type != f.Type {
		return false
	}
	if f.Offer != nil && l.Offer != *f.Offer {
		return false
	}
	if f.Furnished != nil && l.Furnished != *f.Furnished {
		return false
	}
	if f.Parking != nil && l.Parking != *f.Parking {
		return false
	}
	if f.OwnerRef != "" && l.OwnerRef != f.OwnerRef {
		return false
	}
	if f.MinPrice > 0 && l.RegularPrice < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && l.RegularPrice > f.MaxPrice {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(l.Name), needle) &&
			!strings.Contains(strings.ToLower(l.Description), needle) {
			return false
		}
	}
	return true
}

func (r *listingsRepo) List(_ context.Context, f store.ListingFilter) ([]domain.Listing, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []domain.Listing
	for _, l := range r.s.listings {
		if matches(l, f) {
			all = append(all, l)
		}
	}
	// Newest first, id as tiebreaker for stable pagination.
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := int64(len(all))
	if f.Offset > 0 {
		if f.Offset >= len(all) {
			return nil, total, nil
		}
		all = all[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (r *listingsRepo) Update(_ context.Context, l domain.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.listings[l.ID]
	if !ok {
		return store.ErrNotFound
	}
	// Owner and contact email are immutable after creation.
	l.OwnerRef = cur.OwnerRef
	l.ContactEmail = cur.ContactEmail
	l.CreatedAt = cur.CreatedAt
	l.UpdatedAt = time.Now().UTC()
	r.s.listings[l.ID] = l
	return nil
}

func (r *listingsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.listings[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.s.listings, id)
	return nil
}

func (r *listingsRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.listings)), nil
}
