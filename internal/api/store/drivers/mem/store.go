// Package mem is an in-memory store driver. It backs unit and handler tests
// and can run the server without a database via NIDO_STORE=mem.
package mem

import (
	"context"
	"sync"

	"github.com/nidohq/nido/internal/api/domain"
	"github.com/nidohq/nido/internal/api/store"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]domain.User    // by id
	listings map[string]domain.Listing // by id
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]domain.User),
		listings: make(map[string]domain.Listing),
	}
}

func (s *Store) Users() store.Users       { return &usersRepo{s: s} }
func (s *Store) Listings() store.Listings { return &listingsRepo{s: s} }

func (s *Store) EnsureIndexes(context.Context) error { return nil }
func (s *Store) Close(context.Context) error         { return nil }
func (s *Store) Ping(context.Context) error          { return nil }
