package cartstore

import (
	"context"
	"sync"

	"github.com/dukerupert/cartsync/internal/domain"
)

// MemoryStore keeps carts in process memory. Carts are copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[int64]*domain.Cart
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[int64]*domain.Cart)}
}

func (s *MemoryStore) Get(_ context.Context, customerID int64) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carts[customerID].Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, customerID int64, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart == nil {
		delete(s.carts, customerID)
		return nil
	}
	stored := cart.Clone()
	stored.CustomerID = customerID
	s.carts[customerID] = stored
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }
