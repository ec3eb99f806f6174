package notify

import (
	"sync"
	"time"
)

// Registry hands out one toast queue per user. Queues are tiny and
// self-expiring, so they are never evicted explicitly.
type Registry struct {
	mu     sync.Mutex
	ttl    time.Duration
	cap    int
	stores map[int64]*Store
}

// NewRegistry builds a per-user queue registry with shared ttl/cap settings.
func NewRegistry(ttl time.Duration, capacity int) *Registry {
	return &Registry{
		ttl:    ttl,
		cap:    capacity,
		stores: make(map[int64]*Store),
	}
}

// For returns the user's queue, creating it on first use.
func (r *Registry) For(userID int64) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[userID]
	if !ok {
		store = NewStore(r.ttl, r.cap)
		r.stores[userID] = store
	}
	return store
}
