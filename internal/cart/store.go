package cart

import (
	"context"
	"sync"
	"time"

	"github.com/telemart/storefront-gateway/internal/notify"
	"github.com/telemart/storefront-gateway/internal/upstream"
	"github.com/telemart/storefront-gateway/pkg/logger"
	"github.com/telemart/storefront-gateway/pkg/metrics"
)

// Backend is the slice of the upstream client the store needs.
type Backend interface {
	GetCart(ctx context.Context) (*upstream.ServerCart, error)
	PutCart(ctx context.Context, items []upstream.LineItem) error
}

// Store is the single source of truth for one user's cart, reconciled with
// the backend. Mutations apply to in-memory state immediately; a trailing
// debounce pushes the settled item list upstream as an idempotent full
// replace. Each fired sync carries a monotonic version, and completions for
// versions older than the newest fired one are discarded, so overlapping
// syncs cannot land out of order locally.
type Store struct {
	mu sync.Mutex

	items   []upstream.LineItem
	loaded  bool
	syncing bool

	version      uint64 // bumped on every local mutation
	firedVersion uint64 // version captured by the most recent debounce fire

	timer    *time.Timer
	debounce time.Duration
	launch   string // raw launch string, re-attached to every sync context

	backend Backend
	logg    *logger.Logger
	metrics *metrics.CartSyncMetrics
	toasts  *notify.Store

	syncTimeout time.Duration
	lastActive  time.Time

	initOnce sync.Once
	initDone chan struct{}

	// syncDone, when set, is signalled after every sync completion
	// (applied or dropped). Tests use it to wait deterministically.
	syncDone chan struct{}
}

// StoreOptions wires a store's collaborators.
type StoreOptions struct {
	Backend  Backend
	Launch   string
	Debounce time.Duration
	Logger   *logger.Logger
	Metrics  *metrics.CartSyncMetrics
	Toasts   *notify.Store
}

const defaultSyncTimeout = 15 * time.Second

// NewStore builds an unloaded store. Initialize must run before the first
// debounce fire is allowed to push anything upstream.
func NewStore(opts StoreOptions) *Store {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 1500 * time.Millisecond
	}
	return &Store{
		initDone:    make(chan struct{}),
		debounce:    debounce,
		backend:     opts.Backend,
		launch:      opts.Launch,
		logg:        opts.Logger,
		metrics:     opts.Metrics,
		toasts:      opts.Toasts,
		syncTimeout: defaultSyncTimeout,
		lastActive:  time.Now(),
	}
}

// Initialize fetches the authoritative cart and replaces local state
// wholesale. Failure is non-fatal: the cart starts empty, a toast is queued,
// and browsing continues. Either way the store is marked loaded afterwards,
// which is what arms the debounced sync. The load runs exactly once;
// concurrent and repeat callers block until it has completed, so a mutation
// made through a second caller's handle cannot be wiped by the replace.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		defer close(s.initDone)
		s.loadInitial(ctx)
	})
	<-s.initDone
}

func (s *Store) loadInitial(ctx context.Context) {
	serverCart, err := s.backend.GetCart(upstream.WithLaunchData(ctx, s.launch))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "cart initialize failed", err)
		}
		if s.toasts != nil {
			s.toasts.Notify("Could not load your cart.", notify.KindError)
		}
		s.items = nil
		s.loaded = true
		return
	}

	s.items = append([]upstream.LineItem(nil), serverCart.Items...)
	s.loaded = true
	if s.toasts != nil {
		for _, msg := range serverCart.Messages {
			s.toasts.Notify(msg, notify.KindInfo)
		}
	}
}

// AddItem merges a line into the cart: an existing product gets its quantity
// summed, a new product is appended.
func (s *Store) AddItem(item upstream.LineItem) {
	if item.Quantity <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			s.items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}
	s.mutatedLocked()
}

// UpdateQuantity sets a line's quantity directly; zero or negative removes
// the line.
func (s *Store) UpdateQuantity(productID, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(productID)
	} else {
		for i := range s.items {
			if s.items[i].ProductID == productID {
				s.items[i].Quantity = quantity
				break
			}
		}
	}
	s.mutatedLocked()
}

// RemoveItem drops a line entirely.
func (s *Store) RemoveItem(productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(productID)
	s.mutatedLocked()
}

// Clear empties the cart, used after checkout. The empty list still syncs so
// the backend copy is cleared too.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.mutatedLocked()
}

// Items returns a copy of the current line items.
func (s *Store) Items() []upstream.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]upstream.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Loaded reports whether the initial server fetch has completed.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Syncing reports whether the newest fired sync is still in flight.
func (s *Store) Syncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

// LastActive returns the time of the most recent mutation or read.
func (s *Store) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close stops any pending debounce timer. An in-flight sync is left to
// finish; its full-replace payload is safe to land at any time.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) removeLocked(productID int) {
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
}

// mutatedLocked bumps the version and restarts the trailing debounce. The
// sync stays suppressed until Initialize has completed, so an empty default
// never overwrites server-held state before load finishes.
func (s *Store) mutatedLocked() {
	s.version++
	s.lastActive = time.Now()

	if !s.loaded {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fireSync)
}

func (s *Store) fireSync() {
	s.mu.Lock()
	version := s.version
	s.firedVersion = version
	snapshot := make([]upstream.LineItem, len(s.items))
	copy(snapshot, s.items)
	s.syncing = true
	s.mu.Unlock()

	s.metrics.IncFired()

	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer cancel()

	start := time.Now()
	err := s.backend.PutCart(upstream.WithLaunchData(ctx, s.launch), snapshot)
	elapsed := time.Since(start)

	s.mu.Lock()
	stale := version < s.firedVersion
	if !stale {
		s.syncing = false
	}
	done := s.syncDone
	s.mu.Unlock()

	switch {
	case stale:
		// A newer debounce fired while this request was in flight; its
		// payload supersedes ours regardless of arrival order.
		s.metrics.IncStaleDropped()
		s.metrics.ObserveDuration("stale", elapsed)
	case err != nil:
		// Swallowed: the next debounce cycle re-sends the then-current
		// full list, which heals any missed write.
		s.metrics.IncFailed()
		s.metrics.ObserveDuration("error", elapsed)
		if s.logg != nil {
			s.logg.Error(context.Background(), "cart sync failed", err)
		}
	default:
		s.metrics.ObserveDuration("ok", elapsed)
	}

	if done != nil {
		select {
		case done <- struct{}{}:
		default:
		}
	}
}
