package cart

import (
	"context"
	"sync"
	"time"

	"github.com/telemart/storefront-gateway/internal/notify"
	"github.com/telemart/storefront-gateway/pkg/logger"
	"github.com/telemart/storefront-gateway/pkg/metrics"
)

// Manager owns one cart store per Telegram user, created lazily on first use
// and evicted after a period without activity. Eviction only drops the
// in-memory copy; the backend cart stays authoritative and the next request
// re-initializes from it.
type Manager struct {
	mu     sync.Mutex
	stores map[int64]*Store

	backend  Backend
	debounce time.Duration
	idleTTL  time.Duration
	logg     *logger.Logger
	metrics  *metrics.CartSyncMetrics

	stop chan struct{}
	once sync.Once
}

// ManagerOptions configures the per-user store registry.
type ManagerOptions struct {
	Backend  Backend
	Debounce time.Duration
	IdleTTL  time.Duration
	Logger   *logger.Logger
	Metrics  *metrics.CartSyncMetrics
}

const defaultIdleTTL = 30 * time.Minute

// NewManager builds the registry and starts its eviction sweep.
func NewManager(opts ManagerOptions) *Manager {
	idleTTL := opts.IdleTTL
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	m := &Manager{
		stores:   make(map[int64]*Store),
		backend:  opts.Backend,
		debounce: opts.Debounce,
		idleTTL:  idleTTL,
		logg:     opts.Logger,
		metrics:  opts.Metrics,
		stop:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

// StoreFor returns the user's cart store, initializing a fresh one from the
// backend on first access. toasts receives load-failure messages.
func (m *Manager) StoreFor(ctx context.Context, userID int64, launch string, toasts *notify.Store) *Store {
	m.mu.Lock()
	store, ok := m.stores[userID]
	if ok {
		m.mu.Unlock()
		// Blocks until the creating caller's initial load has finished.
		store.Initialize(ctx)
		return store
	}

	store = NewStore(StoreOptions{
		Backend:  m.backend,
		Launch:   launch,
		Debounce: m.debounce,
		Logger:   m.logg,
		Metrics:  m.metrics,
		Toasts:   toasts,
	})
	m.stores[userID] = store
	m.mu.Unlock()

	store.Initialize(ctx)
	return store
}

// Close stops the sweeper and every store's pending timer.
func (m *Manager) Close() {
	m.once.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, store := range m.stores {
		store.Close()
		delete(m.stores, userID)
	}
}

func (m *Manager) sweep() {
	interval := m.idleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, store := range m.stores {
		if store.LastActive().Before(cutoff) && !store.Syncing() {
			store.Close()
			delete(m.stores, userID)
		}
	}
}
