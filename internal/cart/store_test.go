package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/telemart/storefront-gateway/internal/notify"
	"github.com/telemart/storefront-gateway/internal/upstream"
)

type fakeBackend struct {
	mu       sync.Mutex
	cart     *upstream.ServerCart
	getErr   error
	getDelay time.Duration
	putErr   error
	putDelay time.Duration
	puts     [][]upstream.LineItem
}

func (f *fakeBackend) GetCart(ctx context.Context) (*upstream.ServerCart, error) {
	if f.getDelay > 0 {
		time.Sleep(f.getDelay)
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.cart != nil {
		return f.cart, nil
	}
	return &upstream.ServerCart{}, nil
}

func (f *fakeBackend) PutCart(ctx context.Context, items []upstream.LineItem) error {
	if f.putDelay > 0 {
		time.Sleep(f.putDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, items)
	return f.putErr
}

func (f *fakeBackend) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

func (f *fakeBackend) lastPut() []upstream.LineItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.puts) == 0 {
		return nil
	}
	return f.puts[len(f.puts)-1]
}

func line(productID, quantity int) upstream.LineItem {
	return upstream.LineItem{
		ProductID:   productID,
		Quantity:    quantity,
		Name:        "item",
		Price:       "10.00",
		StockStatus: upstream.StockInStock,
	}
}

func newLoadedStore(t *testing.T, backend *fakeBackend, debounce time.Duration) *Store {
	t.Helper()
	store := NewStore(StoreOptions{Backend: backend, Debounce: debounce})
	store.syncDone = make(chan struct{}, 16)
	store.Initialize(context.Background())
	if !store.Loaded() {
		t.Fatal("store should be loaded after initialize")
	}
	return store
}

func waitForSync(t *testing.T, store *Store) {
	t.Helper()
	select {
	case <-store.syncDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sync")
	}
}

func TestAddItemMergesByProductID(t *testing.T) {
	store := newLoadedStore(t, &fakeBackend{}, time.Hour)

	store.AddItem(line(42, 1))
	store.AddItem(line(42, 2))
	store.AddItem(line(7, 1))

	items := store.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 distinct lines, got %d", len(items))
	}
	if items[0].ProductID != 42 || items[0].Quantity != 3 {
		t.Fatalf("expected product 42 qty 3, got %+v", items[0])
	}
}

func TestUpdateQuantitySetsDirectlyAndRemovesAtZero(t *testing.T) {
	store := newLoadedStore(t, &fakeBackend{}, time.Hour)

	store.AddItem(line(42, 5))
	store.UpdateQuantity(42, 2)
	if items := store.Items(); items[0].Quantity != 2 {
		t.Fatalf("expected quantity set to 2, got %d", items[0].Quantity)
	}

	store.UpdateQuantity(42, 0)
	if items := store.Items(); len(items) != 0 {
		t.Fatalf("expected line removed at zero, got %+v", items)
	}
}

func TestCartNeverHoldsDuplicatesOrNonPositiveQuantities(t *testing.T) {
	store := newLoadedStore(t, &fakeBackend{}, time.Hour)

	store.AddItem(line(1, 1))
	store.AddItem(line(2, 4))
	store.AddItem(line(1, 2))
	store.UpdateQuantity(2, -3)
	store.AddItem(line(3, 0))
	store.RemoveItem(99)

	seen := map[int]bool{}
	for _, item := range store.Items() {
		if seen[item.ProductID] {
			t.Fatalf("duplicate product %d", item.ProductID)
		}
		seen[item.ProductID] = true
		if item.Quantity <= 0 {
			t.Fatalf("non-positive quantity %d for product %d", item.Quantity, item.ProductID)
		}
	}
}

func TestDebounceCoalescesRapidMutationsIntoOneSync(t *testing.T) {
	backend := &fakeBackend{}
	store := newLoadedStore(t, backend, 30*time.Millisecond)

	for i := 0; i < 5; i++ {
		store.AddItem(line(42, 1))
		time.Sleep(5 * time.Millisecond)
	}

	waitForSync(t, store)

	if got := backend.putCount(); got != 1 {
		t.Fatalf("expected exactly one sync for a burst, got %d", got)
	}
	payload := backend.lastPut()
	if len(payload) != 1 || payload[0].Quantity != 5 {
		t.Fatalf("sync should carry the settled list, got %+v", payload)
	}
	if store.Syncing() {
		t.Fatal("store should be idle after the sync completed")
	}
}

func TestSyncSuppressedUntilInitialLoadCompletes(t *testing.T) {
	backend := &fakeBackend{}
	store := NewStore(StoreOptions{Backend: backend, Debounce: 10 * time.Millisecond})
	store.syncDone = make(chan struct{}, 16)

	store.AddItem(line(42, 1))
	time.Sleep(50 * time.Millisecond)

	if got := backend.putCount(); got != 0 {
		t.Fatalf("sync must not fire before initialize, got %d pushes", got)
	}

	store.Initialize(context.Background())
	store.AddItem(line(42, 1))
	waitForSync(t, store)
	if got := backend.putCount(); got != 1 {
		t.Fatalf("expected one sync after load, got %d", got)
	}
}

func TestInitializeFailureLeavesEmptyUsableCartAndQueuesToast(t *testing.T) {
	toasts := notify.NewStore(time.Minute, 3)
	backend := &fakeBackend{getErr: errors.New("backend down")}
	store := NewStore(StoreOptions{Backend: backend, Debounce: time.Hour, Toasts: toasts})

	store.Initialize(context.Background())

	if !store.Loaded() {
		t.Fatal("failed initialize still marks the store loaded")
	}
	if len(store.Items()) != 0 {
		t.Fatal("failed initialize should leave an empty cart")
	}
	active := toasts.Active()
	if len(active) != 1 || active[0].Kind != notify.KindError {
		t.Fatalf("expected one error toast, got %+v", active)
	}

	// The store stays usable for browsing and mutations.
	store.AddItem(line(1, 1))
	if len(store.Items()) != 1 {
		t.Fatal("store should accept mutations after failed load")
	}
}

func TestInitializeReplacesLocalStateWholesale(t *testing.T) {
	backend := &fakeBackend{cart: &upstream.ServerCart{
		Items:    []upstream.LineItem{line(8, 2)},
		Messages: []string{"price of item 8 changed"},
	}}
	toasts := notify.NewStore(time.Minute, 3)
	store := NewStore(StoreOptions{Backend: backend, Debounce: time.Hour, Toasts: toasts})

	store.Initialize(context.Background())

	items := store.Items()
	if len(items) != 1 || items[0].ProductID != 8 || items[0].Quantity != 2 {
		t.Fatalf("expected server cart adopted, got %+v", items)
	}
	active := toasts.Active()
	if len(active) != 1 || active[0].Message != "price of item 8 changed" {
		t.Fatalf("expected server message surfaced, got %+v", active)
	}
}

func TestSyncFailureIsSwallowedAndNextCycleRetries(t *testing.T) {
	backend := &fakeBackend{putErr: errors.New("write failed")}
	store := newLoadedStore(t, backend, 10*time.Millisecond)

	store.AddItem(line(42, 1))
	waitForSync(t, store)

	if len(store.Items()) != 1 {
		t.Fatal("local state must not roll back on sync failure")
	}

	backend.mu.Lock()
	backend.putErr = nil
	backend.mu.Unlock()

	store.AddItem(line(42, 1))
	waitForSync(t, store)

	payload := backend.lastPut()
	if len(payload) != 1 || payload[0].Quantity != 2 {
		t.Fatalf("next cycle should push the then-current state, got %+v", payload)
	}
}

func TestStaleSyncCompletionIsDropped(t *testing.T) {
	backend := &fakeBackend{putDelay: 60 * time.Millisecond}
	store := newLoadedStore(t, backend, 10*time.Millisecond)

	store.AddItem(line(42, 1))
	// Let the first sync fire, then mutate again while it is in flight.
	time.Sleep(25 * time.Millisecond)
	store.AddItem(line(42, 1))

	waitForSync(t, store)
	waitForSync(t, store)

	if got := backend.putCount(); got != 2 {
		t.Fatalf("expected two fired syncs, got %d", got)
	}
	payload := backend.lastPut()
	if len(payload) != 1 || payload[0].Quantity != 2 {
		t.Fatalf("newest payload should carry qty 2, got %+v", payload)
	}
	if store.Syncing() {
		t.Fatal("newest completion should clear the syncing flag")
	}
}

func TestClearEmptiesCartAndSchedulesSync(t *testing.T) {
	backend := &fakeBackend{}
	store := newLoadedStore(t, backend, 10*time.Millisecond)

	store.AddItem(line(42, 1))
	waitForSync(t, store)

	store.Clear()
	waitForSync(t, store)

	if len(store.Items()) != 0 {
		t.Fatal("clear should empty the cart")
	}
	if payload := backend.lastPut(); len(payload) != 0 {
		t.Fatalf("clear should push an empty replace, got %+v", payload)
	}
}
