package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/telemart/storefront-gateway/internal/notify"
	"github.com/telemart/storefront-gateway/internal/upstream"
)

func TestStoreForReusesExistingStore(t *testing.T) {
	manager := NewManager(ManagerOptions{Backend: &fakeBackend{}, Debounce: time.Hour})
	defer manager.Close()

	toasts := notify.NewStore(time.Minute, 3)
	ctx := context.Background()

	first := manager.StoreFor(ctx, 1, "launch", toasts)
	first.AddItem(line(42, 1))

	second := manager.StoreFor(ctx, 1, "launch", toasts)
	if first != second {
		t.Fatal("same user must get the same store")
	}
	if len(second.Items()) != 1 {
		t.Fatal("state must survive repeated lookups")
	}
}

func TestStoreForIsolatesUsers(t *testing.T) {
	manager := NewManager(ManagerOptions{Backend: &fakeBackend{}, Debounce: time.Hour})
	defer manager.Close()

	ctx := context.Background()
	toasts := notify.NewStore(time.Minute, 3)

	manager.StoreFor(ctx, 1, "launch", toasts).AddItem(line(42, 1))

	other := manager.StoreFor(ctx, 2, "launch", toasts)
	if len(other.Items()) != 0 {
		t.Fatal("users must not share carts")
	}
}

func TestStoreForBlocksUntilFirstLoadCompletes(t *testing.T) {
	backend := &fakeBackend{
		cart:     &upstream.ServerCart{Items: []upstream.LineItem{line(8, 2)}},
		getDelay: 40 * time.Millisecond,
	}
	manager := NewManager(ManagerOptions{Backend: backend, Debounce: time.Hour})
	defer manager.Close()

	toasts := notify.NewStore(time.Minute, 3)
	stores := make([]*Store, 2)
	var wg sync.WaitGroup
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stores[i] = manager.StoreFor(context.Background(), 7, "launch", toasts)
		}(i)
	}
	wg.Wait()

	for i, store := range stores {
		if !store.Loaded() {
			t.Fatalf("caller %d received an unloaded store", i)
		}
	}
	if stores[0] != stores[1] {
		t.Fatal("concurrent callers must share one store")
	}

	// A mutation made after StoreFor returned cannot be wiped by the load.
	stores[1].AddItem(line(9, 1))
	if items := stores[1].Items(); len(items) != 2 {
		t.Fatalf("expected server line plus new line, got %+v", items)
	}
}

func TestEvictIdleDropsStaleStores(t *testing.T) {
	manager := NewManager(ManagerOptions{Backend: &fakeBackend{}, Debounce: time.Hour, IdleTTL: time.Minute})
	defer manager.Close()

	ctx := context.Background()
	store := manager.StoreFor(ctx, 1, "launch", notify.NewStore(time.Minute, 3))

	store.mu.Lock()
	store.lastActive = time.Now().Add(-2 * time.Minute)
	store.mu.Unlock()

	manager.evictIdle()

	manager.mu.Lock()
	_, present := manager.stores[1]
	manager.mu.Unlock()
	if present {
		t.Fatal("idle store should be evicted")
	}
}
