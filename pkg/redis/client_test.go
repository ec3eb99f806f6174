package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Set(ctx, "tma:nav_history:1", `["/"]`, time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	blob, err := client.Get(ctx, "tma:nav_history:1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if blob != `["/"]` {
		t.Fatalf("expected stored blob, got %q", blob)
	}

	if err := client.Del(ctx, "tma:nav_history:1"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "tma:nav_history:1"); !Nil(err) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.HistoryKey(99); got != "tma:nav_history:99" {
		t.Fatalf("unexpected history key %s", got)
	}
	if got := client.PrefsKey(7); got != "tma:prefs:7" {
		t.Fatalf("unexpected prefs key %s", got)
	}
	if got := client.CounterKey("hits"); got != "tma:counter:hits" {
		t.Fatalf("unexpected counter key %s", got)
	}
	if got := client.LockKey("checkout:7"); got != "tma:lock:checkout:7" {
		t.Fatalf("unexpected lock key %s", got)
	}
}

func TestLockAndCounterHelpers(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	key := client.LockKey("checkout:1")
	ok, err := client.SetNX(ctx, key, 1, time.Second)
	if err != nil || !ok {
		t.Fatalf("first SetNX should take the lock, got ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, 1, time.Second)
	if err != nil || ok {
		t.Fatalf("second SetNX must not take a held lock, got ok=%v err=%v", ok, err)
	}

	counter := client.CounterKey("coupon_attempts:1")
	for want := int64(1); want <= 3; want++ {
		count, err := client.Incr(ctx, counter)
		if err != nil || count != want {
			t.Fatalf("expected count %d, got %d (err %v)", want, count, err)
		}
	}
	if _, err := client.Expire(ctx, counter, time.Minute); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	if err := client.Set(ctx, "k", "v", 0); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := client.Get(ctx, "k"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := client.Ping(ctx); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}

type mockCmdable struct {
	data map[string]string
	incr map[string]int64
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
