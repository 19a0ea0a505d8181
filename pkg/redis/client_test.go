package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	now := time.Date(2026, 6, 1, 10, 0, 45, 0, time.UTC)
	client := &Client{store: mock, now: func() time.Time { return now }}

	w, err := client.FixedWindowAllow(ctx, "checkout:ip:1.2.3.4", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Allowed || w.Count != 1 {
		t.Fatalf("expected first hit allowed, got %+v", w)
	}
	if w.ResetIn != 15*time.Second {
		t.Fatalf("expected window to reset in 15s, got %s", w.ResetIn)
	}
	wantKey := fmt.Sprintf("sf:rate_limit:checkout:ip:1.2.3.4:%d", now.Truncate(time.Minute).Unix())
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].key != wantKey {
		t.Fatalf("expected one expiry on %s, got %+v", wantKey, mock.expireCalls)
	}
	if !mock.expireCalls[0].at.Equal(now.Truncate(time.Minute).Add(time.Minute)) {
		t.Fatalf("expiry should land on the window edge, got %s", mock.expireCalls[0].at)
	}

	w, _ = client.FixedWindowAllow(ctx, "checkout:ip:1.2.3.4", 2, time.Minute)
	if !w.Allowed || w.Count != 2 || len(mock.expireCalls) != 1 {
		t.Fatalf("unexpected second hit %+v (expire calls %d)", w, len(mock.expireCalls))
	}
	w, _ = client.FixedWindowAllow(ctx, "checkout:ip:1.2.3.4", 2, time.Minute)
	if w.Allowed || w.Count != 3 {
		t.Fatalf("expected third hit blocked, got %+v", w)
	}

	// The next window starts a fresh counter.
	now = now.Add(20 * time.Second)
	w, _ = client.FixedWindowAllow(ctx, "checkout:ip:1.2.3.4", 2, time.Minute)
	if !w.Allowed || w.Count != 1 || w.ResetIn != 55*time.Second {
		t.Fatalf("expected fresh window, got %+v", w)
	}
}

func TestFixedWindowAllowRejectsBadWindow(t *testing.T) {
	client := &Client{store: newMockCmdable()}
	if _, err := client.FixedWindowAllow(context.Background(), "x", 1, 0); err == nil {
		t.Fatal("expected error for zero window")
	}
}

func TestSetGetDelLifecycle(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	key := client.CartKey("sess-1")
	if err := client.Set(ctx, key, `[{"productId":1}]`, time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, err := client.Get(ctx, key)
	if err != nil || value != `[{"productId":1}]` {
		t.Fatalf("unexpected get %q %v", value, err)
	}

	ok, err := client.SetNX(ctx, key, "other", time.Hour)
	if err != nil || ok {
		t.Fatalf("SetNX must not overwrite, got ok=%v err=%v", ok, err)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); !IsMissing(err) {
		t.Fatalf("expected missing key after delete, got %v", err)
	}
	if err := client.Del(ctx); err != nil {
		t.Fatalf("empty delete should be a no-op, got %v", err)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	if err := client.Ping(ctx); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := client.FixedWindowAllow(ctx, "x", 1, time.Second); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close of uninitialized client should be a no-op, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2?pool_size=3", PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 3 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 4, MinIdleConns: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 4 || opts.MinIdleConns != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("checkout", "abc"): "sf:idempotency:checkout:abc",
		client.CartKey("sess"):                   "sf:cart:sess",
		client.IdempotencyKey("checkout", " "):   "sf:idempotency:checkout",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

type mockCmdable struct {
	mu          sync.Mutex
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	at  time.Time
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

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = stringify(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = stringify(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) PExpireAt(_ context.Context, key string, at time.Time) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireCalls = append(m.expireCalls, expireCall{key: key, at: at})
	return redis.NewBoolResult(true, nil)
}

func stringify(value any) string {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(value)
}
