package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/session"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type fakeRedis struct {
	mu       sync.Mutex
	data     map[string]string
	counters map[string]int64
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, counters: map[string]int64{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (f *fakeRedis) Ping(context.Context) error { return nil }

func (f *fakeRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, window time.Duration) (pkgredis.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[scope]++
	return pkgredis.Window{Allowed: f.counters[scope] <= limit, Count: f.counters[scope], ResetIn: window}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Env: "dev"},
		Session:   config.SessionConfig{CookieName: "sf_session", HashKey: "router-test-secret-key", MaxAge: time.Hour},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Checkout:  config.CheckoutConfig{IdempotencyTTL: time.Hour},
		RateLimit: config.RateLimitConfig{CheckoutWindow: time.Minute, CheckoutLimit: 100},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, redis RedisStore) http.Handler {
	t.Helper()
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: io.Discard})

	conn := dbtest.Open(t)
	productRepo := catalog.NewRepository(conn)
	if err := catalog.SeedIfEmpty(ctx, productRepo, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := prometheus.NewRegistry()
	storeMetrics := metrics.NewStorefrontMetrics(reg)

	catalogSvc, _ := catalog.NewService(productRepo)
	cartSvc, _ := cart.NewService(cart.NewMemoryStore(), catalogSvc, cart.NewLocker(), storeMetrics)
	orderRepo := orders.NewRepository(conn)
	checkoutSvc, err := checkout.NewService(cartSvc, orderRepo, logg, storeMetrics, checkout.Options{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	orderSvc, _ := orders.NewService(orderRepo)
	sessions, err := session.NewManager(cfg.Session)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}

	return NewRouter(cfg, logg, Dependencies{
		Sessions: sessions,
		Catalog:  catalogSvc,
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Orders:   orderSvc,
		DB:       stubPinger{},
		Redis:    redis,
		Metrics:  reg,
	})
}

func serve(h http.Handler, method, path, body string, cookies []*http.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRootAndHealth(t *testing.T) {
	h := newTestRouter(t, testConfig(), nil)

	rec := serve(h, http.MethodGet, "/", "", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Welcome to the E-commerce API") {
		t.Fatalf("unexpected root %d %s", rec.Code, rec.Body.String())
	}
	if rec := serve(h, http.MethodGet, "/health/live", "", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("live: %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/health/ready", "", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("ready: %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/products", "", nil, nil); rec.Code != http.StatusOK || rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("products: %d %v", rec.Code, rec.Header())
	}
}

func TestCartFollowsSessionCookie(t *testing.T) {
	h := newTestRouter(t, testConfig(), nil)

	rec := serve(h, http.MethodPost, "/api/cart", `{"productId":1,"quantity":2}`, nil, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sf_session" {
		t.Fatalf("expected a session cookie, got %v", cookies)
	}

	rec = serve(h, http.MethodGet, "/api/cart", "", cookies, nil)
	var lines []cart.Line
	_ = json.Unmarshal(rec.Body.Bytes(), &lines)
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("cart should follow the cookie, got %s", rec.Body.String())
	}

	rec = serve(h, http.MethodGet, "/api/cart", "", nil, nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("a cookieless request must get a fresh cart, got %s", rec.Body.String())
	}
}

func TestCheckoutIdempotentReplay(t *testing.T) {
	h := newTestRouter(t, testConfig(), newFakeRedis())

	rec := serve(h, http.MethodPost, "/api/cart", `{"productId":1,"quantity":2}`, nil, nil)
	cookies := rec.Result().Cookies()

	body := `{"customerInfo":{"name":"Asha","address":"12 MG Road"}}`
	headers := map[string]string{"Idempotency-Key": "order-1"}
	first := serve(h, http.MethodPost, "/api/checkout", body, cookies, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("checkout: %d %s", first.Code, first.Body.String())
	}

	second := serve(h, http.MethodPost, "/api/checkout", body, cookies, headers)
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("expected identical replay, got %d %s", second.Code, second.Body.String())
	}

	rec = serve(h, http.MethodGet, "/api/orders", "", cookies, nil)
	var history []orders.Order
	_ = json.Unmarshal(rec.Body.Bytes(), &history)
	if len(history) != 1 {
		t.Fatalf("replay must not place a second order, got %d", len(history))
	}

	conflict := serve(h, http.MethodPost, "/api/checkout", `{"customerInfo":{"name":"Other","address":"x"}}`, cookies, headers)
	if conflict.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key, got %d", conflict.Code)
	}
}

func TestCheckoutRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.CheckoutLimit = 1
	h := newTestRouter(t, cfg, newFakeRedis())

	_ = serve(h, http.MethodPost, "/api/checkout", `{}`, nil, nil)
	rec := serve(h, http.MethodPost, "/api/checkout", `{}`, nil, nil)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected 429 with Retry-After, got %d %q", rec.Code, rec.Header().Get("Retry-After"))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, testConfig(), nil)
	_ = serve(h, http.MethodPost, "/api/cart", `{"productId":1}`, nil, nil)

	rec := serve(h, http.MethodGet, "/metrics", "", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "cart_operations_total") {
		t.Fatalf("expected cart metrics, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestStaticDirReplacesRoot(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>shop</h1>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := testConfig()
	cfg.App.StaticDir = dir
	h := newTestRouter(t, cfg, nil)

	rec := serve(h, http.MethodGet, "/", "", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "shop") {
		t.Fatalf("expected static index, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := serve(h, http.MethodGet, "/api/products/1", "", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("api must still route, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, testConfig(), nil)
	rec := serve(h, http.MethodOptions, "/api/cart", "", nil, map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": "POST",
	})
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected preflight to allow origin, got %v", rec.Header())
	}
}
