package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/discounts"
	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/internal/storage"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/redis"
)

type stubIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (s *stubIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (s *stubIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key], _ = value.(string)
	return true, nil
}

func (s *stubIdempotencyStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

type stubLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (s *stubLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: config.AppEnvDev, CORSAllowedOrigins: []string{"http://localhost:3000"}},
		Storage: config.StorageConfig{Driver: config.StorageDriverMemory},
		Discounts: config.DiscountsConfig{
			DemoMode:    true,
			ApplyWindow: time.Minute,
			ApplyLimit:  3,
		},
	}
}

type testServer struct {
	handler http.Handler
	reg     *prometheus.Registry
}

func newTestServer(t *testing.T, idem redis.IdempotencyStore, limiter redis.RateLimiter) testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	validator, err := discounts.NewValidator(discounts.ValidatorParams{
		Lookup:  discounts.DemoLookup{},
		Metrics: metrics.NewDiscountMetrics(reg),
		Now:     func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	st := storage.WithMetrics(storage.NewMemory(), config.StorageDriverMemory, metrics.NewStorageMetrics(reg))
	mgr, err := storefront.NewManager(storefront.ManagerParams{
		Storage:    st,
		Validator:  validator,
		Calculator: pricing.NewCalculator(),
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return testServer{
		handler: NewRouter(testConfig(), nil, mgr, mgr, validator, idem, limiter, reg),
		reg:     reg,
	}
}

func (s testServer) do(t *testing.T, method, path, session, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if session != "" {
		req.Header.Set(middleware.SessionIDHeader, session)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := srv.do(t, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
		if rec.Header().Get(middleware.SessionIDHeader) != "" {
			t.Fatalf("%s: health routes do not open sessions", path)
		}
	}
}

func TestSessionHeaderIsGeneratedAndReused(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := srv.do(t, http.MethodPost, "/api/v1/cart/items", "", `{"id":"p1","name":"Mug","price":10,"quantity":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	session := rec.Header().Get(middleware.SessionIDHeader)
	if session == "" {
		t.Fatalf("expected generated session id")
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/cart", session, "")
	var env struct {
		Data struct {
			TotalQuantity int `json:"totalQuantity"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.TotalQuantity != 2 {
		t.Fatalf("expected cart to persist across requests, got %d", env.Data.TotalQuantity)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/cart", "someone-else", "")
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.TotalQuantity != 0 {
		t.Fatalf("sessions must be isolated, got %d", env.Data.TotalQuantity)
	}
}

func TestCheckoutFlowThroughRouter(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	const session = "flow"

	steps := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodPost, "/api/v1/cart/items", `{"id":"lamp","name":"Lamp","price":60}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/cart/items", `{"id":"mug","name":"Mug","price":20}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/cart/items/mug/increase", "", http.StatusOK},
		{http.MethodPost, "/api/v1/cart/discount", `{"code":"SAVE20"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/wishlist/items", `{"product":{"id":"rug","name":"Rug","price":90}}`, http.StatusCreated},
	}
	for _, step := range steps {
		rec := srv.do(t, step.method, step.path, session, step.body)
		if rec.Code != step.status {
			t.Fatalf("%s %s: expected %d, got %d: %s", step.method, step.path, step.status, rec.Code, rec.Body.String())
		}
	}

	rec := srv.do(t, http.MethodGet, "/api/v1/cart/totals", session, "")
	var totals struct {
		Data struct {
			Subtotal json.Number `json:"subtotal"`
			Shipping json.Number `json:"shipping"`
			Tax      json.Number `json:"tax"`
			Discount json.Number `json:"discount"`
			Total    json.Number `json:"total"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&totals); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	// 60 + 2*20 = 100; shipping free; tax 8; discount 20.
	want := map[string]json.Number{"subtotal": "100.00", "shipping": "0.00", "tax": "8.00", "discount": "20.00", "total": "88.00"}
	got := map[string]json.Number{
		"subtotal": totals.Data.Subtotal,
		"shipping": totals.Data.Shipping,
		"tax":      totals.Data.Tax,
		"discount": totals.Data.Discount,
		"total":    totals.Data.Total,
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s: expected %s, got %s", k, v, got[k])
		}
	}

	// Dropping the subtotal below the code's minimum drops the code on the next read.
	srv.do(t, http.MethodDelete, "/api/v1/cart/items/lamp", session, "")
	rec = srv.do(t, http.MethodGet, "/api/v1/cart/totals", session, "")
	var after struct {
		Data struct {
			Discount       json.Number `json:"discount"`
			DiscountNotice string      `json:"discountNotice"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&after); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	if after.Data.Discount != "0.00" {
		t.Fatalf("expected discount to be dropped, got %s", after.Data.Discount)
	}
	if !strings.Contains(after.Data.DiscountNotice, "100") {
		t.Fatalf("expected minimum amount notice, got %q", after.Data.DiscountNotice)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/session", session, "")
	var info struct {
		Data struct {
			CartQuantity        int    `json:"cartQuantity"`
			WishlistCount       int    `json:"wishlistCount"`
			AppliedDiscountCode string `json:"appliedDiscountCode"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if info.Data.CartQuantity != 2 || info.Data.WishlistCount != 1 || info.Data.AppliedDiscountCode != "" {
		t.Fatalf("unexpected session summary %+v", info.Data)
	}
}

func TestDiscountApplyIsRateLimited(t *testing.T) {
	srv := newTestServer(t, nil, &stubLimiter{counts: map[string]int64{}})
	const session = "limited"

	srv.do(t, http.MethodPost, "/api/v1/cart/items", session, `{"id":"p1","name":"Mug","price":10}`)
	for i := 0; i < 3; i++ {
		rec := srv.do(t, http.MethodPost, "/api/v1/cart/discount", session, `{"code":"NOPE"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("attempt %d: expected 422, got %d", i, rec.Code)
		}
	}

	rec := srv.do(t, http.MethodPost, "/api/v1/cart/discount", session, `{"code":"WELCOME10"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rec.Code)
	}
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("unexpected code %s", env.Error.Code)
	}
}

func TestAddItemIdempotencyKeyReplays(t *testing.T) {
	srv := newTestServer(t, &stubIdempotencyStore{data: map[string]string{}}, nil)
	const session = "idem"
	body := `{"id":"p1","name":"Mug","price":10,"quantity":1}`

	for i := 0; i < 2; i++ {
		rec := srv.do(t, http.MethodPost, "/api/v1/cart/items", session, body, "Idempotency-Key", "add-p1")
		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201, got %d", i, rec.Code)
		}
	}

	rec := srv.do(t, http.MethodGet, "/api/v1/cart", session, "")
	var env struct {
		Data struct {
			TotalQuantity int `json:"totalQuantity"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.TotalQuantity != 1 {
		t.Fatalf("retried add must not double the quantity, got %d", env.Data.TotalQuantity)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := srv.do(t, http.MethodPost, "/api/v1/discounts/validate", "m", `{"code":"WELCOME10","subtotal":25}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	srv.do(t, http.MethodGet, "/api/v1/cart", "m", "")

	rec = srv.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`discount_validations_total{outcome="applied"} 1`,
		"discount_lookup_duration_seconds",
		`storage_operations_total{driver="memory",op="load",result="ok"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, body)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	rec := srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/%s", "orders"), "s", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
