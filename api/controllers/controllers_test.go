package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/discounts"
	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/internal/storage"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/money"
)

const testSession = "sess-ctrl"

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: config.AppEnvDev},
		Storage: config.StorageConfig{Driver: config.StorageDriverMemory},
	}
}

func newValidator(t *testing.T) *discounts.Validator {
	t.Helper()
	v, err := discounts.NewValidator(discounts.ValidatorParams{
		Lookup: discounts.DemoLookup{},
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return v
}

func newManager(t *testing.T) *storefront.Manager {
	t.Helper()
	mgr, err := storefront.NewManager(storefront.ManagerParams{
		Storage:    storage.NewMemory(),
		Validator:  newValidator(t),
		Calculator: pricing.NewCalculator(),
	})
	require.NoError(t, err)
	return mgr
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set(middleware.SessionIDHeader, testSession)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(testConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, config.AppEnvDev, rec.Header().Get("X-Storefront-Env"))
}

func TestHealthReady(t *testing.T) {
	t.Run("storage reachable", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ok := pingerFunc(func(context.Context) error { return nil })
		HealthReady(testConfig(), ok, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var env struct {
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
		assert.Equal(t, "ready", env.Data["status"])
		assert.Equal(t, config.StorageDriverMemory, env.Data["storage_driver"])
	})

	t.Run("storage down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })
		HealthReady(testConfig(), down, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func wishlistRouter(mgr *storefront.Manager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Session(nil))
	r.Get("/api/v1/wishlist", WishlistFetch(mgr, nil))
	r.Delete("/api/v1/wishlist", WishlistClear(mgr, nil))
	r.Post("/api/v1/wishlist/items", WishlistAddItem(mgr, nil))
	r.Get("/api/v1/wishlist/items/{id}", WishlistContains(mgr, nil))
	r.Delete("/api/v1/wishlist/items/{id}", WishlistRemoveItem(mgr, nil))
	r.Post("/api/v1/wishlist/items/{id}/move-to-cart", WishlistMoveToCart(mgr, nil))
	return r
}

type wishlistEnvelope struct {
	Data struct {
		Items []struct {
			Product struct {
				ID    string      `json:"id"`
				Price money.Money `json:"price"`
			} `json:"product"`
		} `json:"items"`
		Count int  `json:"count"`
		Added bool `json:"added"`
	} `json:"data"`
}

func decodeWishlist(t *testing.T, rec *httptest.ResponseRecorder) wishlistEnvelope {
	t.Helper()
	var env wishlistEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestWishlistFlow(t *testing.T) {
	h := wishlistRouter(newManager(t))
	product := `{"product":{"id":"p1","name":"Lamp","price":30,"stock":4,"category":"home"}}`

	rec := serve(t, h, http.MethodPost, "/api/v1/wishlist/items", product)
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeWishlist(t, rec)
	assert.True(t, env.Data.Added)
	assert.Equal(t, 1, env.Data.Count)

	rec = serve(t, h, http.MethodPost, "/api/v1/wishlist/items", product)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeWishlist(t, rec)
	assert.False(t, env.Data.Added)
	assert.Equal(t, 1, env.Data.Count, "duplicate add leaves the wishlist unchanged")

	rec = serve(t, h, http.MethodGet, "/api/v1/wishlist/items/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var membership struct {
		Data wishlistMembershipResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&membership))
	assert.True(t, membership.Data.InWishlist)

	rec = serve(t, h, http.MethodDelete, "/api/v1/wishlist/items/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeWishlist(t, rec).Data.Count)

	rec = serve(t, h, http.MethodGet, "/api/v1/wishlist/items/p1", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&membership))
	assert.False(t, membership.Data.InWishlist)
}

func TestWishlistClear(t *testing.T) {
	h := wishlistRouter(newManager(t))
	serve(t, h, http.MethodPost, "/api/v1/wishlist/items", `{"product":{"id":"p1","name":"Lamp","price":30}}`)
	serve(t, h, http.MethodPost, "/api/v1/wishlist/items", `{"product":{"id":"p2","name":"Rug","price":80}}`)

	rec := serve(t, h, http.MethodGet, "/api/v1/wishlist", "")
	assert.Equal(t, 2, decodeWishlist(t, rec).Data.Count)

	rec = serve(t, h, http.MethodDelete, "/api/v1/wishlist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeWishlist(t, rec).Data.Count)
}

func TestWishlistMoveToCart(t *testing.T) {
	h := wishlistRouter(newManager(t))
	serve(t, h, http.MethodPost, "/api/v1/wishlist/items", `{"product":{"id":"p1","name":"Lamp","price":30,"image":"https://cdn.example.com/lamp.png"}}`)
	serve(t, h, http.MethodPost, "/api/v1/wishlist/items", `{"product":{"id":"p2","name":"Rug","price":80}}`)

	rec := serve(t, h, http.MethodPost, "/api/v1/wishlist/items/p1/move-to-cart", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data struct {
			Wishlist wishlistResponse `json:"wishlist"`
			Cart     cart.Snapshot    `json:"cart"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, 1, env.Data.Wishlist.Count)
	require.Len(t, env.Data.Cart.Items, 1)
	assert.Equal(t, "p1", env.Data.Cart.Items[0].ID)
	assert.Equal(t, "Lamp", env.Data.Cart.Items[0].Name)
	assert.Equal(t, "https://cdn.example.com/lamp.png", env.Data.Cart.Items[0].Image)
	assert.Equal(t, 1, env.Data.Cart.Items[0].Quantity)
	assert.Equal(t, money.FromCents(3000), env.Data.Cart.TotalPrice)

	rec = serve(t, h, http.MethodPost, "/api/v1/wishlist/items/p1/move-to-cart", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWishlistAddValidation(t *testing.T) {
	h := wishlistRouter(newManager(t))

	rec := serve(t, h, http.MethodPost, "/api/v1/wishlist/items", `{"product":{"name":"Lamp","price":30}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
}

type discountResultEnvelope struct {
	Data struct {
		IsValid        bool         `json:"isValid"`
		DiscountAmount *money.Money `json:"discountAmount"`
		FinalPrice     *money.Money `json:"finalPrice"`
		FreeShipping   bool         `json:"freeShipping"`
		Error          string       `json:"error"`
		Discount       *struct {
			Code string `json:"discountCode"`
			Type string `json:"discountType"`
		} `json:"discount"`
	} `json:"data"`
}

func TestValidateDiscount(t *testing.T) {
	handler := ValidateDiscount(newValidator(t), nil)

	tests := []struct {
		name      string
		body      string
		valid     bool
		amount    string
		final     string
		errSubstr string
	}{
		{name: "percentage", body: `{"code":"SAVE20","subtotal":100}`, valid: true, amount: "20.00", final: "80.00"},
		{name: "fixed amount", body: `{"code":"FLAT15","subtotal":50}`, valid: true, amount: "15.00", final: "35.00"},
		{name: "below minimum", body: `{"code":"SAVE20","subtotal":40}`, errSubstr: "100"},
		{name: "above maximum", body: `{"code":"SMALL5","subtotal":41}`, errSubstr: "Maximum order amount of $40.00 exceeded"},
		{name: "unknown", body: `{"code":"BOGUS","subtotal":10}`, errSubstr: discounts.MsgInvalidCode},
		{name: "empty", body: `{"code":"","subtotal":10}`, errSubstr: discounts.MsgEmptyCode},
		{name: "exhausted", body: `{"code":"LAUNCH","subtotal":10}`, errSubstr: discounts.MsgNotUsable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/discounts/validate", strings.NewReader(tt.body)))
			require.Equal(t, http.StatusOK, rec.Code)

			var env discountResultEnvelope
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
			assert.Equal(t, tt.valid, env.Data.IsValid)
			if tt.valid {
				require.NotNil(t, env.Data.DiscountAmount)
				require.NotNil(t, env.Data.FinalPrice)
				assert.Equal(t, parseMoney(t, tt.amount), *env.Data.DiscountAmount)
				assert.Equal(t, parseMoney(t, tt.final), *env.Data.FinalPrice)
				require.NotNil(t, env.Data.Discount)
				return
			}
			assert.Contains(t, env.Data.Error, tt.errSubstr)
			assert.Nil(t, env.Data.DiscountAmount)
		})
	}
}

func TestValidateDiscountFreeShipping(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidateDiscount(newValidator(t), nil).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/discounts/validate", strings.NewReader(`{"code":"freeship","subtotal":20}`)))

	var env discountResultEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.Data.IsValid)
	assert.True(t, env.Data.FreeShipping)
	assert.Equal(t, money.Money(0), *env.Data.DiscountAmount)
	assert.Equal(t, string(discounts.TypeFreeShipping), env.Data.Discount.Type)
}

func TestValidateDiscountRejectsNegativeSubtotal(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidateDiscount(newValidator(t), nil).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/discounts/validate", strings.NewReader(`{"code":"SAVE20","subtotal":-5}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionInfo(t *testing.T) {
	mgr := newManager(t)
	s, err := mgr.Session(context.Background(), testSession)
	require.NoError(t, err)
	require.NoError(t, s.Cart.AddItem(context.Background(), cartItem("p1", 999), 3))

	r := chi.NewRouter()
	r.Use(middleware.Session(nil))
	r.Get("/api/v1/session", SessionInfo(mgr, nil))

	rec := serve(t, r, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data sessionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, testSession, env.Data.SessionID)
	assert.Equal(t, 3, env.Data.CartQuantity)
	assert.Equal(t, 0, env.Data.WishlistCount)
}

func cartItem(id string, cents int64) cart.Item {
	return cart.Item{ID: id, Name: "Item " + id, Price: money.FromCents(cents)}
}

func parseMoney(t *testing.T, raw string) money.Money {
	t.Helper()
	m, err := money.Parse(raw)
	require.NoError(t, err)
	return m
}
