package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront/api/controllers/cart"
	"github.com/angelmondragon/storefront/api/controllers/sessionctx"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/redis"
)

// NewRouter mounts the storefront API. idempotencyStore and limiter are nil
// when no redis is configured; the matching middleware then passes through.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	sessions sessionctx.Provider,
	storagePinger controllers.Pinger,
	discountValidator controllers.DiscountValidator,
	idempotencyStore redis.IdempotencyStore,
	limiter redis.RateLimiter,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	applyPolicy := middleware.NewRateLimitPolicy(
		"discount_apply",
		cfg.Discounts.ApplyWindow,
		cfg.Discounts.ApplyLimit,
		0,
	)
	validatePolicy := middleware.NewRateLimitPolicy(
		"discount_validate",
		cfg.Discounts.ApplyWindow,
		0,
		cfg.Discounts.ApplyLimit*5,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, storagePinger, logg))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/session", controllers.SessionInfo(sessions, logg))

		r.With(middleware.RateLimit(validatePolicy, limiter, logg)).
			Post("/discounts/validate", controllers.ValidateDiscount(discountValidator, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(sessions, logg))
			r.Delete("/", cartcontrollers.CartClear(sessions, logg))
			r.Get("/totals", cartcontrollers.CartTotals(sessions, logg))

			r.Post("/items", cartcontrollers.CartAddItem(sessions, logg))
			r.Patch("/items/{id}", cartcontrollers.CartSetQuantity(sessions, logg))
			r.Delete("/items/{id}", cartcontrollers.CartRemoveItem(sessions, logg))
			r.Post("/items/{id}/increase", cartcontrollers.CartIncrease(sessions, logg))
			r.Post("/items/{id}/decrease", cartcontrollers.CartDecrease(sessions, logg))

			r.With(middleware.RateLimit(applyPolicy, limiter, logg)).
				Post("/discount", cartcontrollers.CartApplyDiscount(sessions, logg))
			r.Delete("/discount", cartcontrollers.CartRemoveDiscount(sessions, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistFetch(sessions, logg))
			r.Delete("/", controllers.WishlistClear(sessions, logg))
			r.Post("/items", controllers.WishlistAddItem(sessions, logg))
			r.Get("/items/{id}", controllers.WishlistContains(sessions, logg))
			r.Delete("/items/{id}", controllers.WishlistRemoveItem(sessions, logg))
			r.Post("/items/{id}/move-to-cart", controllers.WishlistMoveToCart(sessions, logg))
		})
	})

	return r
}
