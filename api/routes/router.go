package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/session"
)

// RedisStore is the slice of the redis client used for checkout protection.
type RedisStore interface {
	pkgredis.IdempotencyStore
	Ping(ctx context.Context) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (pkgredis.Window, error)
}

// Dependencies carries everything the HTTP surface needs. Redis and
// Metrics are optional; leave them nil when the backing service is absent.
type Dependencies struct {
	Sessions *session.Manager
	Catalog  catalog.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service

	DB      controllers.Pinger
	Redis   RedisStore
	Metrics prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	readiness := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/products/{id}", controllers.GetProduct(deps.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(deps.Sessions, logg))

			r.Get("/cart", controllers.GetCart(deps.Cart, logg))
			r.Post("/cart", controllers.AddToCart(deps.Cart, logg))
			r.Put("/cart/{productId}", controllers.UpdateCartItem(deps.Cart, logg))
			r.Delete("/cart/{productId}", controllers.RemoveCartItem(deps.Cart, logg))

			checkoutChain := r.With()
			if deps.Redis != nil {
				policy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.CheckoutWindow, cfg.RateLimit.CheckoutLimit).
					WithTrustedHops(cfg.RateLimit.TrustedProxyHops)
				checkoutChain = r.With(
					middleware.RateLimit(policy, deps.Redis, logg),
					middleware.Idempotency(deps.Redis, cfg.Checkout.IdempotencyTTL, logg),
				)
			}
			checkoutChain.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Get("/orders", controllers.ListOrders(deps.Orders, logg))
			r.Get("/orders/{orderId}", controllers.GetOrder(deps.Orders, logg))
		})
	})

	if dir := strings.TrimSpace(cfg.App.StaticDir); dir != "" {
		r.Handle("/*", staticHandler(dir))
	} else {
		r.Get("/", controllers.Root())
	}

	return r
}

// staticHandler serves the storefront pages from dir.
func staticHandler(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}
