package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/cafehop-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/cafehop-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/cafehop-backend/api/controllers/orders"
	"github.com/angelmondragon/cafehop-backend/api/middleware"
	"github.com/angelmondragon/cafehop-backend/internal/cafes"
	"github.com/angelmondragon/cafehop-backend/internal/cart"
	"github.com/angelmondragon/cafehop-backend/internal/checkout"
	"github.com/angelmondragon/cafehop-backend/internal/discovery"
	"github.com/angelmondragon/cafehop-backend/internal/menu"
	"github.com/angelmondragon/cafehop-backend/internal/orders"
	"github.com/angelmondragon/cafehop-backend/internal/reviews"
	"github.com/angelmondragon/cafehop-backend/pkg/config"
	"github.com/angelmondragon/cafehop-backend/pkg/db"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"github.com/angelmondragon/cafehop-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/cafehop-backend/pkg/redis"
)

// cacheClient is the redis surface the router needs for readiness, rate
// limits and idempotency records.
type cacheClient interface {
	pkgredis.IdempotencyStore
	Ping(ctx context.Context) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient cacheClient,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	discoveryService discovery.Service,
	cafeService cafes.Service,
	menuService menu.Service,
	cartService cart.Service,
	checkoutService checkout.Service,
	ordersService orders.Service,
	reviewsService reviews.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutSessionLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cafes", func(r chi.Router) {
			r.Get("/nearby", controllers.CafesNearby(discoveryService, cfg.Discovery.DefaultMaxDistanceMiles, logg))
			r.Route("/{cafeId}", func(r chi.Router) {
				r.Put("/hours", controllers.CafeHoursUpdate(cafeService, discoveryService, logg))
				r.Get("/orders", ordercontrollers.ListByCafe(ordersService, logg))
				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", controllers.ReviewsList(reviewsService, logg))
					r.Post("/", controllers.ReviewCreate(reviewsService, logg))
					r.Get("/summary", controllers.ReviewsSummary(reviewsService, logg))
					r.Post("/{reviewId}/reply", controllers.ReviewReply(reviewsService, logg))
				})
				r.Route("/menu", func(r chi.Router) {
					r.Get("/", controllers.MenuList(menuService, logg))
					r.Put("/items/{itemId}", controllers.MenuItemUpsert(menuService, logg))
					r.Patch("/items/{itemId}/availability", controllers.MenuItemAvailability(menuService, logg))
				})
			})
		})

		r.Route("/carts/{sessionId}/cafes/{cafeId}", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
			r.Delete("/items", cartcontrollers.CartRemoveItem(cartService, logg))
		})

		idempotent := func(next http.Handler) http.Handler { return next }
		checkoutHandler := http.Handler(controllers.Checkout(checkoutService, logg))
		if redisClient != nil {
			idempotent = middleware.Idempotency(redisClient, logg)
			checkoutHandler = middleware.RateLimit(checkoutPolicy, redisClient, logg)(idempotent(checkoutHandler))
		}
		r.Method(http.MethodPost, "/checkout", checkoutHandler)

		r.Get("/sessions/{sessionId}/orders", ordercontrollers.ListBySession(ordersService, logg))

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/", ordercontrollers.Detail(ordersService, logg))
			r.With(idempotent).Patch("/status", ordercontrollers.UpdateStatus(ordersService, logg))
			r.With(idempotent).Post("/advance", ordercontrollers.Advance(ordersService, logg))
		})
	})

	return r
}
