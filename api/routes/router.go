package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/seedling-limiter/api/controllers"
	admincontrollers "github.com/angelmondragon/seedling-limiter/api/controllers/admin"
	cartcontrollers "github.com/angelmondragon/seedling-limiter/api/controllers/cart"
	"github.com/angelmondragon/seedling-limiter/api/middleware"
	"github.com/angelmondragon/seedling-limiter/internal/enforcement"
	"github.com/angelmondragon/seedling-limiter/internal/rules"
	"github.com/angelmondragon/seedling-limiter/pkg/config"
	"github.com/angelmondragon/seedling-limiter/pkg/db"
	"github.com/angelmondragon/seedling-limiter/pkg/logger"
	"github.com/angelmondragon/seedling-limiter/pkg/metrics"
	"github.com/angelmondragon/seedling-limiter/pkg/redis"
)

// Cache is the Redis surface the HTTP layer needs: readiness, rate limiting and idempotency.
type Cache interface {
	redis.Pinger
	redis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

var _ Cache = (*redis.Client)(nil)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	cache Cache,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	rulesService rules.Service,
	limiterService enforcement.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	cartPolicy := middleware.NewRateLimitPolicy(
		"cart",
		cfg.RateLimit.CartWindow,
		cfg.RateLimit.CartLimit,
	)
	idempotent := middleware.Idempotency(cache, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	// Full paths keep the chi route pattern complete for idempotency and metrics.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CartSession(logg))
		r.Use(middleware.RateLimit(cartPolicy, cache, logg))

		r.Get("/api/v1/limiter/settings", controllers.LimiterSettings(limiterService, logg))
		r.Get("/api/v1/products/{productId}/quantity-args", controllers.ProductQuantityArgs(limiterService, logg))

		r.Get("/api/v1/cart", cartcontrollers.CartFetch(limiterService, logg))
		r.Delete("/api/v1/cart", cartcontrollers.CartClear(limiterService, logg))
		r.Get("/api/v1/cart/validation", cartcontrollers.CartValidation(limiterService, logg))
		r.Get("/api/v1/cart/quantity", cartcontrollers.CartQuantity(limiterService, logg))
		r.With(idempotent).Post("/api/v1/cart/items", cartcontrollers.CartAddItem(limiterService, logg))
		r.With(idempotent).Patch("/api/v1/cart/items/{key}", cartcontrollers.CartUpdateItem(limiterService, logg))
		r.Delete("/api/v1/cart/items/{key}", cartcontrollers.CartRemoveItem(limiterService, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminKey(cfg.Admin, logg))

		r.Get("/api/admin/v1/rules", admincontrollers.RulesFetch(rulesService, logg))
		r.With(idempotent).Put("/api/admin/v1/rules", admincontrollers.RulesReplace(rulesService, logg))
		r.With(idempotent).Delete("/api/admin/v1/rules", admincontrollers.RulesReset(rulesService, logg))
		r.Post("/api/admin/v1/rules/reload", admincontrollers.RulesReload(rulesService, logg))
	})

	return r
}
