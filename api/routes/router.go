package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hopewellness/storefront-backend/api/controllers"
	"github.com/hopewellness/storefront-backend/api/middleware"
	"github.com/hopewellness/storefront-backend/internal/storefront"
	"github.com/hopewellness/storefront-backend/pkg/config"
	"github.com/hopewellness/storefront-backend/pkg/logger"
	"github.com/hopewellness/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisP redis.Pinger,
	manager *storefront.Manager,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))

		r.Route("/session", func(r chi.Router) {
			r.Post("/init", controllers.SessionInit(manager, logg))
			r.Get("/", controllers.SessionShow(manager, logg))
			r.Delete("/error", controllers.SessionClearError(manager, logg))
		})

		r.Get("/products", controllers.ProductsIndex(manager, cfg, logg))
		r.Get("/collections", controllers.CollectionsIndex(manager, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartShow(manager, logg))
			r.Post("/items", controllers.CartAddItem(manager, logg))
			r.Put("/items/{lineItemID}", controllers.CartUpdateItem(manager, logg))
			r.Delete("/items/{lineItemID}", controllers.CartRemoveItem(manager, logg))
		})
	})

	return r
}
