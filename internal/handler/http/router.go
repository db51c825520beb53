package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// ServiceName labels metrics and spans emitted by the HTTP layer.
const ServiceName = "catalog"

// cacheMaxAge is the public Cache-Control max-age of anonymous reads, in seconds.
const cacheMaxAge = 30

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	CORS        middleware.CORSConfig
	PprofCIDRs  []string
	ValidateJWT middleware.TokenValidator

	// Per-IP limit on anonymous reads. Zero RPS disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with all catalog routes registered.
func NewRouter(
	catalogService *service.CatalogService,
	productService *service.ProductService,
	categoryService *service.CategoryService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Ops endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	requireAuth := middleware.Auth(cfg.ValidateJWT)
	publicRead := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger),
		middleware.CacheControl(cacheMaxAge),
	}

	productHandler := NewProductHandler(catalogService, productService, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(publicRead...)
			r.Get("/", productHandler.ListCatalogItems)
			r.Get("/category/{categoryID}", productHandler.ListByCategory)
			r.Get("/{id}", productHandler.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireRole(middleware.RoleSeller))
			r.Post("/", productHandler.CreateProduct)
			r.Put("/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
		})
	})

	categoryHandler := NewCategoryHandler(categoryService, logger)

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(publicRead...)
			r.Get("/", categoryHandler.ListCategories)
			r.Get("/{idOrSlug}", categoryHandler.GetCategory)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireRole(middleware.RoleAdmin))
			r.Post("/", categoryHandler.CreateCategory)
			r.Put("/{id}", categoryHandler.UpdateCategory)
			r.Delete("/{id}", categoryHandler.DeleteCategory)
		})
	})

	return r
}
