package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shelfnotes/bookreview/internal/docs"
	"github.com/shelfnotes/bookreview/internal/service"
	"github.com/shelfnotes/bookreview/pkg/health"
	"github.com/shelfnotes/bookreview/pkg/middleware"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	ServiceName    string
	BookService    *service.BookService
	ReviewService  *service.ReviewService
	Health         *health.Handler
	TokenValidator middleware.TokenValidator
	CORS           middleware.CORSConfig

	// RateLimiter is optional; nil disables per-IP limiting.
	RateLimiter *middleware.RateLimiter

	PprofEnabled      bool
	PprofAllowedCIDRs []string

	Logger *slog.Logger
}

// NewRouter creates a chi router with all book review routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Operational endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/doc.json", docs.ServeSpec)
	r.Get("/swagger/", docs.ServeUI)
	r.Get("/swagger", http.RedirectHandler("/swagger/", http.StatusMovedPermanently).ServeHTTP)

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	bookHandler := NewBookHandler(cfg.BookService, logger)
	reviewHandler := NewReviewHandler(cfg.ReviewService, logger)
	requireAuth := middleware.Auth(cfg.TokenValidator)

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}

		r.Route("/books", func(r chi.Router) {
			r.Get("/", bookHandler.ListBooks)
			r.Get("/search", bookHandler.SearchBooks)
			r.Get("/{id}", bookHandler.GetBook)
			r.Get("/{id}/reviews", reviewHandler.ListReviews)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", bookHandler.CreateBook)
				r.Post("/{id}/reviews", reviewHandler.CreateReview)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(requireAuth)
			r.Put("/{id}", reviewHandler.UpdateReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
		})
	})

	return r
}
