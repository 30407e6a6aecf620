package api

import (
	"net/http"
	"time"

	"github.com/futig/lessonplan-backend/internal/api/docs"
	documentapi "github.com/futig/lessonplan-backend/internal/api/document"
	downloadapi "github.com/futig/lessonplan-backend/internal/api/download"
	generationapi "github.com/futig/lessonplan-backend/internal/api/generation"
	"github.com/futig/lessonplan-backend/internal/api/middleware"
	sessionapi "github.com/futig/lessonplan-backend/internal/api/session"
	"github.com/futig/lessonplan-backend/internal/api/static"
	"github.com/futig/lessonplan-backend/internal/config"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by SetupRouter
type Handlers struct {
	Generation *generationapi.Handler
	Document   *documentapi.Handler
	Session    *sessionapi.Handler
	Download   *downloadapi.Handler
	Metrics    http.Handler
}

// RouterConfig holds the routing settings taken from the configuration
type RouterConfig struct {
	RequestTimeout time.Duration
	DownloadRoute  string
	StaticDir      string
	SwaggerFile    string
	RateLimit      config.RateLimitConfig
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(cfg RouterConfig, h Handlers, observer middleware.RequestObserver, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)      // Recover from panics
	r.Use(chimiddleware.RequestID)      // Add request ID
	r.Use(middleware.Metrics(observer)) // Count requests per route
	r.Use(middleware.Logger(logger))    // Log requests
	r.Use(middleware.CORS)              // Handle CORS

	limit := middleware.RateLimit(cfg.RateLimit)

	// Generation and the log stream run for minutes and carry no timeout
	r.Group(func(r chi.Router) {
		r.Use(limit)
		generationapi.RegisterRoutes(r, h.Generation)
	})
	sessionapi.RegisterStreamRoutes(r, h.Session)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout)) // Default timeout

		// Health check endpoint
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"healthy"}`))
		})

		if h.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", h.Metrics)
		}

		// Swagger documentation endpoints
		docs.RegisterRoutes(r, cfg.SwaggerFile)

		r.Group(func(r chi.Router) {
			r.Use(limit)
			documentapi.RegisterRoutes(r, h.Document)
		})
		sessionapi.RegisterRoutes(r, h.Session)
		generationapi.RegisterHistoryRoutes(r, h.Generation)
		downloadapi.RegisterRoutes(r, cfg.DownloadRoute, h.Download)
	})

	// Web client
	r.NotFound(static.Handler(cfg.StaticDir))

	return r
}
