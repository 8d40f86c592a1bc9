package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Depict/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Depict/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	AnnotateHandler *handlers.AnnotateHandler
	JobHandler      *handlers.JobHandler
	HealthHandler   *handlers.HealthHandler

	// Middleware
	RateLimiter    middleware.RateLimiter
	RequestTimeout time.Duration
	SlowThreshold  time.Duration

	// Infrastructure
	Logger  logging.Logger
	Metrics *prometheus.AppMetrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewRouter constructs the complete HTTP route tree from the given
// configuration.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(logger))

	logCfg := middleware.DefaultLoggingConfig()
	if cfg.SlowThreshold > 0 {
		logCfg.SlowThreshold = cfg.SlowThreshold
	}
	if cfg.MetricsPath != "" {
		logCfg.SkipPaths = append(logCfg.SkipPaths, cfg.MetricsPath)
	}
	r.Use(middleware.RequestLogging(logger, cfg.Metrics, logCfg))

	// --- Probes ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(middleware.RateLimit(cfg.RateLimiter, middleware.RateLimitConfig{}))
		}
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		registerAnnotateRoutes(api, cfg.AnnotateHandler)
		registerJobRoutes(api, cfg.JobHandler)
	})

	return r
}

// registerAnnotateRoutes mounts the annotation endpoints.
func registerAnnotateRoutes(r chi.Router, h *handlers.AnnotateHandler) {
	if h == nil {
		return
	}
	r.Post("/annotate", h.Annotate)
	r.Get("/options", h.Options)
	r.Delete("/cache", h.PurgeCache)
}

// registerJobRoutes mounts the job ledger endpoints.
func registerJobRoutes(r chi.Router, h *handlers.JobHandler) {
	if h == nil {
		return
	}
	r.Get("/jobs", h.ListJobs)
	r.Get("/jobs/{jobID}", h.GetJob)
}

//Personal.AI order the ending
