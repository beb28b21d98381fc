// Package api provides the HTTP API for the LoyalHOOD status service.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/loyalhood/loyalhood/internal/api/handler"
	"github.com/loyalhood/loyalhood/internal/api/middleware"
	"github.com/loyalhood/loyalhood/internal/worker"
)

// StatusMonitor is the monitor surface the API serves.
type StatusMonitor interface {
	handler.StatusService
	handler.HealthChecker
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	Monitor     StatusMonitor
	Trigger     worker.Trigger
	TokenAuth   middleware.TokenValidator
	CORSOrigins []string

	// Stream is the websocket hub. If nil, one is created that only pushes
	// on its keep-alive interval.
	Stream *handler.StreamHub
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "loyalhood-status-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders) // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)      // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON) // JSON content type

	opsHandler := handler.NewOpsHandler(cfg.Monitor, cfg.Version, cfg.Logger)
	statusHandler := handler.NewStatusHandler(cfg.Monitor, cfg.Trigger, cfg.Logger)

	stream := cfg.Stream
	if stream == nil {
		stream = handler.NewStreamHub(handler.StreamConfig{
			Source:  cfg.Monitor,
			Origins: cfg.CORSOrigins,
			Metrics: cfg.Metrics,
			Logger:  cfg.Logger,
		})
	}

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min
	checkRateLimit := middleware.RateLimitByIP(middleware.CheckRateLimit)       // 6 req/min

	r.Route("/api", func(r chi.Router) {
		r.Get("/", opsHandler.Root)
		r.Get("/health", opsHandler.HealthCheck)

		r.Route("/status", func(r chi.Router) {
			r.With(standardRateLimit).Get("/websites", statusHandler.ListWebsites)
			r.With(standardRateLimit).Get("/websites/{website}", statusHandler.GetWebsite)
			r.With(standardRateLimit).Get("/uptime", statusHandler.GetUptime)

			// Each check probes every site; keep manual triggers scarce.
			r.With(checkRateLimit).Post("/check", statusHandler.TriggerCheck)

			// Admin endpoints - rate limited per token subject
			r.With(
				middleware.AdminAuth(cfg.TokenAuth),
				middleware.RateLimitBySubject(middleware.AdminRateLimit),
			).Delete("/cleanup", statusHandler.Cleanup)

			r.Get("/stream", stream.Stream)
		})
	})

	return r
}
