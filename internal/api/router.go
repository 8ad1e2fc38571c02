// Package api provides the HTTP API for bookdrop.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/bookdrop/bookdrop/internal/api/handler"
	"github.com/bookdrop/bookdrop/internal/api/middleware"
	"github.com/bookdrop/bookdrop/internal/download"
	"github.com/bookdrop/bookdrop/internal/mailing"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	DownloadService *download.Service
	MailingService  *mailing.Service

	// DB is used by the readiness check; nil means in-memory mode.
	DB handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "bookdrop-api"
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
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.DB)
	downloadHandler := handler.NewDownloadHandler(cfg.DownloadService, cfg.Logger)
	mailingHandler := handler.NewMailingHandler(cfg.MailingService, cfg.Logger)

	// Rate limit middleware per endpoint category
	requestRateLimit := middleware.RateLimitByIP(middleware.RequestRateLimit)   // 10 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	r.Route("/download", func(r chi.Router) {
		r.With(requestRateLimit).Post("/request", downloadHandler.RequestDownload)

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			// /statistics before /{token} so chi doesn't treat it as a token
			r.Get("/statistics", downloadHandler.Statistics)
			r.Get("/{token}", downloadHandler.RedeemToken)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(standardRateLimit)
		r.Post("/unsubscribe/{email}", mailingHandler.Unsubscribe)
		r.Post("/resubscribe/{email}", mailingHandler.Resubscribe)
	})

	// Ops endpoints (no rate limiting; probed by the platform)
	r.Get("/health", opsHandler.HealthCheck)
	r.Get("/ready", opsHandler.ReadinessCheck)

	return r
}
