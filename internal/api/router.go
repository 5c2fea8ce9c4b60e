// Package api provides the HTTP API for TripGuard.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tripguard/tripguard/internal/advisory"
	"github.com/tripguard/tripguard/internal/api/handler"
	"github.com/tripguard/tripguard/internal/api/middleware"
	"github.com/tripguard/tripguard/internal/livedata"
	"github.com/tripguard/tripguard/internal/profile"
	"github.com/tripguard/tripguard/internal/provider/resilience"
)

// DefaultServiceName is used for tracing when RouterConfig.ServiceName is empty.
const DefaultServiceName = "tripguard-api"

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	Advisory *advisory.Service
	Profiles *profile.Service
	LiveData *livedata.Service
	Registry *resilience.Registry

	// Database is checked by the readiness probe when set.
	Database handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Database:  cfg.Database,
		Registry:  cfg.Registry,
		LiveData:  cfg.LiveData,
	})
	travelHandler := handler.NewTravelHandler(cfg.Advisory)
	profileHandler := handler.NewProfileHandler(cfg.Profiles)
	metadataHandler := handler.NewMetadataHandler()

	reportRateLimit := middleware.RateLimitByIP(middleware.ReportRateLimit)     // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints are not rate limited so probes never see 429.
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/enums", metadataHandler.GetEnums)
		})

		r.With(reportRateLimit, middleware.RequireJSON).Post("/travel/reports", travelHandler.CreateReport)

		r.Route("/profiles", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.With(middleware.RequireJSON).Post("/", profileHandler.CreateProfile)
			r.Route("/{profileId}", func(r chi.Router) {
				r.Get("/", profileHandler.GetProfile)
				r.With(middleware.RequireJSON).Put("/", profileHandler.UpsertProfile)
				r.Delete("/", profileHandler.DeleteProfile)
			})
		})
	})

	return r
}
