package worker

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tripguard/tripguard/internal/api/middleware"
	"github.com/tripguard/tripguard/internal/api/models"
	"github.com/tripguard/tripguard/internal/api/response"
)

// HealthConfig holds configuration for the worker health endpoint.
type HealthConfig struct {
	Version    string
	RefreshJob *RefreshJob
	Logger     zerolog.Logger
}

// NewHealthRouter serves GET /health for the platform's liveness checks,
// reporting the refresh job counters alongside the version.
func NewHealthRouter(cfg HealthConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		details := map[string]interface{}{
			"version": cfg.Version,
		}
		if cfg.RefreshJob != nil {
			details["refresh"] = cfg.RefreshJob.MetricsSnapshot()
		}

		response.JSON(w, r, http.StatusOK, models.Health{
			Status:  models.HealthStatusOK,
			Time:    models.Timestamp(time.Now()),
			Details: details,
		})
	})

	return r
}
