// Package handler provides HTTP handlers for the TripGuard API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/tripguard/tripguard/internal/api/models"
	"github.com/tripguard/tripguard/internal/api/response"
	"github.com/tripguard/tripguard/internal/livedata"
	"github.com/tripguard/tripguard/internal/provider/resilience"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can be checked for liveness, such as a
// *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds the dependencies reported by the ops endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Database is nil when profiles are kept in memory.
	Database Pinger

	Registry *resilience.Registry
	LiveData *livedata.Service
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service
// is not ready while the profile database is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	}

	if db := h.databaseStatus(r.Context()); db != nil && db.Status == models.HealthStatusFail {
		health.Status = models.HealthStatusFail
		health.Details = map[string]interface{}{"database": db.Detail}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - feed and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.now()),
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	if db := h.databaseStatus(r.Context()); db != nil {
		status.Subsystems = append(status.Subsystems, *db)
		if db.Status == models.HealthStatusFail {
			status.Status = models.HealthStatusFail
		}
	}

	if h.cfg.LiveData != nil {
		stats := h.cfg.LiveData.CacheStats()
		status.Cache = &models.CacheStatus{
			Provider:     stats.Provider,
			Entries:      stats.Entries,
			FreshEntries: stats.FreshEntries,
		}
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "livedata-cache",
			Status: models.HealthStatusOK,
		})
	}

	if h.cfg.Registry != nil {
		for _, feed := range h.cfg.Registry.All() {
			ps := toProviderStatus(feed)
			if ps.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) databaseStatus(ctx context.Context) *models.SubsystemStatus {
	if h.cfg.Database == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	s := &models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
	if err := h.cfg.Database.Ping(ctx); err != nil {
		s.Status = models.HealthStatusFail
		s.Detail = "database unreachable"
	}
	return s
}

func toProviderStatus(feed resilience.FeedHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:     feed.Name,
		CircuitState: feed.State.String(),
		Message:      feed.LastError,
	}
	switch feed.Status() {
	case resilience.StatusHealthy:
		ps.Status = models.HealthStatusOK
	case resilience.StatusDegraded:
		ps.Status = models.HealthStatusDegraded
	default:
		ps.Status = models.HealthStatusFail
	}
	if feed.LastSuccessAt != nil {
		ts := models.Timestamp(*feed.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if feed.LastFailureAt != nil {
		ts := models.Timestamp(*feed.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	return ps
}
