// Package handler provides HTTP handlers for the trip planner API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripplanner/tripplanner/internal/api/middleware"
	"github.com/tripplanner/tripplanner/internal/api/models"
	"github.com/tripplanner/tripplanner/internal/api/response"
	"github.com/tripplanner/tripplanner/internal/provider/resilience"
	"github.com/tripplanner/tripplanner/internal/routing"
)

// readyTimeout bounds the database ping of the readiness check.
const readyTimeout = 2 * time.Second

// Pinger checks connectivity to a backing store. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandlerConfig holds the dependencies of the operational endpoints.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string

	// DB is pinged by the readiness and status checks. Nil skips the check.
	DB Pinger

	// Estimator exposes the route cache and its provider.
	Estimator *routing.Estimator

	// Registry reports provider circuit health (optional).
	Registry *resilience.Registry

	Logger zerolog.Logger
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	db        Pinger
	estimator *routing.Estimator
	registry  *resilience.Registry
	logger    zerolog.Logger
	now       func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		db:        cfg.DB,
		estimator: cfg.Estimator,
		registry:  cfg.Registry,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service is
// ready once the stop store answers.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.pingDB(r.Context()); err != nil {
		h.logger.Warn().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("readiness check failed")
		response.ServiceUnavailable(w, r, "database unavailable")
		return
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	})
}

// SystemStatus handles GET /v1/ops/status - subsystem, provider and route
// cache status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(h.now()),
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	if h.db != nil {
		db := models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK}
		if err := h.pingDB(r.Context()); err != nil {
			detail := err.Error()
			db.Status = models.HealthStatusFail
			db.Detail = &detail
			status.Status = models.HealthStatusFail
		}
		status.Subsystems = append(status.Subsystems, db)
	}

	if h.estimator != nil {
		cache := h.estimator.Cache()
		stats := cache.Stats()
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "route-cache",
			Status: models.HealthStatusOK,
		})
		status.RouteCache = models.RouteCacheStats{
			Provider:       h.estimator.ProviderName(),
			Mode:           string(h.estimator.Mode()),
			TTLSeconds:     cache.TTL().Seconds(),
			TotalEntries:   stats.TotalEntries,
			LiveEntries:    stats.LiveEntries,
			Tombstones:     stats.Tombstones,
			ExpiredEntries: stats.ExpiredEntries,
			Hits:           stats.Hits,
			Misses:         stats.Misses,
		}
	}

	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			ps := providerStatus(ph)
			if ps.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

// FlushRouteCache handles DELETE /v1/ops/route-cache - drops every cached
// estimate and tombstone.
func (h *OpsHandler) FlushRouteCache(w http.ResponseWriter, r *http.Request) {
	if h.estimator == nil {
		response.NotFound(w, r, "route cache not configured")
		return
	}

	before := h.estimator.Cache().Stats().TotalEntries
	h.estimator.Cache().Flush()

	h.logger.Info().
		Str("request_id", middleware.GetRequestID(r.Context())).
		Int("entries", before).
		Msg("route cache flushed")

	response.NoContent(w, r)
}

func (h *OpsHandler) pingDB(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	return h.db.Ping(ctx)
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:     ph.Name,
		CircuitState: ph.CircuitState.String(),
	}

	switch ph.Status() {
	case "unhealthy":
		ps.Status = models.HealthStatusFail
	case "degraded":
		ps.Status = models.HealthStatusDegraded
	default:
		ps.Status = models.HealthStatusOK
	}

	if ph.LastSuccessAt != nil {
		ts := models.Timestamp(*ph.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if ph.LastFailureAt != nil {
		ts := models.Timestamp(*ph.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
