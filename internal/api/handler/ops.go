// Package handler provides HTTP handlers for the LoyalHOOD status API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/loyalhood/loyalhood/internal/api/models"
	"github.com/loyalhood/loyalhood/internal/api/response"
)

// healthPingTimeout bounds the store ping done by the health check.
const healthPingTimeout = 2 * time.Second

// HealthChecker reports the state of the result store and the monitor loop.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Running() bool
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	checker HealthChecker
	version string
	logger  zerolog.Logger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(checker HealthChecker, version string, logger zerolog.Logger) *OpsHandler {
	return &OpsHandler{
		checker: checker,
		version: version,
		logger:  logger,
	}
}

// Root handles GET /api/ - service banner.
func (h *OpsHandler) Root(w http.ResponseWriter, r *http.Request) {
	response.Message(w, r, http.StatusOK, "LoyalHOOD VPS Hosting API")
}

// HealthCheck handles GET /api/health. It answers 200 while the result store
// is reachable and 503 otherwise. A stopped monitor loop reports DEGRADED.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Database:   models.DatabaseConnected,
		Monitoring: models.MonitoringInactive,
		Version:    h.version,
	}
	if h.checker.Running() {
		health.Monitoring = models.MonitoringActive
	} else {
		health.Status = models.HealthStatusDegraded
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := h.checker.Ping(ctx); err != nil {
		h.logger.Error().Err(err).Msg("health check: result store unreachable")
		health.Status = models.HealthStatusFail
		health.Database = models.DatabaseDisconnected
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}

	response.JSON(w, r, http.StatusOK, health)
}
