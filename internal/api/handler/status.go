package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/loyalhood/loyalhood/internal/api/middleware"
	"github.com/loyalhood/loyalhood/internal/api/models"
	"github.com/loyalhood/loyalhood/internal/api/response"
	"github.com/loyalhood/loyalhood/internal/monitor"
	"github.com/loyalhood/loyalhood/internal/website"
	"github.com/loyalhood/loyalhood/internal/worker"
)

// Bounds accepted for the olderThanDays cleanup parameter.
const (
	minCleanupDays = 1
	maxCleanupDays = 3650
)

// StatusService serves status queries from stored check results.
type StatusService interface {
	LatestStatus(ctx context.Context) (*monitor.Overview, error)
	Website(ctx context.Context, host string) (*website.LatestStatus, error)
	Uptime(ctx context.Context) ([]website.UptimeHour, error)
	CleanupOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// StatusHandler handles website status endpoints.
type StatusHandler struct {
	service StatusService
	trigger worker.Trigger
	logger  zerolog.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(service StatusService, trigger worker.Trigger, logger zerolog.Logger) *StatusHandler {
	return &StatusHandler{
		service: service,
		trigger: trigger,
		logger:  logger,
	}
}

// ListWebsites handles GET /api/status/websites - latest status of every site.
func (h *StatusHandler) ListWebsites(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.LatestStatus(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load website status")
		response.InternalError(w, r, "failed to fetch status")
		return
	}

	response.JSON(w, r, http.StatusOK, NewWebsitesResponse(overview))
}

// GetWebsite handles GET /api/status/websites/{website} - latest status of one site.
func (h *StatusHandler) GetWebsite(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "website")

	status, err := h.service.Website(r.Context(), host)
	switch {
	case errors.Is(err, website.ErrUnknownWebsite):
		response.NotFound(w, r, fmt.Sprintf("website %q is not monitored", host))
		return
	case errors.Is(err, website.ErrNoStatusData):
		response.NotFound(w, r, "no status data found for website")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("website", host).Msg("failed to load website status")
		response.InternalError(w, r, "failed to fetch status")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewWebsiteStatus(*status))
}

// GetUptime handles GET /api/status/uptime - hourly availability for the last 24 hours.
func (h *StatusHandler) GetUptime(w http.ResponseWriter, r *http.Request) {
	hours, err := h.service.Uptime(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to calculate uptime")
		response.InternalError(w, r, "failed to fetch uptime data")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewUptimeResponse(hours))
}

// TriggerCheck handles POST /api/status/check - queue an immediate check cycle.
func (h *StatusHandler) TriggerCheck(w http.ResponseWriter, r *http.Request) {
	job := worker.Job{
		JobType:   worker.JobStatusCheck,
		RequestID: middleware.GetRequestID(r.Context()),
	}

	if err := h.trigger.Trigger(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Msg("failed to trigger status check")
		response.ServiceUnavailable(w, r, "status check could not be queued")
		return
	}

	response.Accepted(w, r, "Status check initiated")
}

// Cleanup handles DELETE /api/status/cleanup - delete old check results.
// The optional olderThanDays query parameter overrides the retention period.
func (h *StatusHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var age time.Duration
	if raw := r.URL.Query().Get("olderThanDays"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < minCleanupDays || days > maxCleanupDays {
			response.BadRequest(w, r, "invalid query parameter", []models.FieldError{{
				Field:   "olderThanDays",
				Message: fmt.Sprintf("must be an integer between %d and %d", minCleanupDays, maxCleanupDays),
				Code:    "out_of_range",
			}})
			return
		}
		age = time.Duration(days) * 24 * time.Hour
	}

	deleted, err := h.service.CleanupOlderThan(r.Context(), age)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to clean up status data")
		response.InternalError(w, r, "failed to clean up status data")
		return
	}

	h.logger.Info().
		Str("subject", middleware.GetSubject(r.Context())).
		Int64("deleted", deleted).
		Msg("status data cleaned up")

	response.JSON(w, r, http.StatusOK, models.CleanupResponse{
		Message: "Old status data cleaned up",
		Deleted: deleted,
	})
}

// NewWebsitesResponse converts a monitor overview to its API form.
func NewWebsitesResponse(o *monitor.Overview) models.WebsitesResponse {
	out := models.WebsitesResponse{
		Websites:    make(map[string]models.WebsiteStatus, len(o.Websites)),
		Overall:     string(o.Overall),
		LastUpdated: models.Timestamp(o.LastUpdated),
	}
	for host, s := range o.Websites {
		out.Websites[host] = models.NewWebsiteStatus(s)
	}
	return out
}
