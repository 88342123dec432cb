// Package handler provides HTTP handlers for the movie locations API.
package handler

import (
	"net/http"
	"time"

	"github.com/movielocations/movielocations/internal/api/models"
	"github.com/movielocations/movielocations/internal/api/response"
	"github.com/movielocations/movielocations/internal/config"
	"github.com/movielocations/movielocations/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	store     config.Store
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. The registry may be nil.
func NewOpsHandler(version, buildTime string, store config.Store, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		store:     store,
		registry:  registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - ready once an endpoint is configured.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.Load(r.Context())
	if err != nil {
		response.ServiceUnavailable(w, r, "config store unavailable")
		return
	}
	if !cfg.IsConfigured() {
		response.ServiceUnavailable(w, r, "sparql endpoint is not configured")
		return
	}

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - config store and endpoint status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{h.configStatus(r)},
		Providers:  h.providerStatuses(),
	}

	for _, s := range status.Subsystems {
		if s.Status == models.HealthStatusFail {
			status.Status = models.HealthStatusFail
		}
	}
	for _, p := range status.Providers {
		if p.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) configStatus(r *http.Request) models.SubsystemStatus {
	s := models.SubsystemStatus{Name: "config-store", Status: models.HealthStatusOK}

	cfg, err := h.store.Load(r.Context())
	switch {
	case err != nil:
		detail := err.Error()
		s.Status = models.HealthStatusFail
		s.Detail = &detail
	case !cfg.IsConfigured():
		detail := "no endpoint configured"
		s.Status = models.HealthStatusDegraded
		s.Detail = &detail
	}
	return s
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.registry.AllHealth()
	providers := make([]models.ProviderStatus, 0, len(all))
	for _, health := range all {
		p := models.ProviderStatus{
			Provider:      health.Name,
			Status:        healthStatus(health.Status()),
			CircuitState:  health.CircuitState.String(),
			LastSuccessAt: models.TimestampPtr(health.LastSuccessAt),
			LastFailureAt: models.TimestampPtr(health.LastFailureAt),
		}
		if health.LastError != "" {
			msg := health.LastError
			p.Message = &msg
		}
		providers = append(providers, p)
	}
	return providers
}

func healthStatus(status string) models.HealthStatus {
	switch status {
	case resilience.StatusOK:
		return models.HealthStatusOK
	case resilience.StatusDegraded:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusFail
	}
}
