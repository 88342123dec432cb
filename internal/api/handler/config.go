package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/api/models"
	"github.com/movielocations/movielocations/internal/api/response"
	"github.com/movielocations/movielocations/internal/config"
	"github.com/movielocations/movielocations/internal/verify"
)

// EndpointChecker probes a SPARQL endpoint.
type EndpointChecker interface {
	Check(ctx context.Context, endpoint string) verify.Result
}

// ConfigHandler handles the persisted configuration.
type ConfigHandler struct {
	store   config.Store
	checker EndpointChecker
	logger  zerolog.Logger
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(store config.Store, checker EndpointChecker, logger zerolog.Logger) *ConfigHandler {
	return &ConfigHandler{
		store:   store,
		checker: checker,
		logger:  logger,
	}
}

// GetConfig handles GET /v1/config - the stored endpoint.
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load config")
		response.InternalError(w, r, "failed to load config")
		return
	}
	response.JSON(w, r, http.StatusOK, toConfigModel(cfg))
}

// UpdateConfig handles PUT /v1/config - verify then store a new endpoint.
func (h *ConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var input models.ConfigUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	endpoint := strings.TrimSpace(input.Endpoint)
	if fieldErr := validateEndpoint(endpoint); fieldErr != nil {
		response.BadRequest(w, r, "invalid endpoint", []models.FieldError{*fieldErr})
		return
	}

	if !input.SkipVerify {
		result := h.checker.Check(r.Context(), endpoint)
		if !result.OK() {
			writeCheckError(w, r, h.logger, endpoint, result)
			return
		}
	}

	cfg := &config.Config{Endpoint: endpoint}
	if err := h.store.Save(r.Context(), cfg); err != nil {
		h.logger.Error().Err(err).Msg("failed to save config")
		response.InternalError(w, r, "failed to save config")
		return
	}

	h.logger.Info().
		Str("endpoint", endpoint).
		Bool("verified", !input.SkipVerify).
		Msg("endpoint updated")

	response.JSON(w, r, http.StatusOK, toConfigModel(cfg))
}

func toConfigModel(cfg *config.Config) models.Config {
	return models.Config{
		Endpoint:   cfg.Endpoint,
		Configured: cfg.IsConfigured(),
	}
}

// validateEndpoint accepts absolute http(s) URLs.
func validateEndpoint(endpoint string) *models.FieldError {
	if endpoint == "" {
		return &models.FieldError{Field: "endpoint", Message: "required", Code: "REQUIRED"}
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &models.FieldError{Field: "endpoint", Message: "must be an absolute http or https URL", Code: "INVALID_URL"}
	}
	return nil
}
