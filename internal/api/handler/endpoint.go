package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/api/models"
	"github.com/movielocations/movielocations/internal/api/response"
	"github.com/movielocations/movielocations/internal/config"
	"github.com/movielocations/movielocations/internal/verify"
)

// EndpointHandler handles endpoint verification.
type EndpointHandler struct {
	store   config.Store
	checker EndpointChecker
	logger  zerolog.Logger
}

// NewEndpointHandler creates a new EndpointHandler.
func NewEndpointHandler(store config.Store, checker EndpointChecker, logger zerolog.Logger) *EndpointHandler {
	return &EndpointHandler{
		store:   store,
		checker: checker,
		logger:  logger,
	}
}

// VerifyEndpoint handles POST /v1/endpoint:verify - probe an endpoint for
// the OWL2-RL ruleset. Without a body the stored endpoint is checked.
func (h *EndpointHandler) VerifyEndpoint(w http.ResponseWriter, r *http.Request) {
	var input models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	endpoint := strings.TrimSpace(input.Endpoint)
	if endpoint == "" {
		cfg, err := h.store.Load(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to load config")
			response.InternalError(w, r, "failed to load config")
			return
		}
		if !cfg.IsConfigured() {
			response.BadRequest(w, r, "no endpoint given and none configured", []models.FieldError{
				{Field: "endpoint", Message: "required", Code: "REQUIRED"},
			})
			return
		}
		endpoint = cfg.Endpoint
	} else if fieldErr := validateEndpoint(endpoint); fieldErr != nil {
		response.BadRequest(w, r, "invalid endpoint", []models.FieldError{*fieldErr})
		return
	}

	result := h.checker.Check(r.Context(), endpoint)
	if !result.OK() {
		writeCheckError(w, r, h.logger, endpoint, result)
		return
	}

	response.JSON(w, r, http.StatusOK, models.VerifyResult{
		Endpoint: endpoint,
		Outcome:  result.Outcome.String(),
	})
}

// writeCheckError maps a failed check to 422 (ruleset) or 502 (transport).
func writeCheckError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, endpoint string, result verify.Result) {
	log.Warn().
		Err(result.Err).
		Str("endpoint", endpoint).
		Str("outcome", result.Outcome.String()).
		Msg("endpoint check failed")

	switch result.Outcome {
	case verify.OutcomeRulesetMisconfigured:
		response.RulesetMisconfigured(w, r, result.Err.Error())
	default:
		response.BadGateway(w, r, result.Err.Error())
	}
}
