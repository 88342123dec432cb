package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/api/models"
	"github.com/movielocations/movielocations/internal/api/response"
	"github.com/movielocations/movielocations/internal/movielocations"
	"github.com/movielocations/movielocations/internal/sparql"
)

// LocationService runs queries against the configured endpoint.
type LocationService interface {
	Query(ctx context.Context, fragment string) (*sparql.Table, error)
	Search(ctx context.Context, params movielocations.SearchParams) (*movielocations.SearchResult, error)
}

// QueryHandler handles raw SPARQL queries.
type QueryHandler struct {
	service LocationService
	logger  zerolog.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(service LocationService, logger zerolog.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		logger:  logger,
	}
}

// RunQuery handles POST /v1/query - run a query fragment and return the table.
func (h *QueryHandler) RunQuery(w http.ResponseWriter, r *http.Request) {
	var input models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(input.Query) == "" {
		response.BadRequest(w, r, "query is required", []models.FieldError{
			{Field: "query", Message: "required", Code: "REQUIRED"},
		})
		return
	}

	table, err := h.service.Query(r.Context(), input.Query)
	if err != nil {
		writeQueryError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, table)
}
