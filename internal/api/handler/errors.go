package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/api/response"
	"github.com/movielocations/movielocations/internal/movielocations"
	"github.com/movielocations/movielocations/internal/provider/resilience"
	"github.com/movielocations/movielocations/internal/sparql"
	"github.com/movielocations/movielocations/internal/verify"
)

// writeQueryError maps errors from the query path to problem responses.
func writeQueryError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var httpErr *sparql.HTTPError
	switch {
	case errors.Is(err, movielocations.ErrEndpointNotConfigured):
		response.ServiceUnavailable(w, r, err.Error())
	case errors.Is(err, movielocations.ErrConfigUnavailable):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to load config")
		response.InternalError(w, r, "failed to load config")
	case errors.Is(err, movielocations.ErrInvalidCoordinates),
		errors.Is(err, movielocations.ErrInvalidRadius):
		response.BadRequest(w, r, err.Error(), nil)
	case verify.IsWrongRuleset(err):
		response.RulesetMisconfigured(w, r, err.Error())
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusBadRequest:
		// The endpoint rejected the query text
		response.BadRequest(w, r, httpErr.Error(), nil)
	case errors.Is(err, resilience.ErrCircuitOpen):
		response.ServiceUnavailable(w, r, "sparql endpoint is temporarily unavailable")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("request canceled")
	default:
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("sparql endpoint error")
		response.BadGateway(w, r, err.Error())
	}
}
