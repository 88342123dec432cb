package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/api/models"
	"github.com/movielocations/movielocations/internal/api/response"
	"github.com/movielocations/movielocations/internal/movielocations"
	"github.com/movielocations/movielocations/pkg/geo"
)

// LocationsHandler handles filming location searches.
type LocationsHandler struct {
	service LocationService
	logger  zerolog.Logger
}

// NewLocationsHandler creates a new LocationsHandler.
func NewLocationsHandler(service LocationService, logger zerolog.Logger) *LocationsHandler {
	return &LocationsHandler{
		service: service,
		logger:  logger,
	}
}

// ListLocations handles GET /v1/locations - search filming locations by
// title and/or proximity. Query parameters: title (repeatable), lat, lon,
// radiusKm and limit.
func (h *LocationsHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	params, fieldErrors := parseSearchParams(r)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrors)
		return
	}

	result, err := h.service.Search(r.Context(), params)
	if err != nil {
		writeQueryError(w, r, h.logger, err)
		return
	}

	resp := models.LocationsResponse{
		Items: make([]models.Location, 0, len(result.Locations)),
		Meta: models.LocationsMeta{
			Limit:   effectiveLimit(params.Limit),
			Count:   len(result.Locations),
			Skipped: result.Skipped,
		},
	}
	if params.Center != nil {
		radius := params.RadiusKm
		if radius == 0 {
			radius = movielocations.DefaultRadiusKm
		}
		resp.Meta.Center = &models.Point{Lat: params.Center.Lat, Lon: params.Center.Lon}
		resp.Meta.RadiusKm = &radius
	}
	for _, loc := range result.Locations {
		resp.Items = append(resp.Items, models.Location{
			Show:       loc.Show,
			Title:      loc.Title,
			Place:      loc.Place,
			Point:      models.Point{Lat: loc.Lat, Lon: loc.Lon},
			DistanceKm: loc.DistanceKm,
		})
	}

	response.JSON(w, r, http.StatusOK, resp)
}

func parseSearchParams(r *http.Request) (movielocations.SearchParams, []models.FieldError) {
	q := r.URL.Query()
	var (
		params movielocations.SearchParams
		errs   []models.FieldError
	)

	for _, title := range q["title"] {
		if title != "" {
			params.Titles = append(params.Titles, title)
		}
	}

	lat, latSet, err := parseFloatParam(q.Get("lat"))
	if err != nil || (latSet && (lat < -90 || lat > 90)) {
		errs = append(errs, models.FieldError{Field: "lat", Message: "must be a number between -90 and 90", Code: "OUT_OF_RANGE"})
	}
	lon, lonSet, err := parseFloatParam(q.Get("lon"))
	if err != nil || (lonSet && (lon < -180 || lon > 180)) {
		errs = append(errs, models.FieldError{Field: "lon", Message: "must be a number between -180 and 180", Code: "OUT_OF_RANGE"})
	}
	if latSet != lonSet {
		errs = append(errs, models.FieldError{Field: "lat,lon", Message: "must be given together", Code: "REQUIRED"})
	}
	if latSet && lonSet {
		params.Center = &geo.Point{Lat: lat, Lon: lon}
	}

	radius, radiusSet, err := parseFloatParam(q.Get("radiusKm"))
	switch {
	case err != nil || (radiusSet && radius <= 0):
		errs = append(errs, models.FieldError{Field: "radiusKm", Message: "must be a positive number", Code: "OUT_OF_RANGE"})
	case radiusSet && params.Center == nil && latSet == lonSet:
		errs = append(errs, models.FieldError{Field: "radiusKm", Message: "requires lat and lon", Code: "REQUIRED"})
	default:
		params.RadiusKm = radius
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > movielocations.MaxLimit {
			errs = append(errs, models.FieldError{
				Field:   "limit",
				Message: "must be an integer between 1 and " + strconv.Itoa(movielocations.MaxLimit),
				Code:    "OUT_OF_RANGE",
			})
		} else {
			params.Limit = limit
		}
	}

	return params, errs
}

var errNotFinite = errors.New("not a finite number")

// parseFloatParam parses an optional query parameter.
func parseFloatParam(raw string) (value float64, set bool, err error) {
	if raw == "" {
		return 0, false, nil
	}
	value, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, true, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, true, errNotFinite
	}
	return value, true, nil
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return movielocations.DefaultLimit
	}
	return limit
}
