package movielocations

import (
	"errors"

	"github.com/movielocations/movielocations/pkg/geo"
)

// Search limits.
const (
	DefaultLimit    = 100
	MaxLimit        = 1000
	DefaultRadiusKm = 10.0
)

// Service errors.
var (
	// ErrEndpointNotConfigured is returned when no SPARQL endpoint is stored.
	ErrEndpointNotConfigured = errors.New("sparql endpoint is not configured")

	// ErrConfigUnavailable wraps failures to read the config store.
	ErrConfigUnavailable = errors.New("config store unavailable")

	// ErrInvalidCoordinates is returned for a center outside [-90,90]x[-180,180].
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrInvalidRadius is returned for a negative radius.
	ErrInvalidRadius = errors.New("radius must not be negative")
)

// Location is a filming location of a show.
type Location struct {
	Show       string   `json:"show"`
	Title      string   `json:"title"`
	Place      string   `json:"place"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// Point returns the coordinates of the location.
func (l *Location) Point() geo.Point {
	return geo.Point{Lat: l.Lat, Lon: l.Lon}
}

// SearchParams selects locations.
type SearchParams struct {
	// Titles restricts results to shows with one of these titles.
	Titles []string

	// Center enables the proximity search.
	Center *geo.Point

	// RadiusKm around Center (default: 10).
	RadiusKm float64

	// Limit caps the number of results (default: 100, max: 1000).
	Limit int
}

// Validate checks the parameters.
func (p *SearchParams) Validate() error {
	if p.RadiusKm < 0 {
		return ErrInvalidRadius
	}
	if p.Center != nil {
		if p.Center.Lat < -90 || p.Center.Lat > 90 || p.Center.Lon < -180 || p.Center.Lon > 180 {
			return ErrInvalidCoordinates
		}
	}
	return nil
}

func (p *SearchParams) limit() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

func (p *SearchParams) radius() float64 {
	if p.RadiusKm == 0 {
		return DefaultRadiusKm
	}
	return p.RadiusKm
}

// SearchResult is the result of a search.
type SearchResult struct {
	Locations []*Location `json:"locations"`

	// Skipped counts rows dropped because of unusable coordinates.
	Skipped int `json:"skipped"`
}
