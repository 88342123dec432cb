// Package movielocations searches filming locations of shows on the
// configured SPARQL endpoint.
package movielocations

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/config"
	"github.com/movielocations/movielocations/internal/sparql"
	"github.com/movielocations/movielocations/pkg/geo"
)

// Querier runs a query fragment against one endpoint.
type Querier interface {
	Query(ctx context.Context, fragment string) (*sparql.Table, error)
}

// QuerierFactory builds a Querier bound to endpoint.
type QuerierFactory func(endpoint string) Querier

// ServiceConfig holds configuration for the search service.
type ServiceConfig struct {
	// Store holds the endpoint URL.
	Store config.Store

	// Factory builds query clients. Clients are reused per endpoint.
	Factory QuerierFactory

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service answers location searches and raw queries.
type Service struct {
	store   config.Store
	factory QuerierFactory
	logger  zerolog.Logger

	mu      sync.Mutex
	clients map[string]Querier
}

// NewService creates a new search service.
func NewService(cfg ServiceConfig) *Service {
	factory := cfg.Factory
	if factory == nil {
		factory = func(endpoint string) Querier {
			return sparql.NewClient(sparql.ClientConfig{
				Endpoint: endpoint,
				Logger:   cfg.Logger,
			})
		}
	}

	return &Service{
		store:   cfg.Store,
		factory: factory,
		logger:  cfg.Logger,
		clients: make(map[string]Querier),
	}
}

// Endpoint returns the configured endpoint or ErrEndpointNotConfigured. Store
// failures are wrapped with ErrConfigUnavailable.
func (s *Service) Endpoint(ctx context.Context) (string, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConfigUnavailable, err)
	}
	if !cfg.IsConfigured() {
		return "", ErrEndpointNotConfigured
	}
	return cfg.Endpoint, nil
}

// Query runs a raw query fragment against the configured endpoint.
func (s *Service) Query(ctx context.Context, fragment string) (*sparql.Table, error) {
	client, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Query(ctx, fragment)
}

// Search returns the filming locations matching params. With a center the
// results are those within the radius, nearest first. A radius that crosses
// the antimeridian also matches locations on the other side of it.
func (s *Service) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	client, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	table, err := client.Query(ctx, BuildQuery(params))
	if err != nil {
		return nil, err
	}

	result := &SearchResult{Locations: make([]*Location, 0, table.Len())}
	for i, row := range table.Rows {
		loc, ok := locationFromRow(row)
		if !ok {
			s.logger.Debug().
				Int("row", i).
				Str("show", row["show"].String()).
				Msg("skipping location with unusable coordinates")
			result.Skipped++
			continue
		}

		if params.Center != nil {
			d := geo.Distance(*params.Center, loc.Point())
			if d > params.radius() {
				continue
			}
			loc.DistanceKm = &d
		}
		result.Locations = append(result.Locations, loc)
	}

	if params.Center != nil {
		sort.SliceStable(result.Locations, func(i, j int) bool {
			return *result.Locations[i].DistanceKm < *result.Locations[j].DistanceKm
		})
	}
	if limit := params.limit(); len(result.Locations) > limit {
		result.Locations = result.Locations[:limit]
	}

	return result, nil
}

func (s *Service) client(ctx context.Context) (Querier, error) {
	endpoint, err := s.Endpoint(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[endpoint]
	if !ok {
		client = s.factory(endpoint)
		s.clients[endpoint] = client
	}
	return client, nil
}

// BuildQuery renders the SELECT fragment for params. With a center, the
// bounding box of the radius is used as a prefilter and no LIMIT is sent,
// since the exact radius test happens after the query.
func BuildQuery(params SearchParams) string {
	var b strings.Builder
	b.WriteString("SELECT ?show ?title ?location ?lat ?lon WHERE {")
	b.WriteString(" ?show ml:title ?title .")
	b.WriteString(" ?show ml:filmedAt ?location .")
	b.WriteString(" ?location ml:latitude ?lat .")
	b.WriteString(" ?location ml:longitude ?lon .")

	if len(params.Titles) > 0 {
		b.WriteString(" ")
		b.WriteString(sparql.FilterString("title", params.Titles))
	}

	if params.Center != nil {
		box := geo.MinMaxCoords(params.Center.Lat, params.Center.Lon, params.radius())
		b.WriteString(" ")
		b.WriteString(sparql.RangeFilter("lat", box.LatMin, box.LatMax))
		if lon := lonFilter(box); lon != "" {
			b.WriteString(" ")
			b.WriteString(lon)
		}
	}

	b.WriteString(" }")

	if params.Center == nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(params.limit()))
	}

	return b.String()
}

// lonFilter folds the parts of box that run past ±180 back onto the other
// side. A box 360 degrees wide or more covers every longitude and needs no
// filter.
func lonFilter(box geo.BoundingBox) string {
	switch {
	case box.LonMax-box.LonMin >= 360:
		return ""
	case box.LonMin < -180:
		return sparql.AnyRangeFilter("lon",
			sparql.Range{Min: box.LonMin + 360, Max: 180},
			sparql.Range{Min: -180, Max: box.LonMax},
		)
	case box.LonMax > 180:
		return sparql.AnyRangeFilter("lon",
			sparql.Range{Min: box.LonMin, Max: 180},
			sparql.Range{Min: -180, Max: box.LonMax - 360},
		)
	default:
		return sparql.RangeFilter("lon", box.LonMin, box.LonMax)
	}
}

func locationFromRow(row sparql.Row) (*Location, bool) {
	lat, ok := row["lat"].Float64()
	if !ok || lat < -90 || lat > 90 {
		return nil, false
	}
	lon, ok := row["lon"].Float64()
	if !ok || lon < -180 || lon > 180 {
		return nil, false
	}

	return &Location{
		Show:  row["show"].String(),
		Title: row["title"].String(),
		Place: row["location"].String(),
		Lat:   lat,
		Lon:   lon,
	}, true
}
