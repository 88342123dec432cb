package movielocations_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movielocations/movielocations/internal/config"
	"github.com/movielocations/movielocations/internal/movielocations"
	"github.com/movielocations/movielocations/internal/sparql"
	"github.com/movielocations/movielocations/pkg/geo"
)

type recordingQuerier struct {
	csv       string
	err       error
	fragments []string
}

func (q *recordingQuerier) Query(_ context.Context, fragment string) (*sparql.Table, error) {
	q.fragments = append(q.fragments, fragment)
	if q.err != nil {
		return nil, q.err
	}
	return sparql.ParseCSV(strings.NewReader(q.csv))
}

const locationsCSV = "show,title,location,lat,lon\n" +
	"ml:s1,Notting Hill,ml:portobello,51.5155,-0.2050\n" +
	"ml:s2,Skyfall,ml:whitehall,51.5033,-0.1276\n" +
	"ml:s3,Amelie,ml:montmartre,48.8867,2.3431\n" +
	"ml:s4,Broken,ml:nowhere,,\n" +
	"ml:s5,Broken,ml:text,north,west\n"

func newService(t *testing.T, q *recordingQuerier) *movielocations.Service {
	t.Helper()
	var factoryCalls int
	svc := movielocations.NewService(movielocations.ServiceConfig{
		Store: config.NewMemoryStoreWithEndpoint("http://example.org/sparql"),
		Factory: func(endpoint string) movielocations.Querier {
			factoryCalls++
			assert.Equal(t, "http://example.org/sparql", endpoint)
			assert.Equal(t, 1, factoryCalls, "client is reused per endpoint")
			return q
		},
	})
	return svc
}

func TestService_Search_All(t *testing.T) {
	q := &recordingQuerier{csv: locationsCSV}
	svc := newService(t, q)

	result, err := svc.Search(context.Background(), movielocations.SearchParams{})
	require.NoError(t, err)

	require.Len(t, result.Locations, 3)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, "Notting Hill", result.Locations[0].Title)
	assert.Nil(t, result.Locations[0].DistanceKm)

	require.Len(t, q.fragments, 1)
	assert.True(t, strings.HasSuffix(q.fragments[0], " LIMIT 100"))
	assert.NotContains(t, q.fragments[0], "FILTER")
}

func TestService_Search_ByTitle(t *testing.T) {
	q := &recordingQuerier{csv: "show,title,location,lat,lon\n"}
	svc := newService(t, q)

	_, err := svc.Search(context.Background(), movielocations.SearchParams{
		Titles: []string{"Skyfall", "Amelie"},
		Limit:  5000,
	})
	require.NoError(t, err)

	require.Len(t, q.fragments, 1)
	assert.Contains(t, q.fragments[0], `FILTER(?title = "Skyfall" || ?title = "Amelie")`)
	assert.True(t, strings.HasSuffix(q.fragments[0], " LIMIT 1000"))
}

func TestService_Search_Nearby(t *testing.T) {
	q := &recordingQuerier{csv: locationsCSV}
	svc := newService(t, q)

	// Trafalgar Square
	center := &geo.Point{Lat: 51.5080, Lon: -0.1281}
	result, err := svc.Search(context.Background(), movielocations.SearchParams{
		Center:   center,
		RadiusKm: 10,
	})
	require.NoError(t, err)

	require.Len(t, result.Locations, 2, "Paris is outside the radius")
	assert.Equal(t, "Skyfall", result.Locations[0].Title)
	assert.Equal(t, "Notting Hill", result.Locations[1].Title)
	require.NotNil(t, result.Locations[0].DistanceKm)
	assert.Less(t, *result.Locations[0].DistanceKm, *result.Locations[1].DistanceKm)
	assert.InDelta(t, 0.52, *result.Locations[0].DistanceKm, 0.05)

	box := geo.MinMaxCoords(center.Lat, center.Lon, 10)
	fragment := q.fragments[0]
	assert.Contains(t, fragment, sparql.RangeFilter("lat", box.LatMin, box.LatMax))
	assert.Contains(t, fragment, sparql.RangeFilter("lon", box.LonMin, box.LonMax))
	assert.NotContains(t, fragment, "LIMIT")
}

func TestService_Search_AcrossAntimeridian(t *testing.T) {
	q := &recordingQuerier{csv: "show,title,location,lat,lon\n" +
		"ml:s1,East,ml:east,-17.0,179.90\n" +
		"ml:s2,West,ml:west,-17.0,-179.95\n" +
		"ml:s3,Far,ml:far,-17.0,-178.0\n"}
	svc := newService(t, q)

	center := &geo.Point{Lat: -17.0, Lon: 179.95}
	result, err := svc.Search(context.Background(), movielocations.SearchParams{
		Center:   center,
		RadiusKm: 20,
	})
	require.NoError(t, err)

	require.Len(t, result.Locations, 2)
	assert.Equal(t, "East", result.Locations[0].Title)
	assert.Equal(t, "West", result.Locations[1].Title)

	box := geo.MinMaxCoords(center.Lat, center.Lon, 20)
	require.Greater(t, box.LonMax, 180.0)
	assert.Contains(t, q.fragments[0], sparql.AnyRangeFilter("lon",
		sparql.Range{Min: box.LonMin, Max: 180},
		sparql.Range{Min: -180, Max: box.LonMax - 360},
	))
}

func TestBuildQuery_LongitudeWrap(t *testing.T) {
	west := geo.Point{Lat: 65.0, Lon: -179.9}
	box := geo.MinMaxCoords(west.Lat, west.Lon, 50)
	fragment := movielocations.BuildQuery(movielocations.SearchParams{Center: &west, RadiusKm: 50})
	assert.Contains(t, fragment, sparql.AnyRangeFilter("lon",
		sparql.Range{Min: box.LonMin + 360, Max: 180},
		sparql.Range{Min: -180, Max: box.LonMax},
	))

	// Wide enough to cover every longitude.
	fragment = movielocations.BuildQuery(movielocations.SearchParams{
		Center:   &geo.Point{Lat: 0, Lon: 10},
		RadiusKm: 20000,
	})
	assert.Contains(t, fragment, "?lat >=")
	assert.NotContains(t, fragment, "?lon >=")
}

func TestService_Search_NearbyLimit(t *testing.T) {
	q := &recordingQuerier{csv: locationsCSV}
	svc := newService(t, q)

	result, err := svc.Search(context.Background(), movielocations.SearchParams{
		Center:   &geo.Point{Lat: 51.5080, Lon: -0.1281},
		RadiusKm: 1000,
		Limit:    1,
	})
	require.NoError(t, err)

	require.Len(t, result.Locations, 1)
	assert.Equal(t, "Skyfall", result.Locations[0].Title)
}

func TestService_Search_InvalidParams(t *testing.T) {
	svc := newService(t, &recordingQuerier{})

	_, err := svc.Search(context.Background(), movielocations.SearchParams{RadiusKm: -1})
	assert.ErrorIs(t, err, movielocations.ErrInvalidRadius)

	_, err = svc.Search(context.Background(), movielocations.SearchParams{
		Center: &geo.Point{Lat: 91, Lon: 0},
	})
	assert.ErrorIs(t, err, movielocations.ErrInvalidCoordinates)
}

func TestService_NotConfigured(t *testing.T) {
	svc := movielocations.NewService(movielocations.ServiceConfig{
		Store: config.NewMemoryStore(),
		Factory: func(string) movielocations.Querier {
			t.Fatal("no client should be built without an endpoint")
			return nil
		},
	})

	_, err := svc.Search(context.Background(), movielocations.SearchParams{})
	assert.ErrorIs(t, err, movielocations.ErrEndpointNotConfigured)

	_, err = svc.Query(context.Background(), "SELECT * WHERE {?s ?p ?o}")
	assert.ErrorIs(t, err, movielocations.ErrEndpointNotConfigured)
}

type brokenStore struct{ config.MemoryStore }

func (*brokenStore) Load(context.Context) (*config.Config, error) {
	return nil, errors.New("read config.ini: permission denied")
}

func TestService_StoreFailure(t *testing.T) {
	svc := movielocations.NewService(movielocations.ServiceConfig{
		Store: &brokenStore{},
		Factory: func(string) movielocations.Querier {
			t.Fatal("no client should be built without a config")
			return nil
		},
	})

	_, err := svc.Search(context.Background(), movielocations.SearchParams{})
	assert.ErrorIs(t, err, movielocations.ErrConfigUnavailable)
	assert.NotErrorIs(t, err, movielocations.ErrEndpointNotConfigured)
	assert.ErrorContains(t, err, "permission denied")
}

func TestService_QueryErrorPropagates(t *testing.T) {
	want := &sparql.HTTPError{StatusCode: 500}
	svc := newService(t, &recordingQuerier{err: want})

	_, err := svc.Search(context.Background(), movielocations.SearchParams{})
	var httpErr *sparql.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 500, httpErr.StatusCode)
}

func TestService_Query(t *testing.T) {
	q := &recordingQuerier{csv: "actor\na1\na2\n"}
	svc := newService(t, q)

	table, err := svc.Query(context.Background(), "SELECT ?actor WHERE {?actor rdf:type ml:Actor}")
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	_, err = svc.Query(context.Background(), "SELECT ?actor WHERE {?actor rdf:type ml:Actor}")
	require.NoError(t, err)
	assert.Len(t, q.fragments, 2)
}

func TestBuildQuery_EscapesTitles(t *testing.T) {
	fragment := movielocations.BuildQuery(movielocations.SearchParams{
		Titles: []string{`Say "Hi"`},
	})
	assert.Contains(t, fragment, `FILTER(?title = "Say \"Hi\"")`)
}
