package sparql

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/movielocations/movielocations/internal/sparql"

// Metrics holds the instruments recorded for every query.
type Metrics struct {
	queryDuration metric.Float64Histogram
	queryTotal    metric.Int64Counter
	rowsReturned  metric.Int64Histogram
}

// NewMetrics creates query metrics on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	queryDuration, err := meter.Float64Histogram(
		"sparql.query.duration",
		metric.WithDescription("Duration of SPARQL queries in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	queryTotal, err := meter.Int64Counter(
		"sparql.query.total",
		metric.WithDescription("Total number of SPARQL queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	rowsReturned, err := meter.Int64Histogram(
		"sparql.query.rows",
		metric.WithDescription("Number of rows returned by SPARQL queries"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		queryDuration: queryDuration,
		queryTotal:    queryTotal,
		rowsReturned:  rowsReturned,
	}, nil
}

// Record records one query. A nil receiver is a no-op.
func (m *Metrics) Record(endpoint string, duration time.Duration, rows int, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("sparql.endpoint", endpoint),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Metrics outlive the request context.
	ctx := context.Background()
	m.queryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.queryTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err == nil {
		m.rowsReturned.Record(ctx, int64(rows), metric.WithAttributes(attrs...))
	}
}
