package sparql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/movielocations/movielocations/internal/provider/resilience"
)

// ContentTypeCSV is the result format requested from the endpoint.
const ContentTypeCSV = "text/csv"

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// Predefined client errors.
var (
	// ErrNoEndpoint is returned when the client has no endpoint URL.
	ErrNoEndpoint = errors.New("sparql endpoint is not set")

	// ErrInvalidEncoding is returned when the response is not valid UTF-8.
	ErrInvalidEncoding = errors.New("response is not valid UTF-8")
)

// HTTPError is returned when the endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("sparql endpoint returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the SPARQL client.
type ClientConfig struct {
	// Endpoint is the query endpoint URL. Existing query parameters are kept.
	Endpoint string

	// HTTPClient executes requests. If nil, a resilience client with retries
	// disabled is created.
	HTTPClient HTTPDoer

	// Timeout for the default HTTP client (default: 30s).
	Timeout time.Duration

	// Prefixes prepended to every query (default: DefaultPrefixes).
	Prefixes []Prefix

	// Registry tracks endpoint health for the default HTTP client. Optional.
	Registry *resilience.Registry

	// Name registers the default HTTP client in Registry (default: Endpoint).
	// Clients sharing a registry need distinct names.
	Name string

	// Metrics records query metrics. Optional.
	Metrics *Metrics

	Logger zerolog.Logger
}

// Client runs SELECT queries against a single endpoint.
type Client struct {
	endpoint   string
	httpClient HTTPDoer
	prefixes   []Prefix
	metrics    *Metrics
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewClient creates a new SPARQL client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		name := cfg.Name
		if name == "" {
			name = cfg.Endpoint
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:           name,
			Timeout:        timeout,
			DisableRetries: true,
			Registry:       cfg.Registry,
		})
	}

	prefixes := cfg.Prefixes
	if prefixes == nil {
		prefixes = DefaultPrefixes
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: httpClient,
		prefixes:   prefixes,
		metrics:    cfg.Metrics,
		tracer:     otel.Tracer(instrumentationName),
		logger:     cfg.Logger,
	}
}

// Endpoint returns the endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Compose returns the query text sent for fragment.
func (c *Client) Compose(fragment string) string {
	return WithPrefixes(fragment, c.prefixes)
}

// Query prepends the prefix declarations to fragment, runs it and parses the
// CSV response. Transport errors are returned wrapped, so errors.Is and
// errors.As still see the original error. Nothing is retried.
func (c *Client) Query(ctx context.Context, fragment string) (*Table, error) {
	ctx, span := c.tracer.Start(ctx, "sparql.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sparql.endpoint", c.endpoint)),
	)
	defer span.End()

	start := time.Now()
	table, err := c.query(ctx, c.Compose(fragment))
	duration := time.Since(start)

	c.metrics.Record(c.endpoint, duration, table.Len(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug().
			Err(err).
			Str("endpoint", c.endpoint).
			Dur("duration", duration).
			Msg("sparql query failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("sparql.rows", table.Len()))
	c.logger.Debug().
		Str("endpoint", c.endpoint).
		Int("rows", table.Len()).
		Dur("duration", duration).
		Msg("sparql query completed")

	return table, nil
}

func (c *Client) query(ctx context.Context, text string) (*Table, error) {
	if c.endpoint == "" {
		return nil, ErrNoEndpoint
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	params := u.Query()
	params.Set("query", text)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", ContentTypeCSV)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !utf8.Valid(body) {
		return nil, ErrInvalidEncoding
	}

	return ParseCSV(bytes.NewReader(body))
}
