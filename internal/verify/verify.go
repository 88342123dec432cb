// Package verify checks that a SPARQL endpoint runs the OWL2-RL ruleset.
//
// The endpoint is probed with two canary queries that only return rows when
// the expected inferences are materialized: actors typed through ml:Actor and
// the ml:playsIn inverse of ml:starring.
package verify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/movielocations/movielocations/internal/provider/resilience"
	"github.com/movielocations/movielocations/internal/sparql"
)

// DefaultTimeout bounds every canary query.
const DefaultTimeout = 5 * time.Second

// Canary queries sent to the endpoint. Both must return at least one row.
const (
	ActorTypeCanary = "SELECT * WHERE {?actor rdf:type ml:Actor} LIMIT 5"
	PlaysInCanary   = "SELECT * WHERE {?actor ml:playsIn ?show} LIMIT 5"
)

// RegistryName is the name the default query client of endpoint is
// registered under. It keeps the canary circuit apart from the circuit of the
// client serving regular queries.
func RegistryName(endpoint string) string {
	return "verify:" + endpoint
}

// WrongRulesetMessage is the message of every WrongRulesetError.
const WrongRulesetMessage = "The wrong inference rules are used, please use `OWL2-RL`."

// WrongRulesetError is returned when a canary query comes back empty.
type WrongRulesetError struct {
	// Canary is the query that returned no rows.
	Canary string
}

func (e *WrongRulesetError) Error() string {
	return WrongRulesetMessage
}

// IsWrongRuleset reports whether err is, or wraps, a WrongRulesetError.
func IsWrongRuleset(err error) bool {
	var target *WrongRulesetError
	return errors.As(err, &target)
}

// Querier runs a query fragment against one endpoint.
type Querier interface {
	Query(ctx context.Context, fragment string) (*sparql.Table, error)
}

// QuerierFactory builds a Querier bound to endpoint.
type QuerierFactory func(endpoint string) Querier

// Config holds configuration for a Verifier.
type Config struct {
	// Factory builds the query client. If nil, a sparql.Client with a
	// Timeout deadline is used. Clients are reused per endpoint.
	Factory QuerierFactory

	// Timeout for the default query client (default: 5s).
	Timeout time.Duration

	// Registry receives endpoint health for the default query client. Optional.
	Registry *resilience.Registry

	// Metrics records canary queries for the default query client. Optional.
	Metrics *sparql.Metrics

	Logger zerolog.Logger
}

// Verifier probes endpoints with the canary queries.
type Verifier struct {
	factory QuerierFactory
	logger  zerolog.Logger

	mu      sync.Mutex
	clients map[string]Querier
}

// New creates a Verifier.
func New(cfg Config) *Verifier {
	factory := cfg.Factory
	if factory == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		factory = func(endpoint string) Querier {
			return sparql.NewClient(sparql.ClientConfig{
				Endpoint: endpoint,
				Name:     RegistryName(endpoint),
				Timeout:  timeout,
				Registry: cfg.Registry,
				Metrics:  cfg.Metrics,
				Logger:   cfg.Logger,
			})
		}
	}

	return &Verifier{
		factory: factory,
		logger:  cfg.Logger,
		clients: make(map[string]Querier),
	}
}

// Verify runs both canaries against endpoint. It returns a *WrongRulesetError
// when either comes back empty. Any other error is returned as is.
func (v *Verifier) Verify(ctx context.Context, endpoint string) error {
	client := v.client(endpoint)

	actors, err := client.Query(ctx, ActorTypeCanary)
	if err != nil {
		return err
	}
	playsIn, err := client.Query(ctx, PlaysInCanary)
	if err != nil {
		return err
	}

	switch {
	case actors.Len() == 0:
		return &WrongRulesetError{Canary: ActorTypeCanary}
	case playsIn.Len() == 0:
		return &WrongRulesetError{Canary: PlaysInCanary}
	}

	v.logger.Debug().
		Str("endpoint", endpoint).
		Int("actor_rows", actors.Len()).
		Int("plays_in_rows", playsIn.Len()).
		Msg("endpoint verified")

	return nil
}

func (v *Verifier) client(endpoint string) Querier {
	v.mu.Lock()
	defer v.mu.Unlock()

	client, ok := v.clients[endpoint]
	if !ok {
		client = v.factory(endpoint)
		v.clients[endpoint] = client
	}
	return client
}

// Check runs Verify and classifies the result.
func (v *Verifier) Check(ctx context.Context, endpoint string) Result {
	err := v.Verify(ctx, endpoint)
	return Result{Outcome: Classify(err), Err: err}
}
