package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Health status values reported for an endpoint.
const (
	StatusOK       = "OK"
	StatusDegraded = "DEGRADED"
	StatusDown     = "DOWN"
)

// EndpointHealth is a snapshot of the health of one registered client.
type EndpointHealth struct {
	// Name is the client name, usually the endpoint URL.
	Name string

	// CircuitState is the current circuit breaker state.
	CircuitState gobreaker.State

	// Counts contains circuit breaker statistics.
	Counts gobreaker.Counts

	// LastSuccessAt is the timestamp of the last successful request.
	LastSuccessAt *time.Time

	// LastFailureAt is the timestamp of the last failed request.
	LastFailureAt *time.Time

	// LastError is the most recent error message, if any.
	LastError string
}

// Status maps the circuit state to StatusOK, StatusDegraded or StatusDown.
func (h *EndpointHealth) Status() string {
	switch h.CircuitState {
	case gobreaker.StateOpen:
		return StatusDown
	case gobreaker.StateHalfOpen:
		return StatusDegraded
	default:
		return StatusOK
	}
}

// IsHealthy returns true if the circuit is closed.
func (h *EndpointHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// Registry tracks registered clients and their health.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]*registeredEndpoint
}

type registeredEndpoint struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates a new registry.
func NewRegistry() *Registry {
	return &Registry{
		endpoints: make(map[string]*registeredEndpoint),
	}
}

// Register adds a client under name, replacing any previous client.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[name] = &registeredEndpoint{client: client}
}

// Unregister removes a client from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.endpoints, name)
}

// RecordSuccess records a successful request.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.endpoints[name]; ok {
		now := time.Now()
		e.lastSuccessAt = &now
	}
}

// RecordFailure records a failed request.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.endpoints[name]; ok {
		now := time.Now()
		e.lastFailureAt = &now
		if err != nil {
			e.lastError = err.Error()
		}
	}
}

// Health returns the health of a client, or nil if it is not registered.
func (r *Registry) Health(name string) *EndpointHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.endpoints[name]
	if !ok {
		return nil
	}
	return e.health(name)
}

// AllHealth returns the health of every registered client sorted by name.
func (r *Registry) AllHealth() []*EndpointHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*EndpointHealth, 0, len(r.endpoints))
	for name, e := range r.endpoints {
		health = append(health, e.health(name))
	}
	sort.Slice(health, func(i, j int) bool {
		return health[i].Name < health[j].Name
	})
	return health
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.endpoints)
}

func (e *registeredEndpoint) health(name string) *EndpointHealth {
	return &EndpointHealth{
		Name:          name,
		CircuitState:  e.client.CircuitBreakerState(),
		Counts:        e.client.CircuitBreakerCounts(),
		LastSuccessAt: e.lastSuccessAt,
		LastFailureAt: e.lastFailureAt,
		LastError:     e.lastError,
	}
}
