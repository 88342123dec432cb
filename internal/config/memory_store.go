package config

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for testing.
type MemoryStore struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewMemoryStore creates a new in-memory store with an empty endpoint.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWithEndpoint creates a new in-memory store holding endpoint.
func NewMemoryStoreWithEndpoint(endpoint string) *MemoryStore {
	return &MemoryStore{cfg: &Config{Endpoint: endpoint}}
}

// Load returns a copy of the stored config.
func (s *MemoryStore) Load(_ context.Context) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == nil {
		s.cfg = &Config{}
	}
	cfg := *s.cfg
	return &cfg, nil
}

// Save replaces the stored config.
func (s *MemoryStore) Save(_ context.Context, cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *cfg
	s.cfg = &stored
	return nil
}
