// Package config persists the query endpoint and reads process settings.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Names used in the persisted configuration.
const (
	// Section is the only section of the config file.
	Section = "Configuration"

	// EndpointKey holds the SPARQL endpoint URL.
	EndpointKey = "Endpoint"

	// FileName is the config file name inside the working directory.
	FileName = "config.ini"
)

// ErrNilConfig is returned when Save is called without a config.
var ErrNilConfig = errors.New("config is nil")

// Config is the persisted application configuration.
type Config struct {
	// Endpoint is the SPARQL endpoint URL. It may be empty.
	Endpoint string `json:"endpoint"`
}

// IsConfigured reports whether an endpoint has been set.
func (c *Config) IsConfigured() bool {
	return c != nil && c.Endpoint != ""
}

// Store loads and saves the configuration.
type Store interface {
	// Load returns the stored config, initializing it with an empty endpoint
	// when nothing has been stored yet.
	Load(ctx context.Context) (*Config, error)

	// Save replaces the stored config as a whole.
	Save(ctx context.Context, cfg *Config) error
}

// DefaultPath returns <current working directory>/config.ini.
func DefaultPath() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return filepath.Join(wd, FileName), nil
}

// GetConfig loads the config file at DefaultPath, creating it when missing.
func GetConfig() (*Config, error) {
	store, err := NewDefaultFileStore()
	if err != nil {
		return nil, err
	}
	return store.Load(context.Background())
}

// OverwriteConfig writes cfg to DefaultPath, replacing any existing file.
func OverwriteConfig(cfg *Config) error {
	store, err := NewDefaultFileStore()
	if err != nil {
		return err
	}
	return store.Save(context.Background(), cfg)
}
