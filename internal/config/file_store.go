package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// FileStore keeps the config in an INI file:
//
//	[Configuration]
//	Endpoint = http://localhost:7200/repositories/movies
//
// The file has no locking; concurrent writers race with last-write-wins.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// NewDefaultFileStore creates a store backed by DefaultPath.
func NewDefaultFileStore() (*FileStore, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewFileStore(path), nil
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the config file. A missing file is created with an empty
// endpoint first. Parse errors are returned as is.
func (s *FileStore) Load(ctx context.Context) (*Config, error) {
	if _, err := os.Stat(s.path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
		if err := s.Save(ctx, &Config{}); err != nil {
			return nil, err
		}
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:         true,
		PreserveSurroundedQuote: true,
	}, s.path)
	if err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}
	if section, err := file.GetSection(Section); err == nil {
		cfg.Endpoint = section.Key(EndpointKey).String()
	}
	return cfg, nil
}

// Save writes the whole config, creating or truncating the file. Surrounding
// whitespace of the endpoint is dropped; any other text, quotes included, is
// stored as given.
func (s *FileStore) Save(_ context.Context, cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}

	file := ini.Empty()
	section, err := file.NewSection(Section)
	if err != nil {
		return fmt.Errorf("create config section: %w", err)
	}
	if _, err := section.NewKey(EndpointKey, strings.TrimSpace(cfg.Endpoint)); err != nil {
		return fmt.Errorf("set config endpoint: %w", err)
	}

	if err := file.SaveTo(s.path); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
