package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of Store. It keeps the same
// section/key layout as the INI file in the app_config table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL config store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Load reads the endpoint row, inserting an empty one when it is missing.
func (s *PostgresStore) Load(ctx context.Context) (*Config, error) {
	query := `
		SELECT value
		FROM app_config
		WHERE section = $1 AND key = $2
	`

	var endpoint string
	err := s.pool.QueryRow(ctx, query, Section, EndpointKey).Scan(&endpoint)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			cfg := &Config{}
			if err := s.Save(ctx, cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &Config{Endpoint: endpoint}, nil
}

// Save replaces the configuration section in a single transaction.
func (s *PostgresStore) Save(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM app_config WHERE section = $1`, Section); err != nil {
		return fmt.Errorf("clear config section: %w", err)
	}

	insert := `
		INSERT INTO app_config (section, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := tx.Exec(ctx, insert, Section, EndpointKey, cfg.Endpoint); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit config: %w", err)
	}
	return nil
}
