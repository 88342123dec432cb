package config

import (
	"context"
	"fmt"

	"github.com/movielocations/movielocations/internal/database"
)

// OpenStore returns the Store selected by s.ConfigBackend. The returned func
// releases its resources.
func OpenStore(ctx context.Context, s Settings) (Store, func(), error) {
	switch s.ConfigBackend {
	case BackendFile, "":
		store, err := s.FileStore()
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case BackendPostgres:
		pool, err := database.Connect(ctx, database.ConfigFromEnv())
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown config backend %q", s.ConfigBackend)
	}
}
