// Package store provides the key/value storage that settings are persisted in.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fgeck/clipperhub/internal/models"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("key not found")

// Store is a shared, mutable key/value store holding JSON documents.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg models.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", models.StoreBackendFile:
		return NewFileStore(cfg.Path)
	case models.StoreBackendSQLite:
		return NewSQLiteStore(ctx, cfg.Path)
	case models.StoreBackendRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis backend selected without redis settings")
		}
		return NewRedisStore(ctx, *cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// DefaultPath returns the default location for file-based stores.
func DefaultPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "clipperhub", name)
}
