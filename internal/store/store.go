package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a namespaced key-value store holding the library state that a
// browser would otherwise keep in local storage.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	// Set creates or replaces the value for key.
	Set(ctx context.Context, namespace, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, namespace, key string) error
	// Keys lists the keys of a namespace in ascending order.
	Keys(ctx context.Context, namespace string) ([]string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	// DataDir holds the SQLite database file.
	DataDir string
	// RedisAddr and RedisPrefix configure the redis backend.
	RedisAddr   string
	RedisPrefix string
}

// SQLiteFile is the database file name inside DataDir.
const SQLiteFile = "library.db"

// Open creates the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendSQLite, "":
		return NewSQLite(ctx, filepath.Join(cfg.DataDir, SQLiteFile))
	case BackendRedis:
		return NewRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
