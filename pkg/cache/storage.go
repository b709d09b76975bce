package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrMiss indicates the requested key was not found in storage
	ErrMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrUnknownBackend indicates an unrecognized backend name
	ErrUnknownBackend = errors.New("unknown cache backend")

	// ErrBackendUnavailable indicates the backend's supporting service
	// could not be reached when it was needed
	ErrBackendUnavailable = errors.New("cache backend unavailable")
)

// BackendError wraps a storage read/write failure with the operation
// and key it happened on.
type BackendError struct {
	Op  string // "get", "set", "delete"
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Storage persists cache entries keyed by request fingerprint.
// Implementations are safe for concurrent use. Close releases the
// backing connection and stops any background work.
type Storage interface {
	// Get returns the entry stored under key, or ErrMiss.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores entry under key, replacing any previous entry.
	Set(ctx context.Context, key string, entry *Entry) error

	// Delete removes the entry under key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Backend selects a storage implementation. The zero value is invalid;
// configured names are parsed exactly once with ParseBackend.
type Backend int

const (
	BackendSQLite Backend = iota + 1
	BackendFile
	BackendRedis
)

func (b Backend) String() string {
	switch b {
	case BackendSQLite:
		return "sqlite"
	case BackendFile:
		return "file"
	case BackendRedis:
		return "redis"
	default:
		return fmt.Sprintf("backend(%d)", int(b))
	}
}

// ParseBackend maps a configured backend name to its Backend value.
// Unknown names fail with ErrUnknownBackend naming the value.
func ParseBackend(name string) (Backend, error) {
	switch name {
	case "sqlite":
		return BackendSQLite, nil
	case "file":
		return BackendFile, nil
	case "redis":
		return BackendRedis, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// StorageConfig carries the backend selection plus the fields the
// selected backend reads. Fields for unselected backends are ignored,
// not validated.
type StorageConfig struct {
	Backend Backend

	// TTL is the entry lifetime.
	TTL time.Duration

	// SweepInterval is how often the file backend removes expired
	// entry files.
	SweepInterval time.Duration

	// DBPath locates the sqlite database file.
	DBPath string

	// Dir is the file backend's entry directory.
	Dir string

	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
}

// NewStorage constructs the configured backend. Selecting the sqlite or
// file backend may create directories; the redis backend dials and
// pings the server so an unusable backend surfaces here rather than on
// the first request.
func NewStorage(ctx context.Context, cfg StorageConfig, logger zerolog.Logger) (Storage, error) {
	switch cfg.Backend {
	case BackendSQLite:
		return newSQLiteStorage(ctx, cfg, logger)
	case BackendFile:
		return newFileStorage(cfg, logger)
	case BackendRedis:
		return newRedisStorage(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
