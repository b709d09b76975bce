package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	cached_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_expires_at ON entries(expires_at);
`

// SQLiteStorage persists entries in a single-file embedded database.
type SQLiteStorage struct {
	db     *sql.DB
	logger zerolog.Logger
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func newSQLiteStorage(ctx context.Context, cfg StorageConfig, logger zerolog.Logger) (*SQLiteStorage, error) {
	cleanPath := filepath.Clean(cfg.DBPath)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache db dir: %w", err)
		}
	}

	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create entries table: %w", err)
	}

	logger.Info().
		Str("backend", "sqlite").
		Str("path", cleanPath).
		Msg("cache storage ready")

	return &SQLiteStorage{db: db, logger: logger}, nil
}

// Get returns the entry stored under key, or ErrMiss. Entries past
// their TTL window are evicted on the way and reported as misses, so a
// stale row can never be served no matter what the policy layer would
// accept.
func (s *SQLiteStorage) Get(ctx context.Context, key string) (*Entry, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM entries WHERE key = ?`, key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("sqlite get: %w", err)
	}

	entry, err := DecodeEntry(data)
	if err != nil {
		return nil, err
	}
	if entry.IsExpired(time.Now()) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err == nil {
			CacheEvictions.WithLabelValues("sqlite").Inc()
		}
		return nil, ErrMiss
	}
	return entry, nil
}

// Set stores an entry, replacing any previous one under the same key.
// Rows whose TTL window has passed are pruned on the way so the table
// stays bounded without a background sweeper.
func (s *SQLiteStorage) Set(ctx context.Context, key string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := entry.Encode()
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE expires_at < ?`, toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("sqlite prune: %w", err)
	}
	if pruned, err := res.RowsAffected(); err == nil && pruned > 0 {
		CacheEvictions.WithLabelValues("sqlite").Add(float64(pruned))
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (key, data, cached_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data,
		 cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		key, data, toMillis(entry.CachedAt), toMillis(entry.ExpiresAt))
	if err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// Delete removes a cache entry.
func (s *SQLiteStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
