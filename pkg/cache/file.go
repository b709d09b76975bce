package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const entryFileExt = ".json"

// FileStorage persists one entry file per fingerprint under a directory
// and removes expired files with a background sweeper.
type FileStorage struct {
	dir    string
	sweep  time.Duration
	logger zerolog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newFileStorage(cfg StorageConfig, logger zerolog.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	s := &FileStorage{
		dir:    cfg.Dir,
		sweep:  cfg.SweepInterval,
		logger: logger,
		done:   make(chan struct{}),
	}
	if s.sweep > 0 {
		s.wg.Add(1)
		go s.sweeper()
	}

	logger.Info().
		Str("backend", "file").
		Str("dir", cfg.Dir).
		Dur("sweep_interval", s.sweep).
		Msg("cache storage ready")

	return s, nil
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, key+entryFileExt)
}

// Get returns the entry stored under key, or ErrMiss. Entries past
// their TTL window are evicted on the way and reported as misses; the
// background sweeper only bounds disk usage between reads.
func (s *FileStorage) Get(_ context.Context, key string) (*Entry, error) {
	path := s.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	entry, err := DecodeEntry(data)
	if err != nil {
		return nil, err
	}
	if entry.IsExpired(time.Now()) {
		if os.Remove(path) == nil {
			CacheEvictions.WithLabelValues("file").Inc()
		}
		return nil, ErrMiss
	}
	return entry, nil
}

// Set writes the entry to a temporary file and renames it into place,
// so concurrent readers never observe a partial entry.
func (s *FileStorage) Set(_ context.Context, key string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := entry.Encode()
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store cache file: %w", err)
	}
	return nil
}

// Delete removes a cache entry. Missing files are not an error.
func (s *FileStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Close stops the background sweeper. The entry directory is left in
// place for the next run.
func (s *FileStorage) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}

func (s *FileStorage) sweeper() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweepExpired(time.Now())
		}
	}
}

// sweepExpired removes entry files whose TTL window has passed, plus
// any files that no longer decode.
func (s *FileStorage) sweepExpired(now time.Time) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn().Err(err).Str("dir", s.dir).Msg("cache sweep failed")
		return
	}

	removed := 0
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != entryFileExt {
			continue
		}
		path := filepath.Join(s.dir, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		entry, err := DecodeEntry(data)
		if err != nil {
			if os.Remove(path) == nil {
				removed++
			}
			continue
		}
		if !entry.IsExpired(now) {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("sweep remove failed")
			continue
		}
		removed++
	}

	if removed > 0 {
		CacheEvictions.WithLabelValues("file").Add(float64(removed))
		s.logger.Debug().Int("removed", removed).Msg("cache sweep complete")
	}
}
