package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisKeyPrefix namespaces entries in a shared redis database.
const redisKeyPrefix = "httpcache:"

// RedisStorage persists entries in a remote redis server and delegates
// TTL eviction to redis itself.
type RedisStorage struct {
	client *redis.Client
	logger zerolog.Logger
}

func newRedisStorage(ctx context.Context, cfg StorageConfig, logger zerolog.Logger) (*RedisStorage, error) {
	addr := net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort))
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	})

	// Surface an unusable backend at construction, not on first request.
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis at %s: %w", ErrBackendUnavailable, addr, err)
	}

	logger.Info().
		Str("backend", "redis").
		Str("addr", addr).
		Int("db", cfg.RedisDB).
		Msg("cache storage ready")

	return &RedisStorage{client: client, logger: logger}, nil
}

// Get retrieves an entry by key.
// Returns ErrMiss if the key doesn't exist, including entries redis has
// already evicted.
func (s *RedisStorage) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	entry, err := DecodeEntry(data)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Set stores an entry with the remainder of its TTL window as the redis
// expiry. Entries already past their window are not written.
func (s *RedisStorage) Set(ctx context.Context, key string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL(time.Now())
	if ttl <= 0 {
		return nil
	}

	data, err := entry.Encode()
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a cache entry.
func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
