package client

import (
	"time"

	"github.com/redjax/go-httpclient/pkg/cache"
)

// Config holds the client configuration. The zero value is not usable;
// start from DefaultConfig and override fields as needed.
type Config struct {
	// BaseURL is prepended to relative request URLs. Absolute request
	// URLs are used as given.
	BaseURL string

	// Defaults merged into every request built by this client.
	// Per-request values override these key by key.
	Headers map[string]string
	Params  map[string]string
	Cookies map[string]string

	// Default body, used when a request sets none. At most one of
	// Content, Form, Files, JSON should be set; Content wins over Form,
	// Form over Files, Files over JSON.
	Content []byte
	Form    map[string]string
	Files   []FilePart
	JSON    any

	// Extensions carried on every request unless the request sets its
	// own. The client does not interpret them.
	Extensions map[string]any

	// BasicAuth credentials applied to every request when Username is
	// non-empty.
	Username string
	Password string

	// Timeout bounds the whole exchange, connect through body read.
	Timeout time.Duration

	// Redirect handling. When FollowRedirects is false, 3xx responses
	// are returned to the caller as-is.
	FollowRedirects bool
	MaxRedirects    int

	// Connection pool limits for the underlying transport.
	MaxConnections        int
	MaxConnectionsPerHost int
	IdleConnTimeout       time.Duration

	// CacheEnabled turns response caching on. The remaining cache
	// fields are ignored when it is false.
	CacheEnabled bool

	// CacheType selects the storage backend: "sqlite", "file" or
	// "redis". Names are matched exactly.
	CacheType string

	// CacheTTL is the heuristic lifetime applied to stored responses.
	// CacheSweepInterval is how often the file backend scans for
	// expired entries.
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	// ForceCache stores and serves every response regardless of method,
	// status and header freshness.
	ForceCache bool

	// CacheMethods and CacheStatuses whitelist what may be stored.
	CacheMethods  []string
	CacheStatuses []int

	// KeyHeaders lists request headers whose values take part in the
	// cache fingerprint.
	KeyHeaders []string

	// Backend locations.
	SQLitePath    string
	FileDir       string
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
}

// DefaultConfig returns the stock configuration: caching on with the
// sqlite backend, a 15 minute TTL, GET-only caching and redirects off.
func DefaultConfig() Config {
	return Config{
		Timeout:               30 * time.Second,
		FollowRedirects:       false,
		MaxRedirects:          20,
		MaxConnections:        100,
		MaxConnectionsPerHost: 10,
		IdleConnTimeout:       90 * time.Second,
		CacheEnabled:          true,
		CacheType:             "sqlite",
		CacheTTL:              900 * time.Second,
		CacheSweepInterval:    60 * time.Second,
		CacheMethods:          []string{"GET"},
		CacheStatuses:         []int{200, 201, 202, 301, 302, 308},
		SQLitePath:            ".cache/httpclient/cache.db",
		FileDir:               ".cache/httpclient/cache_files",
		RedisHost:             "localhost",
		RedisPort:             6379,
		RedisDB:               0,
	}
}

// validate parses the backend name so that a typo surfaces at
// construction, not on the first request. Everything else is taken as
// given; zero and negative values fall through to transport defaults.
func (c Config) validate() error {
	if c.CacheEnabled {
		if _, err := cache.ParseBackend(c.CacheType); err != nil {
			return configError("cache_type", err)
		}
	}
	return nil
}

// storageConfig translates the client configuration into the cache
// package's storage settings.
func (c Config) storageConfig() cache.StorageConfig {
	backend, _ := cache.ParseBackend(c.CacheType)
	return cache.StorageConfig{
		Backend:       backend,
		TTL:           c.CacheTTL,
		SweepInterval: c.CacheSweepInterval,
		DBPath:        c.SQLitePath,
		Dir:           c.FileDir,
		RedisHost:     c.RedisHost,
		RedisPort:     c.RedisPort,
		RedisDB:       c.RedisDB,
		RedisPassword: c.RedisPassword,
	}
}
