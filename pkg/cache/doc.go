// Package cache implements transparent HTTP response caching: pluggable
// storage backends, a cacheability policy, and an http.RoundTripper
// that composes them around a network transport.
//
// Responses are keyed by a request fingerprint (method, canonical URL,
// body digest) and stored as JSON entries. Three backends are provided:
//
//   - sqlite: a single-file embedded database (modernc.org/sqlite)
//   - file: one entry file per fingerprint with a background TTL sweep
//   - redis: a remote server that evicts entries itself
//
// # Basic Usage
//
//	storage, err := cache.NewStorage(ctx, cache.StorageConfig{
//		Backend: cache.BackendFile,
//		Dir:     ".cache/httpclient/cache_files",
//		TTL:     15 * time.Minute,
//		SweepInterval: time.Minute,
//	}, logger)
//	if err != nil {
//		return err
//	}
//	defer storage.Close()
//
//	policy := cache.NewPolicy([]string{"GET"}, []int{200}, 15*time.Minute, false)
//	client := &http.Client{
//		Transport: cache.NewTransport(nil, storage, policy, logger),
//	}
//
// Responses served from the cache carry the "X-From-Cache: 1" header.
//
// # Policy
//
// A response is stored when its method and status code are both
// whitelisted. A stored entry is served while its TTL window holds or
// while the response headers it was stored with (Cache-Control max-age,
// Expires) still declare it fresh; stale entries are never served.
// ForceCache supersedes all of this: everything is stored, and any
// entry still in storage is served.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - httpclient_cache_hits_total - Responses served from cache
//   - httpclient_cache_misses_total - Lookups that went to the network
//   - httpclient_cache_stores_total - Responses written to storage
//   - httpclient_cache_errors_total{operation} - Storage failures
//   - httpclient_cache_evictions_total{backend} - Backend evictions
package cache
