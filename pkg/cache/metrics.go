package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks lookups satisfied from storage
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "httpclient_cache_hits_total",
			Help: "Total number of responses served from cache",
		},
	)

	// CacheMisses tracks lookups that went to the network, including
	// stale entries the policy refused to serve
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "httpclient_cache_misses_total",
			Help: "Total number of cache lookups that missed",
		},
	)

	// CacheStores tracks entries written to storage
	CacheStores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "httpclient_cache_stores_total",
			Help: "Total number of responses stored in cache",
		},
	)

	// CacheErrors tracks storage operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpclient_cache_errors_total",
			Help: "Total number of cache storage errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)

	// CacheEvictions tracks entries removed by backend eviction
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpclient_cache_evictions_total",
			Help: "Total number of entries evicted from cache storage",
		},
		[]string{"backend"}, // "sqlite", "file"
	)
)
