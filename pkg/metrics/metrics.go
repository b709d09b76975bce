// Package metrics provides the centralized Prometheus metrics registry
// for the HTTP client. All metrics are defined in their respective
// packages (client, cache) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - httpclient_requests_total{method, status} (Counter): Total requests by method and HTTP status
//   - httpclient_request_duration_seconds{method} (Histogram): Request duration by method
//   - httpclient_errors_total{kind} (Counter): Errors by kind (configuration, dependency_missing,
//     connection, timeout, protocol, http_status, cache_backend)
//
// Cache Metrics (pkg/cache):
//   - httpclient_cache_hits_total (Counter): Requests served from cache storage
//   - httpclient_cache_misses_total (Counter): Requests that went to the network
//   - httpclient_cache_stores_total (Counter): Responses written to cache storage
//   - httpclient_cache_errors_total{operation} (Counter): Storage failures by operation (get, set)
//   - httpclient_cache_evictions_total{backend} (Counter): Expired entries removed by backend
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(httpclient_cache_hits_total[5m])) /
//   (sum(rate(httpclient_cache_hits_total[5m])) + sum(rate(httpclient_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(httpclient_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(httpclient_request_duration_seconds_bucket[5m]))
//
//   # Storage Failure Rate by Operation
//   rate(httpclient_cache_errors_total[5m])
