// Package client provides a caching HTTP client: request defaults merged
// per call, pluggable cache backends behind the transport, and a closed
// error taxonomy.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redjax/go-httpclient/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpclient_requests_total",
		Help: "Total requests by method and status",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "httpclient_request_duration_seconds",
		Help:    "Request duration in seconds by method",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpclient_errors_total",
		Help: "Total client errors by kind",
	}, []string{"kind"})
)

// errTooManyRedirects aborts a redirect chain longer than MaxRedirects.
var errTooManyRedirects = errors.New("too many redirects")

// Client is a caching HTTP client. Construct it with New; the zero value
// is not usable. Methods are safe for concurrent use.
type Client struct {
	httpClient *http.Client
	storage    cache.Storage
	config     Config
	logger     zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// New creates a client from cfg. The cache backend is constructed
// eagerly: an unknown backend name or an unreachable backing service
// fails here, not on the first request.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := log.With().Str("component", "httpclient").Logger()

	var (
		storage   cache.Storage
		transport http.RoundTripper = newBaseTransport(cfg)
	)
	if cfg.CacheEnabled {
		var err error
		storage, err = cache.NewStorage(ctx, cfg.storageConfig(), logger)
		if err != nil {
			return nil, storageError(err)
		}
		policy := cache.NewPolicy(cfg.CacheMethods, cfg.CacheStatuses, cfg.CacheTTL, cfg.ForceCache)

		ct := cache.NewTransport(transport, storage, policy, logger)
		ct.KeyHeaders = cfg.KeyHeaders
		transport = ct
	}

	return &Client{
		httpClient: &http.Client{
			Transport:     transport,
			Timeout:       cfg.Timeout,
			CheckRedirect: checkRedirect(cfg.FollowRedirects, cfg.MaxRedirects),
		},
		storage: storage,
		config:  cfg,
		logger:  logger,
	}, nil
}

// With runs fn with a client built from cfg and closes it afterwards.
// An error from fn is logged and returned, never swallowed by Close.
func With(ctx context.Context, cfg Config, fn func(*Client) error) error {
	c, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	err = fn(c)
	if err != nil {
		c.logger.Error().Err(err).Msg("scope exited with error")
	}
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	return err
}

// newBaseTransport builds the network transport with the configured
// connection limits.
func newBaseTransport(cfg Config) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.MaxConnections > 0 {
		t.MaxIdleConns = cfg.MaxConnections
	}
	if cfg.MaxConnectionsPerHost > 0 {
		t.MaxConnsPerHost = cfg.MaxConnectionsPerHost
		t.MaxIdleConnsPerHost = cfg.MaxConnectionsPerHost
	}
	if cfg.IdleConnTimeout > 0 {
		t.IdleConnTimeout = cfg.IdleConnTimeout
	}
	return t
}

// checkRedirect implements the redirect policy. With redirects off the
// 3xx response is handed back to the caller untouched.
func checkRedirect(follow bool, max int) func(*http.Request, []*http.Request) error {
	if !follow {
		return func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, max)
		}
		return nil
	}
}

// sendOptions carries per-send overrides. Zero values defer to the
// client configuration.
type sendOptions struct {
	stream bool

	username string
	password string
	authSet  bool

	follow    bool
	followSet bool
}

// SendOption customizes a single Send call.
type SendOption func(*sendOptions)

// WithStream leaves the response body unread. The caller owns closing
// Response.Raw.Body.
func WithStream() SendOption {
	return func(o *sendOptions) { o.stream = true }
}

// WithBasicAuth sends basic credentials for this call, replacing any
// client-level credentials.
func WithBasicAuth(username, password string) SendOption {
	return func(o *sendOptions) {
		o.username = username
		o.password = password
		o.authSet = true
	}
}

// WithFollowRedirects overrides the client's redirect policy for this
// call.
func WithFollowRedirects(follow bool) SendOption {
	return func(o *sendOptions) {
		o.follow = follow
		o.followSet = true
	}
}

// Build merges the client configuration with per-request values into an
// OutboundRequest without sending it.
func (c *Client) Build(method, url string, opts ...RequestOption) (*OutboundRequest, error) {
	return BuildRequest(c.config, method, url, opts...)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, opts)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, opts)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPut, url, opts)
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPatch, url, opts)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodDelete, url, opts)
}

// Head performs a HEAD request.
func (c *Client) Head(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodHead, url, opts)
}

func (c *Client) do(ctx context.Context, method, url string, opts []RequestOption) (*Response, error) {
	req, err := c.Build(method, url, opts...)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, req)
}

// Send performs a built request. Responses are read fully and the
// connection released unless WithStream is given. A completed exchange
// with a status outside 2xx returns a KindHTTPStatus error carrying the
// response.
func (c *Client) Send(ctx context.Context, req *OutboundRequest, opts ...SendOption) (*Response, error) {
	var o sendOptions
	for _, opt := range opts {
		opt(&o)
	}

	httpReq, _, err := c.prepare(ctx, req, &o)
	if err != nil {
		return nil, err
	}

	hc := c.httpClient
	if o.followSet && o.follow != c.config.FollowRedirects {
		override := *c.httpClient
		override.CheckRedirect = checkRedirect(o.follow, c.config.MaxRedirects)
		hc = &override
	}

	logger := c.logger.With().
		Str("request_id", uuid.NewString()).
		Str("method", req.Method).
		Str("url", req.URL).
		Logger()

	start := time.Now()
	resp, err := hc.Do(httpReq)
	duration := time.Since(start)
	requestDuration.WithLabelValues(req.Method).Observe(duration.Seconds())

	if err != nil {
		cerr := classifySendError(err)
		errorsTotal.WithLabelValues(string(cerr.Kind)).Inc()
		requestsTotal.WithLabelValues(req.Method, "error").Inc()
		logger.Error().Err(err).Str("kind", string(cerr.Kind)).Msg("request failed")
		return nil, cerr
	}

	requestsTotal.WithLabelValues(req.Method, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	var out *Response
	if o.stream {
		out = &Response{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Headers:    resp.Header,
			FromCache:  resp.Header.Get(cache.FromCacheHeader) == "1",
			Raw:        resp,
		}
	} else {
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			cerr := classifySendError(readErr)
			errorsTotal.WithLabelValues(string(cerr.Kind)).Inc()
			logger.Error().Err(readErr).Msg("read response body")
			return nil, cerr
		}
		out = newResponse(resp, body)
	}

	logger.Info().
		Int("status_code", out.StatusCode).
		Dur("duration", duration).
		Bool("from_cache", out.FromCache).
		Msg("request complete")

	if !out.IsSuccess() {
		serr := statusError(out)
		errorsTotal.WithLabelValues(string(KindHTTPStatus)).Inc()
		return nil, serr
	}
	return out, nil
}

// prepare turns an OutboundRequest into an *http.Request. The encoded
// body bytes are returned alongside for fingerprinting.
func (c *Client) prepare(ctx context.Context, req *OutboundRequest, o *sendOptions) (*http.Request, []byte, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, nil, configError("encode request body", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	if err != nil {
		return nil, nil, &Error{Kind: KindProtocol, Message: "build request", Err: err}
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	// Cookies are appended in name order so the Cookie header is stable.
	names := make([]string, 0, len(req.Cookies))
	for name := range req.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		httpReq.AddCookie(&http.Cookie{Name: name, Value: req.Cookies[name]})
	}

	username, password := c.config.Username, c.config.Password
	if o.authSet {
		username, password = o.username, o.password
	}
	if username != "" {
		httpReq.SetBasicAuth(username, password)
	}

	return httpReq, body, nil
}

// CacheDelete removes the stored entry for the request that method, url
// and opts would build. Missing entries are not an error.
func (c *Client) CacheDelete(ctx context.Context, method, url string, opts ...RequestOption) error {
	if c.storage == nil {
		return configError("cache is not enabled", nil)
	}
	req, err := c.Build(method, url, opts...)
	if err != nil {
		return err
	}
	httpReq, body, err := c.prepare(ctx, req, &sendOptions{})
	if err != nil {
		return err
	}

	key := cache.FingerprintRequest(httpReq, body, c.config.KeyHeaders).Key()
	if err := c.storage.Delete(ctx, key); err != nil {
		return &Error{Kind: KindCacheBackend, Message: "cache delete", Err: err}
	}
	return nil
}

// Close releases the cache backend and idle connections. It is
// idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.httpClient.CloseIdleConnections()
		if c.storage != nil {
			c.closeErr = c.storage.Close()
		}
	})
	return c.closeErr
}
