package client

import (
	"context"
	"sync"
)

// LazyClient behaves like Client but defers construction of the
// underlying client, including its cache backend, to the first call
// that needs it. Configuration mistakes still surface at NewLazy.
//
// After Close the next call builds a fresh client, so a LazyClient can
// be reused across scopes.
type LazyClient struct {
	config Config

	mu    sync.Mutex
	inner *Client
}

// NewLazy validates cfg and returns a client that acquires its resources
// on first use.
func NewLazy(cfg Config) (*LazyClient, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &LazyClient{config: cfg}, nil
}

// Open constructs the underlying client now instead of on first use.
func (l *LazyClient) Open(ctx context.Context) error {
	_, err := l.ensure(ctx)
	return err
}

// ensure returns the underlying client, building it on first call.
// Concurrent first calls build it once.
func (l *LazyClient) ensure(ctx context.Context) (*Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inner != nil {
		return l.inner, nil
	}
	c, err := New(ctx, l.config)
	if err != nil {
		return nil, err
	}
	l.inner = c
	return c, nil
}

// Build merges the configuration with per-request values. It does not
// construct the underlying client.
func (l *LazyClient) Build(method, url string, opts ...RequestOption) (*OutboundRequest, error) {
	return BuildRequest(l.config, method, url, opts...)
}

// Get performs a GET request.
func (l *LazyClient) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	c, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, url, opts...)
}

// Post performs a POST request.
func (l *LazyClient) Post(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	c, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return c.Post(ctx, url, opts...)
}

// Put performs a PUT request.
func (l *LazyClient) Put(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	c, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return c.Put(ctx, url, opts...)
}

// Patch performs a PATCH request.
func (l *LazyClient) Patch(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	c, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return c.Patch(ctx, url, opts...)
}

// Delete performs a DELETE request.
func (l *LazyClient) Delete(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	c, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return c.Delete(ctx, url, opts...)
}

// Head performs a HEAD request.
func (l *LazyClient) Head(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	c, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return c.Head(ctx, url, opts...)
}

// Send performs a built request.
func (l *LazyClient) Send(ctx context.Context, req *OutboundRequest, opts ...SendOption) (*Response, error) {
	c, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, req, opts...)
}

// CacheDelete removes the stored entry for the request that method, url
// and opts would build.
func (l *LazyClient) CacheDelete(ctx context.Context, method, url string, opts ...RequestOption) error {
	c, err := l.ensure(ctx)
	if err != nil {
		return err
	}
	return c.CacheDelete(ctx, method, url, opts...)
}

// Close tears down the underlying client if it was built. The next call
// builds a fresh one.
func (l *LazyClient) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inner == nil {
		return nil
	}
	err := l.inner.Close()
	l.inner = nil
	return err
}
