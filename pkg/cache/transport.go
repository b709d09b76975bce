package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// FromCacheHeader marks responses served from the cache.
const FromCacheHeader = "X-From-Cache"

// Transport is an http.RoundTripper that serves eligible requests from
// Storage and stores eligible responses, delegating everything else to
// the base transport. It slots in transparently below the sender:
// callers only observe the FromCacheHeader marker.
type Transport struct {
	// Base performs network sends. nil means http.DefaultTransport.
	Base http.RoundTripper

	// Storage holds cached entries.
	Storage Storage

	// Policy gates what is stored and what is served.
	Policy *Policy

	// KeyHeaders names request headers whose values partition entries.
	// Empty means entries are keyed by method, URL, and body alone.
	KeyHeaders []string

	Logger zerolog.Logger
}

// NewTransport wires a cache-aware transport over base.
func NewTransport(base http.RoundTripper, storage Storage, policy *Policy, logger zerolog.Logger) *Transport {
	return &Transport{
		Base:    base,
		Storage: storage,
		Policy:  policy,
		Logger:  logger,
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := bufferRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	key := FingerprintRequest(req, body, t.KeyHeaders).Key()

	entry, err := t.Storage.Get(req.Context(), key)
	switch {
	case err == nil:
		if t.Policy.MayServe(entry, time.Now()) {
			CacheHits.Inc()
			t.Logger.Debug().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Str("fingerprint", key).
				Msg("cache hit")
			resp := entry.Response(req)
			resp.Header.Set(FromCacheHeader, "1")
			return resp, nil
		}
		// Present but stale: treat as a miss and refresh from the network.
		CacheMisses.Inc()
		t.Logger.Debug().Str("fingerprint", key).Msg("cache entry stale")
	case errors.Is(err, ErrMiss):
		CacheMisses.Inc()
		t.Logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("fingerprint", key).
			Msg("cache miss")
	default:
		CacheErrors.WithLabelValues("get").Inc()
		return nil, &BackendError{Op: "get", Key: key, Err: err}
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if !t.Policy.IsCacheable(req.Method, resp.StatusCode) {
		return resp, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	// A send cancelled mid-flight must not write a partial entry. The
	// body is complete here, but the caller has already given up.
	if req.Context().Err() != nil {
		return resp, nil
	}

	entry = NewEntry(resp, respBody, time.Now(), t.Policy.TTL)
	if err := t.Storage.Set(req.Context(), key, entry); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return nil, &BackendError{Op: "set", Key: key, Err: err}
	}
	CacheStores.Inc()
	t.Logger.Debug().
		Str("fingerprint", key).
		Int("status_code", resp.StatusCode).
		Dur("ttl", t.Policy.TTL).
		Msg("stored response")

	return resp, nil
}

// bufferRequestBody reads and restores req's body so it can be hashed
// and replayed on redirects.
func bufferRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return body, nil
}
