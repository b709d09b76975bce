package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Entry is a cached HTTP response together with the bookkeeping the
// policy layer evaluates.
type Entry struct {
	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Headers are the response headers as received from the network
	Headers http.Header `json:"headers"`

	// Body is the full response body
	Body []byte `json:"body"`

	// CachedAt is when the response was stored
	CachedAt time.Time `json:"cached_at"`

	// ExpiresAt is CachedAt plus the configured TTL
	ExpiresAt time.Time `json:"expires_at"`
}

// NewEntry builds an entry from a response whose body has already been
// read in full.
func NewEntry(resp *http.Response, body []byte, now time.Time, ttl time.Duration) *Entry {
	return &Entry{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		Body:       body,
		CachedAt:   now,
		ExpiresAt:  now.Add(ttl),
	}
}

// IsExpired returns true if the entry's TTL window has passed.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// TTL returns the time until TTL expiry.
// Returns 0 if already expired.
func (e *Entry) TTL(now time.Time) time.Duration {
	ttl := e.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Encode serializes the entry for storage. All backends share this
// JSON representation.
func (e *Entry) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEntry deserializes a stored entry.
func DecodeEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return &e, nil
}

// Response rebuilds an http.Response served from this entry.
func (e *Entry) Response(req *http.Request) *http.Response {
	headers := e.Headers.Clone()
	if headers == nil {
		headers = make(http.Header)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode)),
		StatusCode:    e.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
