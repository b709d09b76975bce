package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/redjax/go-httpclient/pkg/cache"
)

// Kind classifies every error the client can return. The set is closed:
// callers can switch on it exhaustively instead of string-matching messages.
type Kind string

const (
	// KindConfiguration marks invalid or contradictory configuration,
	// detected before any request is sent.
	KindConfiguration Kind = "configuration"

	// KindDependencyMissing marks a configured cache backend whose
	// supporting service is unreachable at construction time.
	KindDependencyMissing Kind = "dependency_missing"

	// KindConnection marks dial failures, resets, and cancelled requests.
	KindConnection Kind = "connection"

	// KindTimeout marks deadline exceeded during connect or read.
	KindTimeout Kind = "timeout"

	// KindProtocol marks malformed URLs, unsupported schemes, and
	// redirect loops.
	KindProtocol Kind = "protocol"

	// KindHTTPStatus marks a completed exchange whose status code was
	// outside the 2xx range.
	KindHTTPStatus Kind = "http_status"

	// KindCacheBackend marks a cache storage operation that failed after
	// the backend was successfully constructed.
	KindCacheBackend Kind = "cache_backend"
)

// Error is the single error type returned by the client. StatusCode and
// Reason are set only for KindHTTPStatus; Response carries the decoded
// response so callers can inspect the error body.
type Error struct {
	Kind       Kind
	StatusCode int
	Reason     string
	Message    string
	Response   *Response
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("http status error: %d %s: %s", e.StatusCode, e.Reason, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or "" if err is not a client
// error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// configError builds a KindConfiguration error.
func configError(msg string, err error) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Err: err}
}

// storageError classifies errors raised while constructing the cache
// backend. An unknown backend name is a configuration mistake; a named
// backend whose service does not answer is a missing dependency.
func storageError(err error) *Error {
	switch {
	case errors.Is(err, cache.ErrUnknownBackend):
		return &Error{Kind: KindConfiguration, Message: "cache backend", Err: err}
	case errors.Is(err, cache.ErrBackendUnavailable):
		return &Error{Kind: KindDependencyMissing, Message: "cache backend", Err: err}
	default:
		return &Error{Kind: KindCacheBackend, Message: "cache backend", Err: err}
	}
}

// classifySendError maps a transport-level failure onto the closed taxonomy.
// The original error stays wrapped, so errors.Is(err, context.Canceled)
// and friends keep working.
func classifySendError(err error) *Error {
	var be *cache.BackendError
	if errors.As(err, &be) {
		return &Error{Kind: KindCacheBackend, Message: "cache " + be.Op, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "deadline exceeded", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindConnection, Message: "request cancelled", Err: err}
	}
	if errors.Is(err, errTooManyRedirects) {
		return &Error{Kind: KindProtocol, Message: "too many redirects", Err: err}
	}

	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return &Error{Kind: KindTimeout, Message: "request timed out", Err: err}
	}

	return &Error{Kind: KindConnection, Message: "request failed", Err: err}
}

// statusError builds the KindHTTPStatus error for a completed non-2xx
// exchange. The response stays attached for callers that need the body.
func statusError(resp *Response) *Error {
	return &Error{
		Kind:       KindHTTPStatus,
		StatusCode: resp.StatusCode,
		Reason:     resp.Reason(),
		Message:    fmt.Sprintf("server returned %s", resp.Status),
		Response:   resp,
	}
}
