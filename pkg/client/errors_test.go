package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/redjax/go-httpclient/pkg/cache"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "http status error",
			err: &Error{
				Kind:       KindHTTPStatus,
				StatusCode: 404,
				Reason:     "Not Found",
				Message:    "server returned 404 Not Found",
			},
			expected: "http status error: 404 Not Found: server returned 404 Not Found",
		},
		{
			name: "error with wrapped error",
			err: &Error{
				Kind:    KindConnection,
				Message: "request failed",
				Err:     errors.New("connection refused"),
			},
			expected: "connection error: request failed: connection refused",
		},
		{
			name: "error without wrapped error",
			err: &Error{
				Kind:    KindConfiguration,
				Message: "cache is not enabled",
			},
			expected: "configuration error: cache is not enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	wrappedErr := errors.New("wrapped error")
	err := &Error{
		Kind:    KindTimeout,
		Message: "request timed out",
		Err:     wrappedErr,
	}

	if unwrapped := err.Unwrap(); unwrapped != wrappedErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, wrappedErr)
	}

	if !errors.Is(err, wrappedErr) {
		t.Error("errors.Is should work with wrapped error")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{
			name:     "client error",
			err:      &Error{Kind: KindProtocol, Message: "invalid url"},
			expected: KindProtocol,
		},
		{
			name:     "wrapped client error",
			err:      fmt.Errorf("outer: %w", &Error{Kind: KindTimeout, Message: "deadline"}),
			expected: KindTimeout,
		},
		{
			name:     "plain error",
			err:      errors.New("something else"),
			expected: "",
		},
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.expected {
				t.Errorf("KindOf() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStorageError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{
			name:     "unknown backend is a configuration mistake",
			err:      fmt.Errorf("%w: %q", cache.ErrUnknownBackend, "carrierpigeon"),
			expected: KindConfiguration,
		},
		{
			name:     "unreachable backend is a missing dependency",
			err:      fmt.Errorf("%w: redis at localhost:1", cache.ErrBackendUnavailable),
			expected: KindDependencyMissing,
		},
		{
			name:     "anything else is a backend failure",
			err:      errors.New("disk full"),
			expected: KindCacheBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := storageError(tt.err)
			if result.Kind != tt.expected {
				t.Errorf("storageError().Kind = %q, want %q", result.Kind, tt.expected)
			}
			if !errors.Is(result, tt.err) {
				t.Error("storageError should wrap the original error")
			}
		})
	}
}

// timeoutError satisfies net.Error the way transport timeouts do.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifySendError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{
			name:     "deadline exceeded",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: context.DeadlineExceeded},
			expected: KindTimeout,
		},
		{
			name:     "context cancelled",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: context.Canceled},
			expected: KindConnection,
		},
		{
			name:     "transport timeout",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: timeoutError{}},
			expected: KindTimeout,
		},
		{
			name:     "too many redirects",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: fmt.Errorf("%w: stopped after 20", errTooManyRedirects)},
			expected: KindProtocol,
		},
		{
			name:     "cache backend failure",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: &cache.BackendError{Op: "get", Key: "abc", Err: errors.New("disk full")}},
			expected: KindCacheBackend,
		},
		{
			name:     "plain network failure",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: errors.New("connection refused")},
			expected: KindConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifySendError(tt.err)
			if result.Kind != tt.expected {
				t.Errorf("classifySendError().Kind = %q, want %q", result.Kind, tt.expected)
			}
			if !errors.Is(result, tt.err) {
				t.Error("classifySendError should wrap the original error")
			}
		})
	}
}

func TestClassifySendError_KeepsSentinels(t *testing.T) {
	err := &url.Error{Op: "Get", URL: "http://example.com", Err: context.Canceled}

	classified := classifySendError(err)
	if !errors.Is(classified, context.Canceled) {
		t.Error("errors.Is(classified, context.Canceled) should still hold")
	}
}
