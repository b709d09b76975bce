package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestPolicy_IsCacheable(t *testing.T) {
	policy := NewPolicy([]string{"GET"}, []int{200, 201, 202, 301, 302, 308}, 15*time.Minute, false)

	tests := []struct {
		name       string
		method     string
		statusCode int
		want       bool
	}{
		{"GET 200", "GET", 200, true},
		{"lowercase get 200", "get", 200, true},
		{"GET 301", "GET", 301, true},
		{"GET 404 off-whitelist status", "GET", 404, false},
		{"POST 200 off-whitelist method", "POST", 200, false},
		{"POST 404 both off-whitelist", "POST", 404, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.IsCacheable(tt.method, tt.statusCode); got != tt.want {
				t.Errorf("IsCacheable(%q, %d) = %v, want %v", tt.method, tt.statusCode, got, tt.want)
			}
		})
	}
}

func TestPolicy_IsCacheable_ForceCache(t *testing.T) {
	policy := NewPolicy([]string{"GET"}, []int{200}, 15*time.Minute, true)

	// ForceCache supersedes both whitelists.
	if !policy.IsCacheable("POST", 404) {
		t.Error("IsCacheable(POST, 404) = false, want true under ForceCache")
	}
	if !policy.IsCacheable("DELETE", 500) {
		t.Error("IsCacheable(DELETE, 500) = false, want true under ForceCache")
	}
}

func TestPolicy_MayServe(t *testing.T) {
	now := time.Now()
	policy := NewPolicy([]string{"GET"}, []int{200}, 15*time.Minute, false)

	tests := []struct {
		name  string
		entry *Entry
		want  bool
	}{
		{
			name:  "nil entry",
			entry: nil,
			want:  false,
		},
		{
			name: "within ttl window",
			entry: &Entry{
				CachedAt:  now.Add(-5 * time.Minute),
				ExpiresAt: now.Add(10 * time.Minute),
			},
			want: true,
		},
		{
			name: "ttl expired, no headers",
			entry: &Entry{
				CachedAt:  now.Add(-1 * time.Hour),
				ExpiresAt: now.Add(-45 * time.Minute),
			},
			want: false,
		},
		{
			name: "ttl expired, max-age still fresh",
			entry: &Entry{
				Headers:   http.Header{"Cache-Control": []string{"max-age=7200"}},
				CachedAt:  now.Add(-1 * time.Hour),
				ExpiresAt: now.Add(-45 * time.Minute),
			},
			want: true,
		},
		{
			name: "ttl expired, max-age also past",
			entry: &Entry{
				Headers:   http.Header{"Cache-Control": []string{"max-age=60"}},
				CachedAt:  now.Add(-1 * time.Hour),
				ExpiresAt: now.Add(-45 * time.Minute),
			},
			want: false,
		},
		{
			name: "ttl expired, no-cache vetoes header freshness",
			entry: &Entry{
				Headers:   http.Header{"Cache-Control": []string{"no-cache, max-age=7200"}},
				CachedAt:  now.Add(-1 * time.Hour),
				ExpiresAt: now.Add(-45 * time.Minute),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.MayServe(tt.entry, now); got != tt.want {
				t.Errorf("MayServe() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolicy_MayServe_ForceCache(t *testing.T) {
	now := time.Now()
	policy := NewPolicy([]string{"GET"}, []int{200}, 15*time.Minute, true)

	// Anything the storage still holds is served, even past its window.
	entry := &Entry{
		Headers:   http.Header{"Cache-Control": []string{"no-store"}},
		CachedAt:  now.Add(-1 * time.Hour),
		ExpiresAt: now.Add(-45 * time.Minute),
	}
	if !policy.MayServe(entry, now) {
		t.Error("MayServe() = false, want true under ForceCache")
	}
}
