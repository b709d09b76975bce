package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Directives holds the response Cache-Control fields the policy
// evaluates. Directives this package does not act on are dropped at
// parse time.
type Directives struct {
	NoStore   bool
	NoCache   bool
	MaxAge    time.Duration
	HasMaxAge bool
}

// parseCacheControl extracts caching directives from a Cache-Control
// header value. Unknown directives and malformed max-age values are
// ignored.
func parseCacheControl(value string) Directives {
	var d Directives
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, _ := strings.Cut(part, "=")
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "no-store":
			d.NoStore = true
		case "no-cache":
			d.NoCache = true
		case "max-age":
			secs, err := strconv.Atoi(strings.Trim(strings.TrimSpace(val), `"`))
			if err == nil && secs >= 0 {
				d.MaxAge = time.Duration(secs) * time.Second
				d.HasMaxAge = true
			}
		}
	}
	return d
}

// freshUntil derives the header-declared freshness deadline for a
// response received at receivedAt. max-age wins over Expires. ok is
// false when the headers forbid reuse (no-store, no-cache) or declare
// no usable freshness window.
func freshUntil(headers http.Header, receivedAt time.Time) (deadline time.Time, ok bool) {
	d := parseCacheControl(headers.Get("Cache-Control"))
	if d.NoStore || d.NoCache {
		return time.Time{}, false
	}
	if d.HasMaxAge {
		return receivedAt.Add(d.MaxAge), true
	}
	if v := headers.Get("Expires"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
