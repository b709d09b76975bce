package cache

import (
	"strings"
	"time"
)

// Policy decides which responses may be stored and which stored entries
// may be served.
type Policy struct {
	// ForceCache supersedes both whitelists: every response is stored
	// and every stored entry is served.
	ForceCache bool

	// TTL is the storage lifetime for new entries.
	TTL time.Duration

	methods  map[string]struct{}
	statuses map[int]struct{}
}

// NewPolicy builds a policy from the cacheable-method and
// cacheable-status whitelists.
func NewPolicy(methods []string, statuses []int, ttl time.Duration, forceCache bool) *Policy {
	p := &Policy{
		ForceCache: forceCache,
		TTL:        ttl,
		methods:    make(map[string]struct{}, len(methods)),
		statuses:   make(map[int]struct{}, len(statuses)),
	}
	for _, m := range methods {
		p.methods[strings.ToUpper(m)] = struct{}{}
	}
	for _, s := range statuses {
		p.statuses[s] = struct{}{}
	}
	return p
}

// IsCacheable reports whether a response to method with the given
// status code may be stored: the method AND the status must both be
// whitelisted. ForceCache admits everything.
func (p *Policy) IsCacheable(method string, statusCode int) bool {
	if p.ForceCache {
		return true
	}
	if _, ok := p.methods[strings.ToUpper(method)]; !ok {
		return false
	}
	_, ok := p.statuses[statusCode]
	return ok
}

// MayServe reports whether entry may satisfy a new request at now.
// An entry serves while its TTL window holds, or while the response
// headers it was stored with still declare it fresh. Stale entries are
// never served. ForceCache serves any entry the storage still holds.
func (p *Policy) MayServe(entry *Entry, now time.Time) bool {
	if entry == nil {
		return false
	}
	if p.ForceCache {
		return true
	}
	if !entry.IsExpired(now) {
		return true
	}
	if deadline, ok := freshUntil(entry.Headers, entry.CachedAt); ok && now.Before(deadline) {
		return true
	}
	return false
}
