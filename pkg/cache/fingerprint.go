package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Fingerprint identifies a request for cache lookup and storage.
// Two requests with the same method, canonical URL, body, and selected
// header values share an entry.
type Fingerprint struct {
	// Method is the upper-cased request method
	Method string

	// URL is the canonical request URL (see CanonicalURL)
	URL string

	// BodySum is the hex SHA-256 of the request body, "" when empty
	BodySum string

	// Headers holds "name=value" pairs for the configured key headers,
	// sorted by name
	Headers []string
}

// NewFingerprint fingerprints a method/URL pair plus an optional body.
func NewFingerprint(method string, u *url.URL, body []byte) Fingerprint {
	fp := Fingerprint{
		Method: strings.ToUpper(method),
		URL:    CanonicalURL(u),
	}
	if len(body) > 0 {
		sum := sha256.Sum256(body)
		fp.BodySum = hex.EncodeToString(sum[:])
	}
	return fp
}

// FingerprintRequest fingerprints req. body must hold the full request
// body (nil when there is none). keyHeaders names request headers whose
// values partition cache entries; unset headers contribute nothing.
func FingerprintRequest(req *http.Request, body []byte, keyHeaders []string) Fingerprint {
	fp := NewFingerprint(req.Method, req.URL, body)
	if len(keyHeaders) > 0 {
		names := append([]string(nil), keyHeaders...)
		sort.Strings(names)
		for _, name := range names {
			if v := req.Header.Get(name); v != "" {
				fp.Headers = append(fp.Headers, strings.ToLower(name)+"="+v)
			}
		}
	}
	return fp
}

// String returns the canonical text the storage key is derived from.
//
// Example:
//
//	GET:https://api.example.com/items?page=1:body=9f86d0...
func (f Fingerprint) String() string {
	parts := []string{f.Method, f.URL}
	if f.BodySum != "" {
		parts = append(parts, "body="+f.BodySum)
	}
	parts = append(parts, f.Headers...)
	return strings.Join(parts, ":")
}

// Key returns the storage key: the hex SHA-256 of the canonical string.
// Safe as a redis key, a filename, and a sqlite primary key.
func (f Fingerprint) Key() string {
	sum := sha256.Sum256([]byte(f.String()))
	return hex.EncodeToString(sum[:])
}

// CanonicalURL normalizes u so equivalent requests share a fingerprint:
// lower-cased scheme and host, default port stripped, query parameters
// sorted, fragment dropped.
func CanonicalURL(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	host := strings.ToLower(c.Host)
	switch {
	case c.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case c.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	c.Host = host
	c.Fragment = ""
	c.RawFragment = ""
	if c.RawQuery != "" {
		q := c.Query()
		for _, vs := range q {
			sort.Strings(vs)
		}
		c.RawQuery = q.Encode()
	}
	return c.String()
}
