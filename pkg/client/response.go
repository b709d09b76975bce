package client

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/redjax/go-httpclient/pkg/cache"
)

// Response is the decoded result of an exchange. The body has been read
// and the connection released, except in stream mode where Raw carries
// the live response and the caller owns closing Raw.Body.
type Response struct {
	StatusCode int

	// Status is the full status line, e.g. "200 OK".
	Status string

	Headers http.Header

	// Body is the full response body. Empty in stream mode.
	Body []byte

	// FromCache reports whether the response was served from cache
	// storage without contacting the server.
	FromCache bool

	// Raw is set only in stream mode.
	Raw *http.Response
}

// newResponse drains resp into a Response. The caller must not touch
// resp afterwards.
func newResponse(resp *http.Response, body []byte) *Response {
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header,
		Body:       body,
		FromCache:  resp.Header.Get(cache.FromCacheHeader) == "1",
	}
}

// Reason returns the reason phrase of the status line.
func (r *Response) Reason() string {
	_, reason, found := strings.Cut(r.Status, " ")
	if !found {
		return http.StatusText(r.StatusCode)
	}
	return reason
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON unmarshals the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}
