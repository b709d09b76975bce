package client

import (
	"fmt"
	"net/textproto"
	"net/url"
)

// BodyKind names which body field of an OutboundRequest is in effect.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyContent
	BodyForm
	BodyFiles
	BodyJSON
)

func (k BodyKind) String() string {
	switch k {
	case BodyNone:
		return "none"
	case BodyContent:
		return "content"
	case BodyForm:
		return "form"
	case BodyFiles:
		return "files"
	case BodyJSON:
		return "json"
	default:
		return fmt.Sprintf("bodykind(%d)", int(k))
	}
}

// FilePart is one part of a multipart upload.
type FilePart struct {
	// Field is the form field name.
	Field string

	// FileName is the client-side file name sent in the part header.
	FileName string

	// ContentType of the part. Defaults to application/octet-stream
	// when empty.
	ContentType string

	Content []byte
}

// Body is the resolved request body. Kind names the field in effect;
// the other fields are retained as resolved but not encoded.
type Body struct {
	Kind    BodyKind
	Content []byte
	Form    map[string]string
	Files   []FilePart
	JSON    any
}

// OutboundRequest is a fully merged, ready-to-send request. It is plain
// data: building one performs no I/O, and building twice from the same
// inputs yields identical values.
type OutboundRequest struct {
	Method string

	// URL is absolute, with the query merged and sorted by key.
	URL string

	Headers map[string]string
	Cookies map[string]string

	Body Body

	// Extensions carry caller metadata end to end. The client does not
	// interpret them.
	Extensions map[string]any
}

// requestOptions accumulates per-request values. The set flags separate
// "not given" from "given as empty": an explicitly empty value replaces
// the client default instead of falling back to it.
type requestOptions struct {
	params  map[string]string
	headers map[string]string
	cookies map[string]string

	content    []byte
	contentSet bool

	form    map[string]string
	formSet bool

	files    []FilePart
	filesSet bool

	json    any
	jsonSet bool

	extensions    map[string]any
	extensionsSet bool
}

// RequestOption customizes a single request built by the client.
type RequestOption func(*requestOptions)

// WithParams adds query parameters, overriding client defaults key by key.
func WithParams(params map[string]string) RequestOption {
	return func(o *requestOptions) {
		if o.params == nil {
			o.params = make(map[string]string, len(params))
		}
		for k, v := range params {
			o.params[k] = v
		}
	}
}

// WithHeaders adds headers, overriding client defaults key by key.
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			o.headers[k] = v
		}
	}
}

// WithHeader adds a single header.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, 1)
		}
		o.headers[key] = value
	}
}

// WithCookies adds cookies, overriding client defaults key by key.
func WithCookies(cookies map[string]string) RequestOption {
	return func(o *requestOptions) {
		if o.cookies == nil {
			o.cookies = make(map[string]string, len(cookies))
		}
		for k, v := range cookies {
			o.cookies[k] = v
		}
	}
}

// WithContent sets a raw request body. It replaces any client-level body
// default, even when content is empty.
func WithContent(content []byte) RequestOption {
	return func(o *requestOptions) {
		o.content = content
		o.contentSet = true
	}
}

// WithForm sets urlencoded form fields as the request body.
func WithForm(form map[string]string) RequestOption {
	return func(o *requestOptions) {
		o.form = form
		o.formSet = true
	}
}

// WithFiles sets multipart file parts as the request body.
func WithFiles(files []FilePart) RequestOption {
	return func(o *requestOptions) {
		o.files = files
		o.filesSet = true
	}
}

// WithJSON sets a value to be JSON-encoded as the request body.
func WithJSON(v any) RequestOption {
	return func(o *requestOptions) {
		o.json = v
		o.jsonSet = true
	}
}

// WithExtensions sets caller metadata carried on the request.
func WithExtensions(ext map[string]any) RequestOption {
	return func(o *requestOptions) {
		o.extensions = ext
		o.extensionsSet = true
	}
}

// BuildRequest merges the client configuration with per-request values
// into an OutboundRequest.
//
// Headers, cookies and query parameters merge key by key, request values
// winning. Header names are canonicalized first, so a request "accept"
// replaces a configured "Accept". Body fields replace whole: a request
// that sets any body field uses it instead of the configured default,
// and when several are present the first of content, form, files, json
// is encoded at send time.
func BuildRequest(cfg Config, method, rawURL string, opts ...RequestOption) (*OutboundRequest, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	u, err := resolveURL(cfg.BaseURL, rawURL)
	if err != nil {
		return nil, err
	}

	// Query precedence: per-request params over client params over
	// params embedded in the URL.
	query := u.Query()
	for k, v := range cfg.Params {
		query.Set(k, v)
	}
	for k, v := range o.params {
		query.Set(k, v)
	}
	u.RawQuery = query.Encode()
	u.Fragment = ""

	headers := make(map[string]string, len(cfg.Headers)+len(o.headers))
	for k, v := range cfg.Headers {
		headers[textproto.CanonicalMIMEHeaderKey(k)] = v
	}
	for k, v := range o.headers {
		headers[textproto.CanonicalMIMEHeaderKey(k)] = v
	}

	cookies := make(map[string]string, len(cfg.Cookies)+len(o.cookies))
	for k, v := range cfg.Cookies {
		cookies[k] = v
	}
	for k, v := range o.cookies {
		cookies[k] = v
	}

	body := resolveBody(cfg, &o)

	// Copied like the other merge targets, so mutating the built
	// request never reaches back into the config.
	source := cfg.Extensions
	if o.extensionsSet {
		source = o.extensions
	}
	var extensions map[string]any
	if source != nil {
		extensions = make(map[string]any, len(source))
		for k, v := range source {
			extensions[k] = v
		}
	}

	return &OutboundRequest{
		Method:     method,
		URL:        u.String(),
		Headers:    headers,
		Cookies:    cookies,
		Body:       body,
		Extensions: extensions,
	}, nil
}

// resolveURL joins rawURL with base when rawURL is relative and rejects
// schemes the transport cannot speak.
func resolveURL(base, rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Message: "invalid url", Err: err}
	}

	if !u.IsAbs() && base != "" {
		b, err := url.Parse(base)
		if err != nil {
			return nil, &Error{Kind: KindProtocol, Message: "invalid base url", Err: err}
		}
		u = b.ResolveReference(u)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &Error{
			Kind:    KindProtocol,
			Message: fmt.Sprintf("unsupported protocol scheme %q", u.Scheme),
		}
	}
	return u, nil
}

// resolveBody applies the two-stage body rules: each field individually
// falls back to the client default unless the request set it, then the
// first populated field in precedence order becomes the body. A request
// that sets a field to empty blocks the fallback without becoming the
// body itself.
func resolveBody(cfg Config, o *requestOptions) Body {
	body := Body{
		Content: o.content,
		Form:    o.form,
		Files:   o.files,
		JSON:    o.json,
	}
	contentSet := o.contentSet

	if !o.contentSet && cfg.Content != nil {
		body.Content = cfg.Content
		contentSet = true
	}
	if !o.formSet {
		body.Form = cfg.Form
	}
	if !o.filesSet {
		body.Files = cfg.Files
	}
	if !o.jsonSet {
		body.JSON = cfg.JSON
	}

	switch {
	case contentSet:
		body.Kind = BodyContent
	case len(body.Form) > 0:
		body.Kind = BodyForm
	case len(body.Files) > 0:
		body.Kind = BodyFiles
	case body.JSON != nil:
		body.Kind = BodyJSON
	default:
		body.Kind = BodyNone
	}
	return body
}
