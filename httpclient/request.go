package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/influencore/apiclient/validation"
)

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string `json:"method" validate:"required,http_method"`
	// Path is appended to the client's BaseURL. Can be a full URL if BaseURL is empty.
	Path string `json:"path" validate:"required"`
	// Headers are request-specific headers (merged with client defaults).
	// Setting Authorization here suppresses the session token.
	Headers map[string]string `json:"headers"`
	// Query are URL query parameters.
	Query map[string]string `json:"query"`
	// Body is the request body. Accepts io.Reader, []byte, string, or any value
	// that will be JSON-encoded. Struct bodies are checked against their
	// validate tags before dispatch.
	Body any `json:"-"`
	// Timeout overrides the client timeout for each attempt of this request.
	Timeout time.Duration `json:"timeout" validate:"gte=0"`
}

// descriptor is the frozen form of a Request. It is built once when the
// request is issued and only read afterwards, by every attempt.
type descriptor struct {
	id          string
	method      string
	path        string
	query       url.Values
	headers     http.Header
	body        []byte
	contentType string
	timeout     time.Duration
	issuedAt    time.Time
}

// freeze validates req and builds its descriptor.
func freeze(req Request, defaultTimeout time.Duration) (*descriptor, error) {
	if err := validation.Validate(req); err != nil {
		return nil, newValidationError(err)
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, newValidationError(fmt.Errorf("encode body: %w", err))
	}

	d := &descriptor{
		id:          uuid.NewString(),
		method:      strings.ToUpper(req.Method),
		path:        req.Path,
		headers:     make(http.Header, len(req.Headers)),
		body:        body,
		contentType: contentType,
		timeout:     req.Timeout,
		issuedAt:    time.Now(),
	}
	if d.timeout <= 0 {
		d.timeout = defaultTimeout
	}
	for k, v := range req.Headers {
		d.headers.Set(k, v)
	}
	if len(req.Query) > 0 {
		d.query = make(url.Values, len(req.Query))
		for k, v := range req.Query {
			d.query.Set(k, v)
		}
	}
	return d, nil
}

// bodyReader returns a fresh reader over the encoded body, or nil.
func (d *descriptor) bodyReader() io.Reader {
	if d.body == nil {
		return nil
	}
	return bytes.NewReader(d.body)
}

// url resolves the descriptor path against baseURL.
func (d *descriptor) url(baseURL string) string {
	target := d.path
	if baseURL != "" && !strings.HasPrefix(d.path, "http://") && !strings.HasPrefix(d.path, "https://") {
		target = strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(d.path, "/")
	}
	if len(d.query) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + d.query.Encode()
}

// encodeBody converts a body value into bytes and a content type. Readers
// are drained so every attempt can resend the same payload.
func encodeBody(body any) ([]byte, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, "", err
		}
		return data, "", nil
	case []byte:
		data := bytes.Clone(v)
		if json.Valid(data) {
			return data, "application/json", nil
		}
		return data, "application/octet-stream", nil
	case string:
		return []byte(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
}

// Response is the result of a successful request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw JSON body.
	Body json.RawMessage
	// RequestID is the X-Request-ID sent with every attempt.
	RequestID string
	// Attempts is the number of attempts it took.
	Attempts int
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("httpclient: decode response: %w", err)
	}
	return nil
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
