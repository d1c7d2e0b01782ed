package httpclient

import (
	"context"
	"net/http"
	"time"
)

// Typed is a response whose JSON body was decoded into T.
type Typed[T any] struct {
	StatusCode int
	Headers    map[string]string
	RequestID  string
	Attempts   int
	Data       T
}

// Envelope is the {"data": ...} wrapper the backend puts around resources.
// Use it as the type argument to unwrap in one step:
//
//	resp, err := httpclient.Get[httpclient.Envelope[[]Video]](c, ctx, "/api/videos")
//	videos := resp.Data.Data
type Envelope[T any] struct {
	Data T `json:"data"`
}

// RequestOption adjusts a Request built by the typed helpers.
type RequestOption func(*Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithQueryParam sets a query parameter.
func WithQueryParam(key, value string) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(map[string]string)
		}
		r.Query[key] = value
	}
}

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) { r.Timeout = d }
}

// WithBearerToken sends token instead of the session token.
func WithBearerToken(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

func Get[T any](c *Client, ctx context.Context, path string, opts ...RequestOption) (*Typed[T], error) {
	return Call[T](c, ctx, build(http.MethodGet, path, nil, opts))
}

func Post[T any](c *Client, ctx context.Context, path string, body any, opts ...RequestOption) (*Typed[T], error) {
	return Call[T](c, ctx, build(http.MethodPost, path, body, opts))
}

func Put[T any](c *Client, ctx context.Context, path string, body any, opts ...RequestOption) (*Typed[T], error) {
	return Call[T](c, ctx, build(http.MethodPut, path, body, opts))
}

func Patch[T any](c *Client, ctx context.Context, path string, body any, opts ...RequestOption) (*Typed[T], error) {
	return Call[T](c, ctx, build(http.MethodPatch, path, body, opts))
}

func Delete[T any](c *Client, ctx context.Context, path string, opts ...RequestOption) (*Typed[T], error) {
	return Call[T](c, ctx, build(http.MethodDelete, path, nil, opts))
}

// Call executes req and decodes the body into T. An empty body leaves Data
// at its zero value. A body that does not fit T is reported as KindUnknown.
func Call[T any](c *Client, ctx context.Context, req Request) (*Typed[T], error) {
	resp, err := c.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Typed[T]{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		RequestID:  resp.RequestID,
		Attempts:   resp.Attempts,
	}
	if err := resp.Decode(&out.Data); err != nil {
		return nil, newMalformedError(resp.StatusCode, resp.Body, err)
	}
	return out, nil
}

func build(method, path string, body any, opts []RequestOption) Request {
	req := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}
