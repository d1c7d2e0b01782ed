package httpclient

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/influencore/apiclient/logger"
	"github.com/influencore/apiclient/netstate"
	"github.com/influencore/apiclient/observability"
	"github.com/influencore/apiclient/session"
)

// Option configures optional collaborators of the Client.
type Option func(*Client)

// WithMonitor injects the network state. Without it the client assumes it
// is always online.
func WithMonitor(m *netstate.Monitor) Option {
	return func(c *Client) { c.monitor = m }
}

// WithSessionStore sets where the bearer token is read from on every attempt.
func WithSessionStore(s session.Store) Option {
	return func(c *Client) { c.store = s }
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics records client instruments on m.
func WithMetrics(m *observability.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracerProvider sets the provider request spans are created on.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = observability.Tracer(tp) }
}

// WithUnauthorizedHandler registers fn to be called on every 401 response.
// The client never clears the session itself.
func WithUnauthorizedHandler(fn func(ctx context.Context, err *Error)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithStateObserver registers fn for request state transitions.
func WithStateObserver(fn StateObserver) Option {
	return func(c *Client) { c.observer = fn }
}

// WithHTTPClient replaces the underlying *http.Client. Its Timeout is
// ignored; attempts are bounded by Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}
