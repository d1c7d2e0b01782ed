package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/influencore/apiclient"

// Span attribute keys used by the client.
const (
	AttrRequestID = "influencore.request_id"
	AttrAttempts  = "influencore.attempts"
	AttrQueued    = "influencore.queued"
	AttrErrorKind = "influencore.error_kind"
)

// Tracer returns the client tracer from provider, or from the global
// provider when nil.
func Tracer(provider trace.TracerProvider) trace.Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return provider.Tracer(instrumentationName)
}

// StartSpan starts a span on the global provider.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer(nil).Start(ctx, name, opts...)
}
