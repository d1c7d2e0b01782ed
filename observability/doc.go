// Package observability wires OpenTelemetry tracing and metrics for the
// request client.
//
// Setup (the CLI does this when observability is enabled):
//
//	shutdown, err := observability.Init(ctx, cfg)
//	defer shutdown(ctx)
//
// The client records its instruments through ClientMetrics and opens one
// span per request with StartSpan. Both fall back to the global no-op
// providers when Init was never called.
package observability
