package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names.
const (
	MetricRequests        = "influencore.client.requests"
	MetricAttempts        = "influencore.client.attempts"
	MetricRetries         = "influencore.client.retries"
	MetricRequestDuration = "influencore.client.request.duration"
	MetricQueueDepth      = "influencore.client.queue.depth"
	MetricQueueDrained    = "influencore.client.queue.drained"
)

// ClientMetrics holds the request client's instruments.
type ClientMetrics struct {
	requests     metric.Int64Counter
	attempts     metric.Int64Counter
	retries      metric.Int64Counter
	duration     metric.Float64Histogram
	queueDepth   metric.Int64UpDownCounter
	queueDrained metric.Int64Counter
}

// NewClientMetrics creates the instruments on provider's meter, or on the
// global provider when nil.
func NewClientMetrics(provider metric.MeterProvider) (*ClientMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(instrumentationName)

	requests, err := meter.Int64Counter(MetricRequests,
		metric.WithDescription("Requests completed, by outcome and error kind"))
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRequests, err)
	}
	attempts, err := meter.Int64Counter(MetricAttempts,
		metric.WithDescription("HTTP exchanges attempted"))
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricAttempts, err)
	}
	retries, err := meter.Int64Counter(MetricRetries,
		metric.WithDescription("Retries scheduled after a retryable failure"))
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRetries, err)
	}
	duration, err := meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("Time from submit to completion"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRequestDuration, err)
	}
	queueDepth, err := meter.Int64UpDownCounter(MetricQueueDepth,
		metric.WithDescription("Requests waiting in the offline queue"))
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricQueueDepth, err)
	}
	queueDrained, err := meter.Int64Counter(MetricQueueDrained,
		metric.WithDescription("Queued requests dispatched after reconnect"))
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricQueueDrained, err)
	}

	return &ClientMetrics{
		requests:     requests,
		attempts:     attempts,
		retries:      retries,
		duration:     duration,
		queueDepth:   queueDepth,
		queueDrained: queueDrained,
	}, nil
}

// RecordAttempt counts one HTTP exchange.
func (m *ClientMetrics) RecordAttempt(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

// RecordRetry counts one scheduled retry.
func (m *ClientMetrics) RecordRetry(ctx context.Context, method, kind string) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("kind", kind),
	))
}

// RecordResult counts a completed request. kind is empty on success.
func (m *ClientMetrics) RecordResult(ctx context.Context, method, kind string, queued bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if kind != "" {
		outcome = "failure"
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
		attribute.String("kind", kind),
		attribute.Bool("queued", queued),
	))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
}

// RecordQueued adjusts the offline queue depth by delta.
func (m *ClientMetrics) RecordQueued(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.queueDepth.Add(ctx, delta)
}

// RecordDrained counts one queued request leaving the queue for dispatch.
func (m *ClientMetrics) RecordDrained(ctx context.Context) {
	if m == nil {
		return
	}
	m.queueDrained.Add(ctx, 1)
}
