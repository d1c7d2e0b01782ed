package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/influencore/apiclient/logger"
	"github.com/influencore/apiclient/netstate"
	"github.com/influencore/apiclient/observability"
	"github.com/influencore/apiclient/offline"
	"github.com/influencore/apiclient/resilience"
	"github.com/influencore/apiclient/session"
)

// Future is the pending result of a submitted request.
type Future = offline.Future[*Response]

// pending is a descriptor waiting in the offline queue together with the
// context of the caller that issued it.
type pending struct {
	ctx  context.Context
	desc *descriptor
}

// Client is the resilient request client. It is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client

	monitor        *netstate.Monitor
	store          session.Store
	log            *logger.Logger
	metrics        *observability.ClientMetrics
	tracer         trace.Tracer
	onUnauthorized func(context.Context, *Error)
	observer       StateObserver

	queue       *offline.Queue[pending, *Response]
	drainSignal chan struct{}
	stop        chan struct{}
	unsubscribe func()

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
	drainer  sync.WaitGroup
}

// New creates a new client with the given configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:      cfg,
		queue:       offline.NewQueue[pending, *Response](cfg.Offline.MaxSize),
		drainSignal: make(chan struct{}, 1),
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.TLS != nil {
			tlsCfg, err := cfg.TLS.Build()
			if err != nil {
				return nil, err
			}
			if tlsCfg != nil {
				transport.TLSClientConfig = tlsCfg
			}
		}
		c.httpClient = &http.Client{Transport: transport}
	}
	if c.monitor == nil {
		c.monitor = netstate.NewMonitor(true)
	}
	if c.store == nil {
		c.store = session.NewMemoryStore("")
	}
	if c.log == nil {
		c.log = logger.WithComponent("httpclient")
	}
	if c.tracer == nil {
		c.tracer = observability.Tracer(nil)
	}

	c.unsubscribe = c.monitor.Subscribe(func(online bool) {
		if online {
			c.signalDrain()
		}
	})
	c.drainer.Add(1)
	go c.drainLoop()

	return c, nil
}

// Submit issues req and returns immediately with its pending result. If the
// network is offline the request waits in the offline queue; otherwise it is
// dispatched on its own goroutine. ctx bounds the whole request including
// retries and time spent queued.
func (c *Client) Submit(ctx context.Context, req Request) *Future {
	d, err := freeze(req, c.config.Timeout)
	if err != nil {
		return rejected(err)
	}
	c.notify(d, StateCreated, 0, nil)

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return c.fail(ctx, d, ErrClosed)
	}
	if !c.monitor.Online() {
		c.mu.RUnlock()
		return c.deferOffline(ctx, d)
	}
	c.inflight.Add(1)
	c.mu.RUnlock()

	f := offline.NewFuture[*Response]()
	go func() {
		defer c.inflight.Done()
		f.Complete(c.dispatch(ctx, d, false))
	}()
	return f
}

// Execute issues req and waits for its result.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	return c.Submit(ctx, req).Wait(ctx)
}

// QueueLen returns the number of requests waiting for the network.
func (c *Client) QueueLen() int {
	return c.queue.Len()
}

// Online reports the client's view of the network state.
func (c *Client) Online() bool {
	return c.monitor.Online()
}

// Close stops accepting requests, rejects queued ones with ErrClosed and
// waits for in-flight requests to finish or ctx to expire.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.unsubscribe()
	close(c.stop)

	if n := c.queue.Close(ErrClosed); n > 0 {
		c.metrics.RecordQueued(ctx, -int64(n))
		c.log.Info("offline queue discarded", logger.Fields(logger.FieldQueueLen, n))
	}

	done := make(chan struct{})
	go func() {
		c.drainer.Wait()
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("httpclient: close: %w", ctx.Err())
	}
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// deferOffline places d on the offline queue.
func (c *Client) deferOffline(ctx context.Context, d *descriptor) *Future {
	if c.config.Offline.Disabled {
		return c.fail(ctx, d, newUnavailableError(nil))
	}

	f, err := c.queue.Enqueue(pending{ctx: ctx, desc: d})
	switch {
	case errors.Is(err, offline.ErrClosed):
		return c.fail(ctx, d, ErrClosed)
	case err != nil:
		return c.fail(ctx, d, newUnavailableError(err))
	}

	c.metrics.RecordQueued(ctx, 1)
	c.notify(d, StateQueuedOffline, 0, nil)
	c.log.Info("request queued while offline", logger.Fields(
		logger.FieldRequestID, d.id,
		logger.FieldMethod, d.method,
		logger.FieldPath, d.path,
		logger.FieldQueueLen, c.queue.Len(),
	))

	if ctx.Done() != nil {
		go c.evictOnCancel(ctx, d, f)
	}

	// The network may have come back between the check and the enqueue.
	if c.monitor.Online() {
		c.signalDrain()
	}
	return f
}

// evictOnCancel frees the queue slot of a request whose caller gave up
// while it waited, so it no longer counts against Offline.MaxSize.
func (c *Client) evictOnCancel(ctx context.Context, d *descriptor, f *Future) {
	select {
	case <-f.Done():
		return
	case <-ctx.Done():
	}
	if !c.queue.Remove(f) {
		// The drain loop already owns it.
		return
	}
	c.metrics.RecordQueued(context.WithoutCancel(ctx), -1)
	c.notify(d, StateFailedTerminal, 0, ctx.Err())
	c.log.Debug("queued request cancelled", logger.Fields(
		logger.FieldRequestID, d.id,
		logger.FieldError, ctx.Err().Error(),
	))
	f.Reject(ctx.Err())
}

func (c *Client) signalDrain() {
	select {
	case c.drainSignal <- struct{}{}:
	default:
	}
}

func (c *Client) drainLoop() {
	defer c.drainer.Done()
	for {
		select {
		case <-c.stop:
			return
		case <-c.drainSignal:
			c.drain()
		}
	}
}

// drain dispatches queued requests one at a time, oldest first, for as long
// as the network stays online.
func (c *Client) drain() {
	if n := c.queue.Len(); n > 0 {
		c.log.Info("draining offline queue", logger.Fields(logger.FieldQueueLen, n))
	}
	for c.monitor.Online() && !c.isClosed() {
		entry, ok := c.queue.Dequeue()
		if !ok {
			return
		}
		p := entry.Item
		c.metrics.RecordQueued(p.ctx, -1)
		c.metrics.RecordDrained(p.ctx)

		if err := p.ctx.Err(); err != nil {
			c.notify(p.desc, StateFailedTerminal, 0, err)
			entry.Result.Reject(err)
			continue
		}
		entry.Result.Complete(c.dispatch(p.ctx, p.desc, true))
	}
}

// dispatch runs the attempt loop for d and records the outcome.
func (c *Client) dispatch(ctx context.Context, d *descriptor, queued bool) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, d.method+" "+d.path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(observability.AttrRequestID, d.id),
			attribute.String("http.request.method", d.method),
			attribute.String("url.path", d.path),
			attribute.Bool(observability.AttrQueued, queued),
		),
	)
	defer span.End()

	policy := *c.config.Retry
	if queued && !c.config.Offline.RetryOnDrain {
		policy.MaxRetries = 0
	}
	// A custom RetryIf can narrow retries but never widen them past the
	// retryable kinds.
	retryIf := policy.RetryIf
	policy.RetryIf = func(err error) bool {
		return IsRetryable(err) && (retryIf == nil || retryIf(err))
	}
	policy.ContinueIf = func() bool {
		return c.monitor.Online() && !c.isClosed()
	}
	policy.OnRetry = func(retry int, err error, backoff time.Duration) {
		c.metrics.RecordRetry(ctx, d.method, KindOf(err).String())
		c.notify(d, StateRetryScheduled, retry, err)
		c.log.Warn("retrying request", logger.Fields(
			logger.FieldRequestID, d.id,
			logger.FieldMethod, d.method,
			logger.FieldPath, d.path,
			logger.FieldAttempt, retry+1,
			logger.FieldKind, KindOf(err).String(),
			logger.FieldBackoff, backoff.Milliseconds(),
			logger.FieldError, err.Error(),
		))
	}

	attempts := 0
	resp, err := resilience.Retry(ctx, policy, func(ctx context.Context, n int) (*Response, error) {
		attempts = n
		c.notify(d, StateDispatching, n, nil)
		return c.attempt(ctx, d, n)
	})

	span.SetAttributes(attribute.Int(observability.AttrAttempts, attempts))
	elapsed := time.Since(d.issuedAt)

	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Attempts = attempts
		}
		kind := KindOf(err)
		span.SetAttributes(attribute.String(observability.AttrErrorKind, kind.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.RecordResult(ctx, d.method, kind.String(), queued, elapsed)
		c.notify(d, StateFailedTerminal, attempts, err)
		c.log.Debug("request failed", logger.Fields(
			logger.FieldRequestID, d.id,
			logger.FieldMethod, d.method,
			logger.FieldPath, d.path,
			logger.FieldAttempt, attempts,
			logger.FieldKind, kind.String(),
			logger.FieldError, err.Error(),
		))
		return nil, err
	}

	resp.Attempts = attempts
	c.metrics.RecordResult(ctx, d.method, "", queued, elapsed)
	c.notify(d, StateSucceeded, attempts, nil)
	c.log.Debug("request succeeded", logger.Fields(
		logger.FieldRequestID, d.id,
		logger.FieldMethod, d.method,
		logger.FieldPath, d.path,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldAttempt, attempts,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	return resp, nil
}

// attempt performs one HTTP exchange bounded by the descriptor timeout.
func (c *Client) attempt(ctx context.Context, d *descriptor, n int) (*Response, error) {
	c.metrics.RecordAttempt(ctx, d.method)

	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	httpReq, err := c.buildRequest(attemptCtx, d)
	if err != nil {
		return nil, err
	}

	c.log.Debug("dispatching request", logger.Fields(
		logger.FieldRequestID, d.id,
		logger.FieldMethod, d.method,
		logger.FieldPath, d.path,
		logger.FieldAttempt, n,
	))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, attemptCtx, d, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, attemptCtx, d, fmt.Errorf("read response body: %w", err))
	}

	if classErr := ClassifyStatusCode(resp.StatusCode, body); classErr != nil {
		if classErr.Kind == KindUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx, classErr)
		}
		return nil, classErr
	}

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && !json.Valid(trimmed) {
		return nil, newMalformedError(resp.StatusCode, body, errors.New("response body is not valid JSON"))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
		RequestID:  d.id,
	}, nil
}

// transportError classifies a failed exchange. A caller cancellation is
// returned as is; the attempt deadline becomes KindTimeout.
func (c *Client) transportError(ctx, attemptCtx context.Context, d *descriptor, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return newTimeoutError(err, d.timeout)
	}
	return newNetworkError(err)
}

// buildRequest constructs an *http.Request for one attempt of d.
func (c *Client) buildRequest(ctx context.Context, d *descriptor) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, d.method, d.url(c.config.BaseURL), d.bodyReader())
	if err != nil {
		return nil, newValidationError(fmt.Errorf("create request: %w", err))
	}

	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range d.headers {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	// Only an Authorization set on the request itself opts out of the
	// session token; a client default is replaced when a token exists.

	if d.body != nil && httpReq.Header.Get("Content-Type") == "" && d.contentType != "" {
		httpReq.Header.Set("Content-Type", d.contentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set("X-Request-ID", d.id)

	if d.headers.Get("Authorization") == "" {
		if token := c.token(ctx, d); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

// token reads the session token for one attempt. A store failure is logged
// and the attempt proceeds unauthenticated.
func (c *Client) token(ctx context.Context, d *descriptor) string {
	token, err := c.store.Token(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNoToken) {
			c.log.Warn("session token unavailable", logger.Fields(
				logger.FieldRequestID, d.id,
				logger.FieldError, err.Error(),
			))
		}
		return ""
	}
	return token
}

// fail resolves a request that never reached dispatch.
func (c *Client) fail(ctx context.Context, d *descriptor, err error) *Future {
	c.metrics.RecordResult(ctx, d.method, KindOf(err).String(), false, time.Since(d.issuedAt))
	c.notify(d, StateFailedTerminal, 0, err)
	c.log.Debug("request rejected", logger.Fields(
		logger.FieldRequestID, d.id,
		logger.FieldMethod, d.method,
		logger.FieldPath, d.path,
		logger.FieldError, err.Error(),
	))
	return rejected(err)
}

func (c *Client) notify(d *descriptor, state State, attempt int, err error) {
	if c.observer == nil {
		return
	}
	c.observer(StateChange{
		RequestID: d.id,
		Method:    d.method,
		Path:      d.path,
		State:     state,
		Attempt:   attempt,
		Err:       err,
	})
}

func rejected(err error) *Future {
	f := offline.NewFuture[*Response]()
	f.Reject(err)
	return f
}
