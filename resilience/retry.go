package resilience

import (
	"context"
	"errors"
	"math"
	"time"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 5 * time.Second
	defaultBackoffFactor  = 2.0
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff" validate:"gte=0"`
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff" validate:"gte=0"`
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64 `yaml:"backoff_factor" mapstructure:"backoff_factor" validate:"gte=0"`

	// RetryIf reports whether an error may be retried. Nil retries every
	// error except context cancellation.
	RetryIf func(error) bool `yaml:"-" mapstructure:"-"`
	// ContinueIf is consulted before scheduling a retry and again after the
	// backoff. Returning false stops the loop and the last error is returned.
	ContinueIf func() bool `yaml:"-" mapstructure:"-"`
	// OnRetry is called before sleeping for a retry.
	OnRetry func(retry int, err error, backoff time.Duration) `yaml:"-" mapstructure:"-"`
}

// DefaultRetryConfig returns 3 retries with 1s/2s/4s backoff capped at 5s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     defaultMaxRetries,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries all errors except context cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// ApplyDefaults fills zero backoff settings. MaxRetries is left alone since
// zero is a meaningful value.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = defaultBackoffFactor
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
}

// Backoff returns the delay before the given retry (1-indexed).
func (c RetryConfig) Backoff(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	d := float64(c.InitialBackoff) * math.Pow(c.BackoffFactor, float64(retry-1))
	if c.MaxBackoff > 0 && d > float64(c.MaxBackoff) {
		return c.MaxBackoff
	}
	return time.Duration(d)
}

// Retry runs fn until it succeeds, returns a non-retryable error, or runs out
// of retries. fn receives the 1-indexed attempt number. On failure the result
// of the last attempt is returned along with its error, so callers can still
// inspect a partial response.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	cfg.ApplyDefaults()
	return attempt(ctx, cfg, fn, 1)
}

// RetryFunc executes a function that returns only an error.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context, attempt int) error) error {
	_, err := Retry(ctx, cfg, func(ctx context.Context, n int) (struct{}, error) {
		return struct{}{}, fn(ctx, n)
	})
	return err
}

func attempt[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context, int) (T, error), n int) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	result, err := fn(ctx, n)
	if err == nil {
		return result, nil
	}

	// attempt n failing makes the next one retry number n
	retry := n
	if retry > cfg.MaxRetries || !cfg.RetryIf(err) {
		return result, err
	}
	if cfg.ContinueIf != nil && !cfg.ContinueIf() {
		return result, err
	}

	backoff := cfg.Backoff(retry)
	if cfg.OnRetry != nil {
		cfg.OnRetry(retry, err, backoff)
	}
	if sleepErr := Sleep(ctx, backoff); sleepErr != nil {
		return result, sleepErr
	}
	if cfg.ContinueIf != nil && !cfg.ContinueIf() {
		return result, err
	}
	return attempt(ctx, cfg, fn, n+1)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
