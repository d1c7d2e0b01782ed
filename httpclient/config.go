package httpclient

import (
	"fmt"
	"time"

	"github.com/influencore/apiclient/resilience"
	"github.com/influencore/apiclient/security"
	"github.com/influencore/apiclient/validation"
)

const (
	defaultTimeout = 30 * time.Second
)

// TLSConfig is an alias for the shared security TLS configuration.
type TLSConfig = security.TLSConfig

// Config configures the request client.
type Config struct {
	// BaseURL is prepended to every request path that is not already absolute.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Timeout bounds each attempt. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// Headers are default headers applied to all requests. A default
	// Authorization is sent only when the session has no token.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Retry configures retries of directly dispatched requests. Nil uses
	// DefaultRetryConfig; set MaxRetries to 0 to disable retries. Its
	// RetryIf can only narrow retries: errors that IsRetryable rejects are
	// never retried.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`

	// Offline configures deferral of requests issued while offline.
	Offline OfflineConfig `yaml:"offline" mapstructure:"offline"`

	// TLS configures TLS settings for the HTTP transport.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// OfflineConfig configures the offline queue.
type OfflineConfig struct {
	// Disabled makes requests issued while offline fail with
	// KindNetworkUnavailable instead of waiting for reconnect.
	Disabled bool `yaml:"disabled" mapstructure:"disabled"`

	// MaxSize bounds the number of waiting requests. Zero means unbounded.
	// A request whose context ends while queued gives its slot back.
	MaxSize int `yaml:"max_size" mapstructure:"max_size" validate:"gte=0"`

	// RetryOnDrain applies the retry policy to requests dispatched from the
	// queue. By default they get a single attempt on reconnect.
	RetryOnDrain bool `yaml:"retry_on_drain" mapstructure:"retry_on_drain"`
}

// DefaultConfig returns a configuration for baseURL with the standard
// timeout, retry policy and an unbounded offline queue.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: defaultTimeout,
		Retry:   DefaultRetryConfig(),
	}
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Retry == nil {
		c.Retry = DefaultRetryConfig()
	}
	retry := *c.Retry
	if retry.RetryIf == nil {
		retry.RetryIf = IsRetryable
	}
	retry.ApplyDefaults()
	c.Retry = &retry
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultRetryConfig returns the retry policy for HTTP requests: 3 retries
// of retryable errors with 1s/2s/4s backoff capped at 5s.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}
