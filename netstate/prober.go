package netstate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/influencore/apiclient/component"
	"github.com/influencore/apiclient/logger"
	"github.com/influencore/apiclient/validation"
)

const (
	defaultProbeInterval    = 5 * time.Second
	defaultProbeTimeout     = 2 * time.Second
	defaultFailureThreshold = 2
	defaultHealthPath       = "/health"
)

// ProberConfig configures connectivity probing.
type ProberConfig struct {
	// Enabled turns probing on. When off the monitor is left to the host.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// BaseURL is the backend whose HealthPath is polled.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required_if=Enabled true,omitempty,url"`
	// HealthPath defaults to /health.
	HealthPath string `yaml:"health_path" mapstructure:"health_path" validate:"omitempty,startswith=/"`
	// Interval between probes. Defaults to 5s.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gt=0"`
	// Timeout bounds a single probe. Defaults to 2s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	// FailureThreshold is the number of consecutive failed probes before
	// the monitor is flipped offline. Defaults to 2.
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold" validate:"gte=1"`
}

// ApplyDefaults fills in zero-value fields.
func (c *ProberConfig) ApplyDefaults() {
	if c.HealthPath == "" {
		c.HealthPath = defaultHealthPath
	}
	if c.Interval <= 0 {
		c.Interval = defaultProbeInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultProbeTimeout
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = defaultFailureThreshold
	}
}

// Validate checks the configuration.
func (c *ProberConfig) Validate() error {
	return validation.Validate(c)
}

func (c *ProberConfig) url() string {
	return strings.TrimRight(c.BaseURL, "/") + c.HealthPath
}

// Prober polls a backend health endpoint and flips a Monitor. Any response
// below 500 counts as reachable; transport errors and 5xx count as failures.
// One success flips the monitor online; FailureThreshold consecutive
// failures flip it offline.
type Prober struct {
	cfg     ProberConfig
	monitor *Monitor
	client  *http.Client
	log     *logger.Logger

	mu       sync.Mutex
	failures int
	lastErr  error
	lastAt   time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

var _ component.Component = (*Prober)(nil)
var _ component.Describable = (*Prober)(nil)

// NewProber creates a prober for monitor.
func NewProber(cfg ProberConfig, monitor *Monitor, log *logger.Logger) *Prober {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.WithComponent("netstate")
	}
	return &Prober{
		cfg:     cfg,
		monitor: monitor,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}
}

// Probe performs one check and updates the monitor.
func (p *Prober) Probe(ctx context.Context) error {
	err := p.check(ctx)

	p.mu.Lock()
	p.lastAt = time.Now()
	p.lastErr = err
	if err == nil {
		p.failures = 0
	} else {
		p.failures++
	}
	failures := p.failures
	p.mu.Unlock()

	switch {
	case err == nil:
		if p.monitor.SetOnline(true) {
			p.log.Info("network online", logger.Fields("url", p.cfg.url()))
		}
	case failures >= p.cfg.FailureThreshold:
		if p.monitor.SetOnline(false) {
			p.log.Warn("network offline", logger.Fields(
				"url", p.cfg.url(),
				"failures", failures,
				logger.FieldError, err.Error(),
			))
		}
	default:
		p.log.Debug("probe failed", logger.Fields(
			"failures", failures,
			logger.FieldError, err.Error(),
		))
	}
	return err
}

func (p *Prober) check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.url(), nil)
	if err != nil {
		return fmt.Errorf("netstate: build probe: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("netstate: probe: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("netstate: probe: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Name returns the component name.
func (p *Prober) Name() string { return "netstate-prober" }

// Start probes once and then keeps probing every Interval until Stop.
func (p *Prober) Start(ctx context.Context) error {
	if !p.cfg.Enabled {
		p.log.Debug("prober disabled")
		return nil
	}
	if err := p.cfg.Validate(); err != nil {
		return fmt.Errorf("netstate config: %w", err)
	}

	_ = p.Probe(ctx)

	loopCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(loopCtx)
	return nil
}

func (p *Prober) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.Probe(ctx)
		}
	}
}

// Stop ends the probe loop.
func (p *Prober) Stop(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports the last probe result.
func (p *Prober) Health(_ context.Context) component.Health {
	h := component.Health{Name: p.Name(), Status: component.StatusHealthy}
	if !p.cfg.Enabled {
		h.Message = "disabled"
		return h
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.lastAt.IsZero():
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case p.lastErr != nil:
		h.Status = component.StatusDegraded
		h.Message = p.lastErr.Error()
	}
	return h
}

// Describe summarizes the probe target.
func (p *Prober) Describe() component.Description {
	details := "disabled"
	if p.cfg.Enabled {
		details = fmt.Sprintf("%s every %s", p.cfg.url(), p.cfg.Interval)
	}
	return component.Description{Name: "Connectivity probe", Type: "netstate", Details: details}
}
