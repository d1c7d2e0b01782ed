package netstate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/influencore/apiclient/component"
	"github.com/influencore/apiclient/logger"
	"github.com/influencore/apiclient/testutil"
)

func newProbeServer(t *testing.T, status *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(int(status.Load()))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProber_FlipsMonitor(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := newProbeServer(t, &status)

	monitor := NewMonitor(false)
	p := NewProber(ProberConfig{Enabled: true, BaseURL: srv.URL, FailureThreshold: 2}, monitor, logger.NewNop())
	ctx := context.Background()

	if err := p.Probe(ctx); err != nil {
		t.Fatalf("unexpected probe error: %v", err)
	}
	if !monitor.Online() {
		t.Fatal("expected online after a successful probe")
	}

	status.Store(http.StatusServiceUnavailable)
	if err := p.Probe(ctx); err == nil {
		t.Fatal("expected probe error for 503")
	}
	if !monitor.Online() {
		t.Error("expected a single failure to stay below the threshold")
	}
	_ = p.Probe(ctx)
	if monitor.Online() {
		t.Error("expected offline after two consecutive failures")
	}

	status.Store(http.StatusUnauthorized)
	if err := p.Probe(ctx); err != nil {
		t.Fatalf("expected a 4xx to count as reachable, got %v", err)
	}
	if !monitor.Online() {
		t.Error("expected online again")
	}
}

func TestProber_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	monitor := NewMonitor(true)
	p := NewProber(ProberConfig{Enabled: true, BaseURL: url, FailureThreshold: 1, Timeout: 200 * time.Millisecond}, monitor, logger.NewNop())

	if err := p.Probe(context.Background()); err == nil {
		t.Fatal("expected error for a closed server")
	}
	if monitor.Online() {
		t.Error("expected offline")
	}
	if h := p.Health(context.Background()); h.Status != component.StatusDegraded {
		t.Errorf("expected degraded health, got %s", h.Status)
	}
}

func TestProber_StartStopLoop(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := newProbeServer(t, &status)

	monitor := NewMonitor(true)
	p := NewProber(ProberConfig{
		Enabled:          true,
		BaseURL:          srv.URL,
		Interval:         10 * time.Millisecond,
		FailureThreshold: 1,
	}, monitor, logger.NewNop())

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if monitor.Online() {
		t.Error("expected the initial probe to flip offline")
	}

	flipped := make(chan struct{})
	unsubscribe := monitor.Subscribe(func(online bool) {
		if online {
			close(flipped)
		}
	})
	defer unsubscribe()

	status.Store(http.StatusOK)
	select {
	case <-flipped:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the loop to bring the monitor back online")
	}

	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("stop: %v", err)
	}
}

func TestProber_Disabled(t *testing.T) {
	p := NewProber(ProberConfig{}, NewMonitor(true), logger.NewNop())
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("disabled start should succeed: %v", err)
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("disabled stop should succeed: %v", err)
	}
	if d := p.Describe(); d.Details != "disabled" {
		t.Errorf("unexpected description %+v", d)
	}
}

func TestProberConfig_Validate(t *testing.T) {
	cfg := ProberConfig{Enabled: true}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing base URL to fail when enabled")
	}

	cfg.BaseURL = "http://localhost:8089"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if cfg.url() != "http://localhost:8089/health" {
		t.Errorf("unexpected url %s", cfg.url())
	}
}

func TestProber_AgainstBackend(t *testing.T) {
	backend := testutil.NewBackend(testutil.BackendConfig{})
	testutil.T(t).Setup(backend)

	monitor := NewMonitor(true)
	p := NewProber(ProberConfig{Enabled: true, BaseURL: backend.URL(), FailureThreshold: 1}, monitor, logger.NewNop())
	ctx := context.Background()

	backend.SetHealthy(false)
	_ = p.Probe(ctx)
	if monitor.Online() {
		t.Fatal("expected an unhealthy backend to read as offline")
	}

	backend.SetHealthy(true)
	if err := p.Probe(ctx); err != nil {
		t.Fatalf("unexpected probe error: %v", err)
	}
	if !monitor.Online() {
		t.Error("expected online after the backend recovers")
	}
	if n := len(backend.RequestsTo("GET /health")); n != 2 {
		t.Errorf("expected 2 health requests, got %d", n)
	}
}
