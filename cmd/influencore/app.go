package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/influencore/apiclient/component"
	"github.com/influencore/apiclient/config"
	"github.com/influencore/apiclient/httpclient"
	"github.com/influencore/apiclient/logger"
	"github.com/influencore/apiclient/netstate"
	"github.com/influencore/apiclient/observability"
	"github.com/influencore/apiclient/session"
	"github.com/influencore/apiclient/version"
)

const shutdownTimeout = 10 * time.Second

// app is the wired set of components behind every client command.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *component.Registry
	monitor  *netstate.Monitor
	session  *session.Component
	client   *httpclient.Component

	shutdownTelemetry observability.ShutdownFunc
}

func loadConfig(path string) (*config.Config, error) {
	var opts []config.Option
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}

	cfg := &config.Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads configuration and starts logging, telemetry, the session
// store, the connectivity prober and the request client, in that order.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger.Init(cfg.Logging, cfg.Name)
	log := logger.WithComponent("cli")

	shutdown, err := observability.Init(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}
	metrics, err := observability.NewClientMetrics(nil)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("metrics: %w", err)
	}

	a := &app{
		cfg:               cfg,
		log:               log,
		registry:          component.NewRegistry(nil),
		monitor:           netstate.NewMonitor(true),
		shutdownTelemetry: shutdown,
	}
	a.session = session.NewComponent(cfg.Session, nil)
	prober := netstate.NewProber(cfg.Prober, a.monitor, nil)
	a.client = httpclient.NewComponent(cfg.Client,
		httpclient.WithMonitor(a.monitor),
		httpclient.WithSessionStore(a.session),
		httpclient.WithMetrics(metrics),
		httpclient.WithUnauthorizedHandler(a.onUnauthorized),
		httpclient.WithStateObserver(a.onStateChange),
	)

	for _, c := range []component.Component{a.session, prober, a.client} {
		if err := a.registry.Register(c); err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
	}
	if err := a.registry.StartAll(ctx); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	return a, nil
}

// onUnauthorized clears a session the backend no longer accepts.
func (a *app) onUnauthorized(ctx context.Context, err *httpclient.Error) {
	if clearErr := a.session.Clear(ctx); clearErr != nil {
		a.log.Warn("failed to clear rejected session", logger.ErrorFields("clear_session", clearErr))
		return
	}
	a.log.Info("session cleared", logger.Fields("reason", err.Message))
}

func (a *app) onStateChange(change httpclient.StateChange) {
	if change.State == httpclient.StateQueuedOffline {
		a.log.Info("offline, request queued until the backend is reachable", logger.Fields(
			"request_id", change.RequestID,
		))
	}
}

// close stops the components and flushes telemetry.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(a.registry.StopAll(ctx), a.shutdownTelemetry(ctx))
}
