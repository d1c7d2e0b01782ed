package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/influencore/apiclient/component"
	"github.com/influencore/apiclient/logger"
)

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)
var _ Store = (*Component)(nil)

// Component opens the configured Store on Start and closes it on Stop. It
// also implements Store by delegating, so it can be handed to the client
// before Start has run.
type Component struct {
	cfg   Config
	log   *logger.Logger
	store Store
}

// NewComponent creates a session component for cfg.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.WithComponent("session")
	}
	return &Component{cfg: cfg, log: log}
}

// Name returns the component name.
func (c *Component) Name() string { return "session" }

// Start opens the store.
func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}
	store, err := open(ctx, c.cfg)
	if err != nil {
		return err
	}
	c.store = store
	c.log.Debug("session store opened", logger.Fields(
		"driver", c.cfg.Driver,
		"sealed", c.cfg.EncryptionKey != "",
	))
	return nil
}

// Stop closes the store if it holds resources.
func (c *Component) Stop(_ context.Context) error {
	if closer, ok := c.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Health reports whether the store can be read.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.store == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
		return h
	}
	if _, err := c.store.Token(ctx); err != nil && !errors.Is(err, ErrNoToken) {
		h.Status = component.StatusUnhealthy
		h.Message = err.Error()
	}
	return h
}

// Describe summarizes the store.
func (c *Component) Describe() component.Description {
	details := c.cfg.Driver
	switch c.cfg.Driver {
	case DriverBolt:
		details += " " + c.cfg.Path
	case DriverRedis:
		details += " " + c.cfg.Redis.Addr
	}
	if c.cfg.EncryptionKey != "" {
		details += " (sealed)"
	}
	return component.Description{Name: "Session store", Type: "session", Details: details}
}

// Token implements Store.
func (c *Component) Token(ctx context.Context) (string, error) {
	if c.store == nil {
		return "", ErrNoToken
	}
	return c.store.Token(ctx)
}

// SetToken implements Store.
func (c *Component) SetToken(ctx context.Context, token string) error {
	if c.store == nil {
		return fmt.Errorf("session store not started")
	}
	return c.store.SetToken(ctx, token)
}

// Clear implements Store.
func (c *Component) Clear(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Clear(ctx)
}

func open(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case DriverBolt:
		store, err = OpenBolt(cfg.Path)
	case DriverRedis:
		store, err = DialRedis(ctx, cfg.Redis)
	default:
		store = NewMemoryStore("")
	}
	if err != nil || cfg.EncryptionKey == "" {
		return store, err
	}

	sealed, err := Seal(store, cfg.EncryptionKey, cfg.Cipher)
	if err != nil {
		if closer, ok := store.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, err
	}
	return sealed, nil
}
