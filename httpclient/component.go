package httpclient

import (
	"context"
	"fmt"

	"github.com/influencore/apiclient/component"
)

// Component registers the API client with a component.Registry. The
// client exists between Start and Stop.
type Component struct {
	client *Client
	config Config
	opts   []Option
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

func NewComponent(cfg Config, opts ...Option) *Component {
	return &Component{config: cfg, opts: opts}
}

func (c *Component) Name() string { return "httpclient" }

func (c *Component) Start(_ context.Context) error {
	client, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

// Stop closes the client, rejecting queued requests.
func (c *Component) Stop(ctx context.Context) error {
	if c.client != nil {
		return c.client.Close(ctx)
	}
	return nil
}

// Health is unhealthy before Start and degraded while offline.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.client == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case !c.client.Online():
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("offline, %d queued", c.client.QueueLen())
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{Name: "API client", Type: "httpclient", Details: c.config.BaseURL}
}

// Client is nil before Start.
func (c *Component) Client() *Client {
	return c.client
}
