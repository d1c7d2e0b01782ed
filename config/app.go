package config

import (
	"fmt"

	"github.com/influencore/apiclient/httpclient"
	"github.com/influencore/apiclient/netstate"
	"github.com/influencore/apiclient/observability"
	"github.com/influencore/apiclient/session"
)

// DefaultBaseURL is the backend used when none is configured.
const DefaultBaseURL = "http://localhost:8089"

// Config is the complete configuration of the influencore CLI.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Client        httpclient.Config     `yaml:"client" mapstructure:"client"`
	Session       session.Config        `yaml:"session" mapstructure:"session"`
	Prober        netstate.ProberConfig `yaml:"prober" mapstructure:"prober"`
	Observability observability.Config  `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section. The prober targets the client's
// backend unless told otherwise, and telemetry is tagged with the service
// identity.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()

	if c.Client.BaseURL == "" {
		c.Client.BaseURL = DefaultBaseURL
	}
	c.Client.ApplyDefaults()
	c.Session.ApplyDefaults()

	if c.Prober.BaseURL == "" {
		c.Prober.BaseURL = c.Client.BaseURL
	}
	c.Prober.ApplyDefaults()

	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
}

// Validate checks every section and names the one that failed.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	sections := []struct {
		name string
		fn   func() error
	}{
		{"client", c.Client.Validate},
		{"session", c.Session.Validate},
		{"prober", c.Prober.Validate},
		{"observability", c.Observability.Validate},
	}
	for _, s := range sections {
		if err := s.fn(); err != nil {
			return fmt.Errorf("config.%s: %w", s.name, err)
		}
	}
	return nil
}
