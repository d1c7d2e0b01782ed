package logger

import (
	"fmt"

	"github.com/influencore/apiclient/validation"
)

// Output targets accepted in Config.Output.
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Config configures a Logger. Records always carry a timestamp.
type Config struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
	// Output is stderr by default so it never mixes with command output on
	// stdout.
	Output string `yaml:"output" mapstructure:"output" validate:"oneof=stdout stderr file"`
	// File is appended to when Output is "file".
	File    string `yaml:"file" mapstructure:"file" validate:"required_if=Output file"`
	NoColor bool   `yaml:"no_color" mapstructure:"no_color"`
	Caller  bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatJSON
	}
	if c.Output == "" {
		c.Output = OutputStderr
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
