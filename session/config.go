package session

import (
	"time"

	"github.com/influencore/apiclient/validation"
)

// Drivers accepted in Config.Driver.
const (
	DriverMemory = "memory"
	DriverBolt   = "bolt"
	DriverRedis  = "redis"
)

// Config selects and configures a Store.
type Config struct {
	Driver string      `yaml:"driver" mapstructure:"driver" validate:"oneof=memory bolt redis"`
	Path   string      `yaml:"path" mapstructure:"path" validate:"required_if=Driver bolt"`
	Redis  RedisConfig `yaml:"redis" mapstructure:"redis"`
	// EncryptionKey, when set, seals the token before it reaches the store.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key"`
	Cipher        string `yaml:"cipher" mapstructure:"cipher" validate:"omitempty,oneof=aes-256-gcm chacha20-poly1305"`
}

// RedisConfig configures RedisStore.
type RedisConfig struct {
	Addr        string        `yaml:"addr" mapstructure:"addr"`
	Password    string        `yaml:"password" mapstructure:"password"`
	DB          int           `yaml:"db" mapstructure:"db" validate:"gte=0"`
	Key         string        `yaml:"key" mapstructure:"key"`
	TTL         time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Path == "" && c.Driver == DriverBolt {
		c.Path = ".influencore/session.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Key == "" {
		c.Redis.Key = "influencore:session:token"
	}
	if c.Redis.DialTimeout <= 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
