// Package config loads the influencore configuration.
//
// Values come from, in increasing priority: a YAML file, a .env file and the
// process environment. Environment variables use the INFLUENCORE_ prefix and
// underscores for nesting, so INFLUENCORE_CLIENT_TIMEOUT sets client.timeout
// and INFLUENCORE_CLIENT_OFFLINE_MAX_SIZE sets client.offline.max_size.
//
//	var cfg config.Config
//	if err := config.Load(&cfg, config.WithConfigFile(path)); err != nil {
//		return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
package config
