// Package config loads runtime settings for the notesync client library
// and its CLI. Sources are applied in order: defaults, then a JSON file,
// then command-line flags, with later sources taking precedence.
package config

import "time"

// Config holds runtime settings.
//
// Fields:
//   - ServerEndpointURL: base URL of the remote record service.
//   - AuthToken: opaque bearer token sent with every remote request.
//   - DatabaseDir: directory holding the per-namespace SQLite files.
//   - RequestTimeout: per-request timeout for remote calls.
type Config struct {
	ServerEndpointURL string
	AuthToken         string
	DatabaseDir       string
	RequestTimeout    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://127.0.0.1:8080"
	c.DatabaseDir = "."
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if a config file is given) and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
