package config

import "time"

// Config holds runtime settings for the trip sync CLI.
//
// Fields:
//   - GatewayEndpoint: base URL of the backend web-app gateway.
//   - DatabaseDSN: path of the local sqlite database file.
//   - OnlineCheckInterval: how often the client probes gateway reachability.
//   - HTTPRetryMax: retry attempts per gateway request before giving up.
//
// Units: OnlineCheckInterval is a time.Duration (e.g., 3*time.Second).
type Config struct {
	GatewayEndpoint     string
	DatabaseDSN         string
	OnlineCheckInterval time.Duration
	HTTPRetryMax        int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.GatewayEndpoint = "http://127.0.0.1:8080"
	c.DatabaseDSN = "trip.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.HTTPRetryMax = 2
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
