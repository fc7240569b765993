// Package config loads runtime configuration for the trip sync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, with an optional .env file (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend gateway
//	-d string   local sqlite database path
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "gateway_endpoint": "https://script.example/exec",
//	  "database_dsn": "trip.db",
//	  "online_check_interval": "3s",
//	  "http_retry_max": 2
//	}
//
// Primary API
//
//   - type Config                     — holds the gateway endpoint, database path and intervals
//   - func LoadConfig() *Config       — builds Config by applying defaults, env, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
package config
