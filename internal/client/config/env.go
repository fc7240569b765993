package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the process environment. A .env
// file in the working directory is loaded first when present; variables
// already set in the environment win over the file.
//
// Recognized variables:
//
//	TRIPSYNC_ENDPOINT                gateway base URL
//	TRIPSYNC_DATABASE_DSN            local sqlite database path
//	TRIPSYNC_ONLINE_CHECK_INTERVAL   duration, e.g. "3s"
//	TRIPSYNC_HTTP_RETRY_MAX          integer retry count
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("TRIPSYNC_ENDPOINT"); v != "" {
		cfg.GatewayEndpoint = v
	}
	if v := os.Getenv("TRIPSYNC_DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("TRIPSYNC_ONLINE_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.OnlineCheckInterval = d
		}
	}
	if v := os.Getenv("TRIPSYNC_HTTP_RETRY_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTPRetryMax = n
		}
	}
}
