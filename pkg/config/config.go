// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// ServiceName identifies this service in logs and traces.
const ServiceName = "storefront"

// Config holds the settings the API server needs.
type Config struct {
	Addr         string
	DatabaseURL  string
	RedisAddr    string
	OtelEndpoint string
	CertFile     string
	KeyFile      string
}

// Load reads configuration from the environment. DATABASE_URL and
// REDIS_ADDR are required; everything else has a default.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:         envOr("ADDR", ":8443"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		OtelEndpoint: envOr("OTEL_ENDPOINT", "localhost:4317"),
		CertFile:     envOr("CERT_FILE", "certs/server.crt"),
		KeyFile:      envOr("KEY_FILE", "certs/server.key"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR environment variable is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
