// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the tracker service.
type Config struct {
	Port             string
	DatabaseURL      string
	RedisURL         string
	AnalyticsRefresh time.Duration
}

// Load reads a local .env file (if present) and the environment, and returns
// a validated Config.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	return &Config{
		Port:             getEnv("TRACKER_PORT", "8082"),
		DatabaseURL:      dbURL,
		RedisURL:         redisURL,
		AnalyticsRefresh: getEnvDuration("ANALYTICS_REFRESH_INTERVAL", time.Minute),
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
