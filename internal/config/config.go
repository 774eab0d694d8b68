package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port              int
	PublicURL         string
	DatabaseURL       string
	LogLevel          string
	UpstreamURL       string
	UpstreamTimeout   time.Duration
	UpstreamStream    bool
	NatsURL           string
	NatsToken         string
	AnalyticsUsername string
	AnalyticsPassword string
}

func Load() Config {
	return Config{
		Port:              envInt("DOCSBOT_PORT", 8080),
		PublicURL:         envStr("DOCSBOT_URL", "http://localhost:8080"),
		DatabaseURL:       envStr("DATABASE_URL", ""),
		LogLevel:          envStr("LOG_LEVEL", "info"),
		UpstreamURL:       envStr("UPSTREAM_URL", ""),
		UpstreamTimeout:   envDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		UpstreamStream:    envBool("UPSTREAM_STREAM", false),
		NatsURL:           envStr("NATS_URL", ""),
		NatsToken:         envStr("NATS_TOKEN", ""),
		AnalyticsUsername: envStr("ANALYTICS_USERNAME", "admin"),
		AnalyticsPassword: envStr("ANALYTICS_PASSWORD", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
