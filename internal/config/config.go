// Package config loads service configuration from environment variables.
// Everything has a development default except the vendor API keys.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// CacheConfig selects and sizes the response cache.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string

	// TTL applies to every cache entry.
	TTL time.Duration

	// Capacity bounds the memory backend (entries).
	Capacity int

	RedisURL      string
	RedisPassword string
}

// ProvidersConfig holds upstream vendor credentials and polling scope.
type ProvidersConfig struct {
	OddsAPIKey        string
	SportsRadarAPIKey string
	Regions           []string
	Markets           []string
}

// HistoryConfig controls the optional snapshot history writer.
type HistoryConfig struct {
	// DSN is the Postgres connection string; empty disables history.
	DSN string
}

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Providers ProvidersConfig
	History   HistoryConfig
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("ATLAS_ADDR", ":8090"),
			CORSOrigins: splitList(getEnv("ATLAS_CORS_ORIGINS", "http://localhost:5173")),
		},
		Cache: CacheConfig{
			Backend:       getEnv("ATLAS_CACHE_BACKEND", "memory"),
			TTL:           getDuration("ATLAS_CACHE_TTL", 5*time.Minute),
			Capacity:      getInt("ATLAS_CACHE_CAPACITY", 1024),
			RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
		},
		Providers: ProvidersConfig{
			OddsAPIKey:        os.Getenv("ODDS_API_KEY"),
			SportsRadarAPIKey: os.Getenv("SPORTSRADAR_API_KEY"),
			Regions:           splitList(getEnv("ATLAS_REGIONS", "us")),
			Markets:           splitList(getEnv("ATLAS_MARKETS", "h2h,spreads,totals")),
		},
		History: HistoryConfig{
			DSN: os.Getenv("ATLAS_HISTORY_DSN"),
		},
	}
}

// getEnv gets an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration environment variable, keeping the default
// on a parse failure.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return parsed
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return parsed
}

// splitList splits a comma-separated list, trimming whitespace and dropping
// empty elements.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
