package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort      string
	GinMode         string
	LogLevel        string
	LogFormat       string
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	// RedisURL enables the catalog read cache. Empty disables caching
	// entirely; the console then always reads through to the upstream API.
	RedisURL        string
	CatalogCacheTTL time.Duration
	// SessionTTL is how long an idle composition session survives before
	// the sweeper discards it.
	SessionTTL    time.Duration
	SweepInterval time.Duration
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "pretty"),
		UpstreamBaseURL: getEnv("UPSTREAM_BASE_URL", "http://localhost:8000/api/v0"),
		UpstreamTimeout: time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,
		RedisURL:        getEnv("REDIS_URL", ""),
		CatalogCacheTTL: time.Duration(getEnvInt("CATALOG_CACHE_TTL_SECONDS", 60)) * time.Second,
		SessionTTL:      time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		SweepInterval:   time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		AllowedOrigins:  parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
