// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Durable key-value store (JSON file)
	StorePath string `env:"STORE_PATH" envDefault:"tripmap.json"`

	// Relational backend (SQLite). Empty disables it and the /api
	// routes it serves.
	SQLitePath string `env:"SQLITE_PATH" envDefault:""`

	// Cache (Redis). Empty disables the shared-view cache and the
	// magic-link rate limiter.
	RedisURL string `env:"REDIS_URL" envDefault:""`

	// Base URL for magic links and share links (e.g., https://tripmap.app)
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Source of the US-state GeoJSON boundary data
	GeoJSONURL string `env:"GEOJSON_URL" envDefault:"https://raw.githubusercontent.com/PublicaMundi/MappingAPI/master/data/geojson/us-states.json"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Magic-link issuance limit per client IP per minute. Zero
	// disables the limit. Takes effect only when Redis is configured.
	MagicLinkRateLimit int `env:"MAGIC_LINK_RATE_LIMIT" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CacheEnabled reports whether a Redis cache is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// SQLiteEnabled reports whether the relational backend is configured.
func (c *Config) SQLiteEnabled() bool {
	return c.SQLitePath != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
