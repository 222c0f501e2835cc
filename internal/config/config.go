// Package config loads process configuration from environment variables.
//
// We use envconfig instead of hand-rolled os.Getenv calls: the struct is the
// single source of truth for every setting, its defaults, and its types, and
// envconfig.Process does the parsing and error reporting in one shot.
package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting for the server.
type Config struct {
	// Port the HTTP server listens on.
	Port int `envconfig:"PORT" default:"8080"`

	// DBPath is the SQLite database file. The quotes table inside it is
	// rebuilt from the embedded dataset at startup; the users table persists.
	DBPath string `envconfig:"DB_PATH" default:"data/quotes.db"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: processing environment: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: PORT %d out of range", cfg.Port)
	}
	return cfg, nil
}

// SlogLevel translates the configured level name for slog.HandlerOptions.
// Unknown names fall back to info rather than failing startup.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
