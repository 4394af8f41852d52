// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config holds server settings
type Config struct {
	HostPassword string        `env:"HOST_PASSWORD,required,notEmpty"`
	Addr         string        `env:"ADDR"          envDefault:":8080"`
	StorageType  string        `env:"STORAGE_TYPE"  envDefault:"sqlite"`
	SQLitePath   string        `env:"SQLITE_PATH"   envDefault:"dnd.db"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	RedisURL     string        `env:"REDIS_URL"     envDefault:"redis://localhost:6379"`
	OpTimeout    time.Duration `env:"OP_TIMEOUT"    envDefault:"5s"`
	DiceSides    int           `env:"DICE_SIDES"    envDefault:"20"`
	LogLevel     string        `env:"LOG_LEVEL"     envDefault:"info"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set take precedence over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the environment only
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that settings are coherent
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory, StorageSQLite, StorageRedis:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE_TYPE is postgres")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, sqlite, postgres or redis", c.StorageType)
	}
	if c.OpTimeout <= 0 {
		return errors.New("OP_TIMEOUT must be positive")
	}
	if c.DiceSides < 1 {
		return errors.New("DICE_SIDES must be at least 1")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level
func (c Config) SlogLevel() slog.Level {
	level, _ := ParseLogLevel(c.LogLevel)
	return level
}

// ParseLogLevel converts a level name to a slog.Level
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
