package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const devJWTSecret = "dev-secret-change-in-production"

// Storage drivers understood by repository.Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
)

var ErrWeakSecret = errors.New("JWT_SECRET must be set in production environment")

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"./data/medash.db"`
	DatabaseDSN   string `env:"DATABASE_DSN" envDefault:"root:password@tcp(127.0.0.1:3306)/medash?parseTime=true"`
	RedisURL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	StoragePrefix string `env:"STORAGE_PREFIX" envDefault:"medash:"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-in-production"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	GridColumns  int    `env:"GRID_COLUMNS" envDefault:"12"`
	PublicOrigin string `env:"PUBLIC_ORIGIN" envDefault:"http://localhost:8080"`

	// ShellHistory is the readline history file of cmd/medash. Empty disables history.
	ShellHistory string `env:"SHELL_HISTORY" envDefault:".medash_history"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch cfg.StorageDriver {
	case DriverMemory, DriverSQLite, DriverMySQL, DriverRedis:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.GridColumns < 1 {
		return Config{}, fmt.Errorf("GRID_COLUMNS must be positive, got %d", cfg.GridColumns)
	}

	if cfg.IsProduction() && cfg.JWTSecret == devJWTSecret {
		return Config{}, ErrWeakSecret
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ShareURL builds the public link for a share token.
func (c Config) ShareURL(token string) string {
	return strings.TrimRight(c.PublicOrigin, "/") + "?share=" + token
}
