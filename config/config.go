// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/shift-engine/roster"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Schedule ScheduleConfig
	CORS     CORSConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Driver     string // "sqlite" or "postgres"
	SQLitePath string
	URL        string // postgres DSN
}

type ScheduleConfig struct {
	DefaultTimezone string
	AuditInterval   time.Duration // 0 disables the background audit
}

type CORSConfig struct {
	AllowedOrigins []string
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load reads .env when present, then the environment. Every invalid value
// is reported in one error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	var errs []error
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	config := &Config{}

	appPort, err := strconv.Atoi(get("APP_PORT", "8080"))
	if err != nil || appPort <= 0 || appPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid APP_PORT %q", get("APP_PORT", "")))
	}
	config.App = AppConfig{
		Port:     appPort,
		Env:      get("APP_ENV", "development"),
		LogLevel: strings.ToLower(get("LOG_LEVEL", "info")),
	}
	switch config.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q", config.App.LogLevel))
	}

	config.Database = DatabaseConfig{
		Driver:     strings.ToLower(get("DB_DRIVER", DriverSQLite)),
		SQLitePath: get("SQLITE_PATH", "shifts.db"),
		URL:        get("DATABASE_URL", ""),
	}
	switch config.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if config.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid DB_DRIVER %q", config.Database.Driver))
	}

	config.Schedule.DefaultTimezone = get("DEFAULT_TIMEZONE", "America/Chicago")
	if _, err := roster.LoadZone(config.Schedule.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid DEFAULT_TIMEZONE: %w", err))
	}
	interval, err := time.ParseDuration(get("AUDIT_INTERVAL", "1h"))
	if err != nil || interval < 0 {
		errs = append(errs, fmt.Errorf("invalid AUDIT_INTERVAL %q", get("AUDIT_INTERVAL", "")))
	}
	config.Schedule.AuditInterval = interval

	config.CORS.AllowedOrigins = splitList(get("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"))

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}
	return config, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.App.Port)
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
