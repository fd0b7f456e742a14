package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "shifts.db", cfg.Database.SQLitePath)
	assert.Equal(t, "America/Chicago", cfg.Schedule.DefaultTimezone)
	assert.Equal(t, time.Hour, cfg.Schedule.AuditInterval)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"APP_PORT":         "9090",
		"APP_ENV":          "production",
		"LOG_LEVEL":        "DEBUG",
		"DB_DRIVER":        "postgres",
		"DATABASE_URL":     "postgres://localhost/shifts",
		"DEFAULT_TIMEZONE": "Europe/Berlin",
		"AUDIT_INTERVAL":   "0",
		"CORS_ORIGINS":     " https://a.example , ,https://b.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, time.Duration(0), cfg.Schedule.AuditInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestFromEnv_ReportsAllErrors(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"APP_PORT":         "abc",
		"LOG_LEVEL":        "loud",
		"DB_DRIVER":        "postgres",
		"DEFAULT_TIMEZONE": "Mars/Olympus",
		"AUDIT_INTERVAL":   "-5m",
	}))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "APP_PORT")
	assert.Contains(t, msg, "LOG_LEVEL")
	assert.Contains(t, msg, "DATABASE_URL")
	assert.Contains(t, msg, "DEFAULT_TIMEZONE")
	assert.Contains(t, msg, "AUDIT_INTERVAL")
}

func TestFromEnv_UnknownDriver(t *testing.T) {
	_, err := FromEnv(env(map[string]string{"DB_DRIVER": "mysql"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}
