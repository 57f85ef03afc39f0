package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Success(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("API_SERVICE_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("POSTGRESQL_PORT", "6543")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")

	cfg := LoadConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, "9090", cfg.ApiServicePort)
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, int64(6543), cfg.PostgreSQLPort)
	assert.Equal(t, int64(4), cfg.BcryptCost)
	assert.Equal(t, int64(3), cfg.LoginMaxAttempts)
}

func unsetAll(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "API_SERVICE_PORT", "DATABASE_DRIVER", "SQLITE_PATH",
		"ACCESS_TOKEN_EXPIRATION", "LOGIN_ATTEMPT_WINDOW", "SHUTDOWN_TIMEOUT", "BCRYPT_COST",
	} {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	unsetAll(t)
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg := LoadConfig()

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.ApiServicePort)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 15*time.Minute, cfg.LoginWindow())
	assert.Equal(t, 10*time.Second, cfg.ShutdownGrace())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("BCRYPT_COST", "invalid")
	t.Setenv("DATABASE_DRIVER", "oracle")

	cfg := LoadConfig()

	// Falls back to defaults
	assert.Equal(t, int64(12), cfg.BcryptCost)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
}

func TestLoadConfig_LogLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
			t.Setenv("LOG_LEVEL", tt.raw)
			assert.Equal(t, tt.want, LoadConfig().LogLevel)
		})
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	os.Unsetenv("SQLITE_PATH")
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SQLITE_PATH=/tmp/from-file.db\nAPP_ENV=production\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	t.Setenv("APP_ENV", "staging")
	t.Cleanup(func() { os.Unsetenv("SQLITE_PATH") })

	cfg := LoadConfig()

	assert.Equal(t, "/tmp/from-file.db", cfg.SQLitePath)
	// Real environment wins over the file
	assert.Equal(t, "staging", cfg.AppEnv)
}

func TestConfig_PostgresDSN(t *testing.T) {
	cfg := &Config{
		PostgreSQLHost:     "localhost",
		PostgreSQLPort:     5432,
		PostgreSQLUser:     "u",
		PostgreSQLPassword: "p",
		PostgreSQLDatabase: "d",
	}

	assert.Equal(t, "host=localhost user=u password=p dbname=d port=5432 sslmode=disable TimeZone=UTC", cfg.PostgresDSN())
}
