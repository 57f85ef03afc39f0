package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported values for DATABASE_DRIVER
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	AppEnv                string
	LogLevel              slog.Level
	ApiServicePort        string
	DatabaseDriver        string
	SQLitePath            string
	PostgreSQLHost        string
	PostgreSQLPort        int64
	PostgreSQLUser        string
	PostgreSQLPassword    string
	PostgreSQLDatabase    string
	JWTSecret             string
	AccessTokenExpiration int64
	BcryptCost            int64
	RedisHost             string
	RedisPort             int64
	RedisPassword         string
	RedisDatabase         int64
	LoginMaxAttempts      int64  // Failed logins allowed per window
	LoginAttemptWindow    int64  // Window length in seconds
	ShutdownTimeout       int64  // Seconds
	OTelEndpoint          string // OTLP gRPC collector; empty disables tracing
}

// LoadConfig reads an optional .env file and then the process environment.
// Values already present in the environment win over the file.
func LoadConfig() *Config {
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),                      // Default development
		LogLevel:              getLogLevel(),                                         // Default INFO
		ApiServicePort:        getEnv("API_SERVICE_PORT", "8080"),                    // Default 8080
		DatabaseDriver:        getDatabaseDriver(),                                   // Default sqlite
		SQLitePath:            getEnv("SQLITE_PATH", "useradmin.db"),                 // Default ./useradmin.db
		PostgreSQLHost:        getEnv("POSTGRESQL_HOST", "db"),                       // Default db
		PostgreSQLPort:        getEnvAsInt64("POSTGRESQL_PORT", 5432),                // Default 5432
		PostgreSQLUser:        getEnv("POSTGRESQL_USER", "useradmin_user"),           // Default user
		PostgreSQLPassword:    getEnv("POSTGRESQL_PASSWORD", "useradmin_password"),   // Default password
		PostgreSQLDatabase:    getEnv("POSTGRESQL_DATABASE", "useradmin_db"),         // Default database name
		JWTSecret:             getEnv("JWT_SECRET", "useradmin_secret"),              // Default secret key
		AccessTokenExpiration: getEnvAsInt64("ACCESS_TOKEN_EXPIRATION", 900),         // Default 15 minutes
		BcryptCost:            getEnvAsInt64("BCRYPT_COST", 12),                      // Default 12
		RedisHost:             getEnv("REDIS_HOST", "redis"),                         // Default redis
		RedisPort:             getEnvAsInt64("REDIS_PORT", 6379),                     // Default 6379
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),                          // Default empty
		RedisDatabase:         getEnvAsInt64("REDIS_DATABASE", 0),                    // Default 0
		LoginMaxAttempts:      getEnvAsInt64("LOGIN_MAX_ATTEMPTS", 5),                // Default 5
		LoginAttemptWindow:    getEnvAsInt64("LOGIN_ATTEMPT_WINDOW", 900),            // Default 15 minutes
		ShutdownTimeout:       getEnvAsInt64("SHUTDOWN_TIMEOUT", 10),                 // Default 10 seconds
		OTelEndpoint:          getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),             // Default disabled
	}
}

// IsProduction reports whether APP_ENV is "production" (case-insensitive)
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// PostgresDSN builds the key/value DSN understood by the pgx driver
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		c.PostgreSQLHost,
		c.PostgreSQLUser,
		c.PostgreSQLPassword,
		c.PostgreSQLDatabase,
		c.PostgreSQLPort,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpiration) * time.Second
}

func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.LoginAttemptWindow) * time.Second
}

func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getLogLevel() slog.Level {
	levelStr := getEnv("LOG_LEVEL", "INFO")

	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getDatabaseDriver() string {
	driver := strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite))

	switch driver {
	case DriverPostgres, "postgresql", "pg":
		return DriverPostgres
	default:
		return DriverSQLite
	}
}
