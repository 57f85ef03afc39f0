package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/config"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

const (
	maxRetries = 30
	retryDelay = 2 * time.Second
)

// Connect opens the configured database, verifies it and applies migrations.
// The caller owns the returned handle and must release it with Close.
func Connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.NewGormLogger(cfg, log),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)

	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		log.Info("🔌 [Database] Connecting to PostgreSQL...",
			"host", cfg.PostgreSQLHost,
			"port", cfg.PostgreSQLPort,
			"database", cfg.PostgreSQLDatabase,
		)
		db, err = connectPostgres(ctx, cfg.PostgresDSN(), gormCfg, log)
	default:
		log.Info("🔌 [Database] Opening SQLite database...", "path", cfg.SQLitePath)
		db, err = OpenSQLite(cfg.SQLitePath, gormCfg)
	}
	if err != nil {
		return nil, err
	}

	log.Info("✅ [Database] Database connection established", "driver", cfg.DatabaseDriver)

	log.Info("🔄 [Database] Running migrations...")
	if err := Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("✅ [Database] Migrations completed successfully")

	return db, nil
}

func connectPostgres(ctx context.Context, dsn string, gormCfg *gorm.Config, log *slog.Logger) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	// Retry while the database container is still starting
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
		if err == nil {
			err = Ping(ctx, db)
			if err == nil {
				return db, nil
			}
		}

		if i < maxRetries-1 {
			log.Warn("⏳ [Database] Connection failed, retrying...",
				"attempt", i+1,
				"max_retries", maxRetries,
				"retry_in", retryDelay,
				"error", err,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	return nil, fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", maxRetries, err)
}

// OpenSQLite opens a SQLite database. In-memory DSNs are pinned to a single
// connection because every new connection would see an empty database.
func OpenSQLite(dsn string, gormCfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate applies the embedded goose migrations for the given driver
func Migrate(ctx context.Context, gormDB *gorm.DB, driver string) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	dialect, dir := "sqlite3", "migrations/sqlite"
	if driver == config.DriverPostgres {
		dialect, dir = "postgres", "migrations/postgres"
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	return nil
}

// Ping checks that the database answers within the context deadline
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool behind db
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
