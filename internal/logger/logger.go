package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/config"
)

// New builds the process logger and installs it as the slog default
func New(cfg *config.Config) *slog.Logger {
	logger := NewWithWriter(cfg, os.Stdout)

	slog.SetDefault(logger)

	return logger
}

// NewWithWriter builds a logger writing to w without touching the slog default
func NewWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	if cfg.IsProduction() {
		// JSON format
		handler = slog.NewJSONHandler(w, opts)
	} else {
		// Human-readable format
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(NewTraceHandler(handler))
}

// NewGormLogger routes gorm's log through slog. SQL statements are traced
// at DEBUG, slow queries at WARN and failed queries at ERROR.
func NewGormLogger(cfg *config.Config, logger *slog.Logger) gormlogger.Interface {
	level := gormlogger.Warn
	switch {
	case cfg.LogLevel <= slog.LevelDebug:
		level = gormlogger.Info
	case cfg.LogLevel >= slog.LevelError:
		level = gormlogger.Error
	}

	return &gormLogger{
		logger:        logger.With("component", "gorm"),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
	}
}

type gormLogger struct {
	logger        *slog.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.InfoContext(ctx, "[Gorm] "+fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.WarnContext(ctx, "[Gorm] "+fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, "[Gorm] "+fmt.Sprintf(msg, args...))
	}
}

// Trace logs one executed statement. Record-not-found is not an error here.
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logger.ErrorContext(ctx, "[Gorm] Query failed",
			"error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.WarnContext(ctx, "[Gorm] Slow query",
			"threshold", l.slowThreshold, "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.DebugContext(ctx, "[Gorm] Query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
