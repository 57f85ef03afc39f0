// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/config"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database"
)

// NewTestDB opens a private in-memory SQLite database with the real
// migrations applied. It is closed when the test finishes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.OpenSQLite(dsn, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(context.Background(), db, config.DriverSQLite))

	t.Cleanup(func() {
		_ = database.Close(db)
	})

	return db
}

// NewTestLogger returns a logger that drops everything below ERROR
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// StrPtr returns a pointer to s
func StrPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}
