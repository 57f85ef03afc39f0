package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/config"
)

// NewRedisClient connects to Redis and verifies the connection with PING.
// The returned client is shared by every Redis-backed component.
func NewRedisClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	logger.Info("🔌 [Redis] Connecting to Redis...",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
		"db", cfg.RedisDatabase,
	)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDatabase),
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [Redis] Redis connection established")

	return client, nil
}
