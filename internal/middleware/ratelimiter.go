package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/config"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/service"
)

// RedisLoginLimiter counts failed logins per account in a fixed window
type RedisLoginLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
	logger      *slog.Logger
}

// NewLoginLimiter creates a Redis-backed limiter on an already connected client
func NewLoginLimiter(client *redis.Client, cfg *config.Config, logger *slog.Logger) *RedisLoginLimiter {
	logger.Info("✅ [RateLimiter] Failed-login limiter enabled",
		"max_attempts", cfg.LoginMaxAttempts,
		"window", cfg.LoginWindow(),
	)

	return &RedisLoginLimiter{
		client:      client,
		maxAttempts: cfg.LoginMaxAttempts,
		window:      cfg.LoginWindow(),
		logger:      logger,
	}
}

// failureKey generates the Redis key for an account's failure counter
// Format: rate:login:{email}
func failureKey(key string) string {
	return "rate:login:" + key
}

func (r *RedisLoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	// If limit is 0 or negative, unlimited
	if r.maxAttempts <= 0 {
		return true, nil
	}

	count, err := r.client.Get(ctx, failureKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to read failure count", "error", err)
		return true, err
	}

	return count < r.maxAttempts, nil
}

func (r *RedisLoginLimiter) RecordFailure(ctx context.Context, key string) error {
	redisKey := failureKey(key)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to record login failure", "error", err)
		return err
	}

	// The window starts at the first failure and is not extended by later ones
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, r.window).Err(); err != nil {
			r.logger.Error("❌ [RateLimiter] Failed to set failure window", "error", err)
			return err
		}
	}
	return nil
}

func (r *RedisLoginLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, failureKey(key)).Err()
}

var _ service.LoginLimiter = (*RedisLoginLimiter)(nil)

// NoOpLoginLimiter never blocks a login
// Used when Redis is not available
type NoOpLoginLimiter struct{}

// NewNoOpLoginLimiter creates a no-op limiter
func NewNoOpLoginLimiter(logger *slog.Logger) *NoOpLoginLimiter {
	logger.Warn("⚠️ [RateLimiter] Using no-op login limiter - brute-force protection is disabled")
	return &NoOpLoginLimiter{}
}

func (NoOpLoginLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

func (NoOpLoginLimiter) RecordFailure(context.Context, string) error { return nil }

func (NoOpLoginLimiter) Reset(context.Context, string) error { return nil }

var _ service.LoginLimiter = NoOpLoginLimiter{}
