package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/api"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/config"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/handler"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/logger"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/metrics"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/middleware"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/password"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/tracing"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/worker"
)

func main() {
	// 1. Config
	cfg := config.LoadConfig()

	// 2. Logger
	appLogger := logger.New(cfg)

	appLogger.Info("🚀 [Go] Starting user admin API...",
		"environment", cfg.AppEnv,
		"database_driver", cfg.DatabaseDriver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, tracing.ServiceName, cfg.OTelEndpoint, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to initialize tracing, continuing without it", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	// 4. Connect to Database
	db, err := database.Connect(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			appLogger.Error("❌ Failed to close database", "error", err)
		}
	}()

	// 5. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	// 6. Initialize Redis Client and login limiter
	var limiter service.LoginLimiter
	redisClient, err := database.NewRedisClient(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis, using no-op login limiter", "error", err)
		limiter = middleware.NewNoOpLoginLimiter(appLogger)
	} else {
		limiter = middleware.NewLoginLimiter(redisClient, cfg, appLogger)
		defer redisClient.Close()
	}

	// 7. Background tasks
	pool := worker.NewPool(appLogger)

	// 8. Initialize Services
	hasher := password.NewBcryptHasher(int(cfg.BcryptCost))
	userService := service.NewUserService(userRepo, hasher, appLogger)
	postService := service.NewPostService(postRepo, appLogger)
	authService := service.NewAuthService(userRepo, hasher, limiter, pool, cfg, appLogger)

	// 9. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// 10. Initialize Handlers & Middleware
	r := api.SetupRouter(
		handler.NewHealthHandler(db),
		handler.NewAuthHandler(authService, appMetrics, appLogger),
		handler.NewUserHandler(userService, appMetrics, appLogger),
		handler.NewPostHandler(postService, appLogger),
		middleware.NewAuthMiddleware(authService, appLogger),
		appMetrics,
		registry,
		appLogger,
	)

	// 11. Start HTTP Server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ApiServicePort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("🌍 [Go] HTTP Server running on port...", "port", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		appLogger.Info("🛑 [Go] Shutdown signal received")
	case err := <-serverErr:
		appLogger.Error("❌ HTTP Server failed", "error", err)
	}

	// 12. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("❌ Graceful shutdown failed", "error", err)
	}
	if !pool.Shutdown(cfg.ShutdownGrace()) {
		appLogger.Warn("⚠️ Background tasks did not finish before shutdown timeout")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Error("❌ Failed to flush traces", "error", err)
	}

	appLogger.Info("👋 [Go] Shutdown complete")
}
