package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/handler"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/metrics"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/middleware"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/tracing"
)

func SetupRouter(
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	postHandler *handler.PostHandler,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies(nil)
	r.Use(
		gin.Recovery(),
		otelgin.Middleware(tracing.ServiceName),
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		m.GinHandleMiddleware(),
	)

	// Public routes
	r.GET("/api/v1/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Auth routes (Public)
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected admin routes
	admin := r.Group("/api/v1/admin")
	admin.Use(authMiddleware.RequireAuth())
	{
		users := admin.Group("/users")
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.PATCH("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
		users.POST("/:id/restore", userHandler.Restore)

		posts := admin.Group("/posts")
		posts.GET("", postHandler.List)
		posts.POST("", postHandler.Create)
		posts.GET("/:id", postHandler.Get)
		posts.PUT("/:id", postHandler.Update)
		posts.DELETE("/:id", postHandler.Delete)
	}

	return r
}
