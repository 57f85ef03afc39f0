package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/service"
)

// CtxUserID is the gin context key holding the authenticated admin's id
const CtxUserID = "userID"

// AuthMiddleware handles JWT validation
type AuthMiddleware struct {
	service service.AuthService
	logger  *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware instance
func NewAuthMiddleware(service service.AuthService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		logger:  logger,
	}
}

// RequireAuth validates the bearer token and stores the admin id in the context
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.logger.Warn("⚠️ [Middleware] Missing Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			m.logger.Warn("⚠️ [Middleware] Invalid Authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		userID, err := m.service.ValidateAccessToken(tokenString)
		if err != nil {
			m.logger.Warn("⚠️ [Middleware] Invalid token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(CtxUserID, userID)
		m.logger.Debug("✅ [Middleware] Token validated", "user_id", userID)

		c.Next()
	}
}

// UserID returns the authenticated admin id set by RequireAuth
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
