package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/metrics"
)

// AuthHandler handles HTTP requests for admin authentication
type AuthHandler struct {
	service service.AuthService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(service service.AuthService, m *metrics.Metrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: m,
		logger:  logger,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.ObserveLogin("success")
	c.JSON(http.StatusOK, AuthResponse{
		AccessToken: tokens.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   tokens.ExpiresIn,
		User:        newUserResponse(user),
	})
}

// handleServiceError maps service errors to HTTP responses
func (h *AuthHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		h.metrics.ObserveLogin("invalid")
		respondError(c, http.StatusUnauthorized, "Invalid email or password", nil)
	case errors.Is(err, service.ErrTooManyAttempts):
		h.metrics.ObserveLogin("throttled")
		respondError(c, http.StatusTooManyRequests, "Too many failed login attempts, try again later", nil)
	default:
		h.metrics.ObserveLogin("error")
		h.logger.Error("❌ [AuthHandler] Internal server error", "error", err)
		respondInternal(c)
	}
}
