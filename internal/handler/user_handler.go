package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/metrics"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/middleware"
)

// UserHandler serves the user admin screens
type UserHandler struct {
	userService service.UserService
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService, m *metrics.Metrics, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		metrics:     m,
		logger:      logger,
	}
}

// Request/Response DTOs
type CreateUserRequest struct {
	Email           string  `json:"email" binding:"required,email,max=100"`
	Username        *string `json:"username" binding:"omitempty,max=50"`
	Password        *string `json:"password"` // Byte length is checked by the user service
	IsActive        *bool   `json:"is_active"`
	IsDeleted       *bool   `json:"is_deleted"`
	EmailIsVerified *bool   `json:"email_is_verified"`
	MarketingOptIn  *bool   `json:"marketing_opt_in"`
}

// UpdateUserRequest is a partial edit. An empty email is ignored, an empty
// username clears it and an empty password keeps the stored hash.
type UpdateUserRequest struct {
	Email           string  `json:"email" binding:"omitempty,email,max=100"`
	Username        *string `json:"username" binding:"omitempty,max=50"`
	Password        *string `json:"password"` // Byte length is checked by the user service
	IsActive        *bool   `json:"is_active"`
	IsDeleted       *bool   `json:"is_deleted"`
	EmailIsVerified *bool   `json:"email_is_verified"`
	MarketingOptIn  *bool   `json:"marketing_opt_in"`
}

type ListQuery struct {
	Q              string `form:"q"`
	Sort           string `form:"sort"`
	Desc           bool   `form:"desc"`
	Page           int    `form:"page" binding:"omitempty,min=1"`
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=100"`
	IncludeDeleted bool   `form:"include_deleted"`
}

func (q ListQuery) params() repository.ListParams {
	return repository.ListParams{
		Query:          q.Q,
		Sort:           q.Sort,
		Desc:           q.Desc,
		Page:           q.Page,
		Limit:          q.Limit,
		IncludeDeleted: q.IncludeDeleted,
	}.Normalize()
}

// UserResponse never carries the password hash
type UserResponse struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	EmailIsVerified bool       `json:"email_is_verified"`
	Username        *string    `json:"username"`
	IsActive        bool       `json:"is_active"`
	IsDeleted       bool       `json:"is_deleted"`
	MarketingOptIn  bool       `json:"marketing_opt_in"`
	HasPassword     bool       `json:"has_password"`
	LastLogin       *time.Time `json:"last_login"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		EmailIsVerified: u.EmailIsVerified,
		Username:        u.Username,
		IsActive:        u.IsActive,
		IsDeleted:       u.IsDeleted,
		MarketingOptIn:  u.MarketingOptIn,
		HasPassword:     u.HasPassword(),
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
	}
}

// List handles GET /admin/users
func (h *UserHandler) List(c *gin.Context) {
	var query ListQuery
	if !bindQuery(c, &query) {
		return
	}
	params := query.params()

	users, total, err := h.userService.ListUsers(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	items := make([]UserResponse, 0, len(users))
	for i := range users {
		items = append(items, newUserResponse(&users[i]))
	}

	c.JSON(http.StatusOK, PageResponse[UserResponse]{
		Items: items,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	})
}

// Create handles POST /admin/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), service.CreateUserInput{
		Email:           &req.Email,
		Username:        req.Username,
		Password:        req.Password,
		IsActive:        req.IsActive,
		IsDeleted:       req.IsDeleted,
		EmailIsVerified: req.EmailIsVerified,
		MarketingOptIn:  req.MarketingOptIn,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.Info("👤 [UserHandler] User created", "user_id", user.ID, "request_id", c.GetString(middleware.CtxRequestID))
	c.JSON(http.StatusCreated, newUserResponse(user))
}

// Get handles GET /admin/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// Update handles PATCH /admin/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	input := service.EditUserInput{
		Username:        req.Username,
		Password:        req.Password,
		IsActive:        req.IsActive,
		IsDeleted:       req.IsDeleted,
		EmailIsVerified: req.EmailIsVerified,
		MarketingOptIn:  req.MarketingOptIn,
	}
	if req.Email != "" {
		input.Email = &req.Email
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), id, input)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// Delete handles DELETE /admin/users/:id (soft delete)
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.userService.SoftDeleteUser(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Restore handles POST /admin/users/:id/restore
func (h *UserHandler) Restore(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.userService.RestoreUser(ctx, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	user, err := h.userService.GetUser(ctx, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *UserHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid user ID", map[string]string{"id": "must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps service errors to HTTP responses
func (h *UserHandler) handleServiceError(c *gin.Context, err error) {
	if verr, ok := service.AsValidationError(err); ok {
		h.metrics.ObserveValidation("user", verr.Fields.Fields())
		respondValidation(c, verr)
		return
	}

	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		respondNotFound(c, "User not found")
	default:
		h.logger.Error("❌ [UserHandler] Internal server error", "error", err)
		respondInternal(c)
	}
}
