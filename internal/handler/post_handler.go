package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/service"
)

// PostHandler serves the post admin screens
type PostHandler struct {
	postService service.PostService
	logger      *slog.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		postService: postService,
		logger:      logger,
	}
}

type PostRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

// List handles GET /admin/posts
func (h *PostHandler) List(c *gin.Context) {
	var query ListQuery
	if !bindQuery(c, &query) {
		return
	}
	params := query.params()
	params.IncludeDeleted = false

	posts, total, err := h.postService.ListPosts(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if posts == nil {
		posts = []models.Post{}
	}
	c.JSON(http.StatusOK, PageResponse[models.Post]{
		Items: posts,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	})
}

// Create handles POST /admin/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req PostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), req.Title)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// Get handles GET /admin/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	post, err := h.postService.GetPost(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// Update handles PUT /admin/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req PostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.postService.UpdatePost(c.Request.Context(), id, req.Title)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /admin/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PostHandler) parseID(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		h.logger.Warn("⚠️ [PostHandler] Invalid post ID", "post_id", idStr)
		respondBadRequest(c, "Invalid post ID", map[string]string{"id": "must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

func (h *PostHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrPostNotFound):
		respondNotFound(c, "Post not found")
	default:
		h.logger.Error("❌ [PostHandler] Internal server error", "error", err)
		respondInternal(c)
	}
}
