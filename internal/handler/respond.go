package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/useradmin/backend-go/internal/middleware"
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// PageResponse wraps one page of a list screen
type PageResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func respondError(c *gin.Context, status int, message string, fields map[string]string) {
	c.JSON(status, ErrorResponse{
		Error:     message,
		Fields:    fields,
		RequestID: c.GetString(middleware.CtxRequestID),
	})
}

func respondBadRequest(c *gin.Context, message string, fields map[string]string) {
	respondError(c, http.StatusBadRequest, message, fields)
}

func respondValidation(c *gin.Context, verr *service.ValidationError) {
	respondError(c, http.StatusUnprocessableEntity, "Validation failed", verr.Fields)
}

func respondNotFound(c *gin.Context, message string) {
	respondError(c, http.StatusNotFound, message, nil)
}

func respondInternal(c *gin.Context) {
	respondError(c, http.StatusInternalServerError, "Internal server error", nil)
}
