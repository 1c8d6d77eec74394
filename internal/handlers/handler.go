package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"communityprojects/internal/engine"
	"communityprojects/internal/middleware"
	"communityprojects/pkg/chain"

	"github.com/gin-gonic/gin"
)

// Executor runs commands against the engine one at a time
type Executor interface {
	Submit(ctx context.Context, fn func(*engine.Engine) error) error
	Query(ctx context.Context, fn func(*engine.Engine)) error
}

// Handler serves the community projects API
type Handler struct {
	exec Executor
}

func NewHandler(exec Executor) *Handler {
	return &Handler{exec: exec}
}

// statusOf maps an engine error onto an HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, engine.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	switch engine.ClassOf(err) {
	case engine.ClassValidation:
		return http.StatusBadRequest
	case engine.ClassPermission:
		return http.StatusForbidden
	case engine.ClassState:
		return http.StatusConflict
	case engine.ClassResource:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		body["code"] = engErr.Name
	}
	c.JSON(statusOf(err), body)
}

// account reads the caller from the X-Account header
func account(c *gin.Context) (chain.AccountID, bool) {
	a := c.GetHeader(middleware.AccountHeader)
	if a == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Account header is required"})
		return "", false
	}
	return chain.AccountID(a), true
}

func projectID(c *gin.Context) (engine.ProjectID, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return 0, false
	}
	return engine.ProjectID(id), true
}
