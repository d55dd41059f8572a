package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/pkg/logger"
)

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Partial int    `json:"partial,omitempty"`
}

// ErrorHandler catches panics and maps attached errors to HTTP statuses
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered", nil, map[string]interface{}{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
					"panic":  r,
				})

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Error: "Internal server error",
					Code:  "INTERNAL_ERROR",
				})
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			RespondError(c, c.Errors.Last().Err)
		}
	}
}

// RespondError writes the HTTP mapping of a typed domain error.
func RespondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var authErr *models.AuthorizationError
	var notFoundErr *models.NotFoundError
	var depErr *models.DependencyError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: validationErr.Error(),
			Code:  "VALIDATION_ERROR",
		})
	case errors.As(err, &authErr):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error: authErr.Error(),
			Code:  "FORBIDDEN",
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: notFoundErr.Error(),
			Code:  "NOT_FOUND",
		})
	case errors.As(err, &depErr):
		logger.Error("Dependency failure", depErr, map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   depErr.Error(),
			Code:    "DEPENDENCY_ERROR",
			Partial: depErr.Partial,
		})
	default:
		logger.Error("Request error", err, map[string]interface{}{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
	c.Abort()
}
