// Package errors maps failures to JSON HTTP responses.
package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/moviecatalog/internal/logger"
	catalogerrors "github.com/mantonx/moviecatalog/internal/modules/catalogmodule/errors"
)

// APIError represents a structured error with HTTP context
type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// ToGinResponse sends the error as a standardized JSON response
func (e *APIError) ToGinResponse(c *gin.Context) {
	statusCode := e.HTTPStatus
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}

	response := gin.H{
		"error": e.Message,
		"code":  e.Code,
	}
	if len(e.Context) > 0 {
		response["details"] = e.Context
	}

	args := []interface{}{
		"status", statusCode,
		"code", e.Code,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	}
	if e.Cause != nil {
		args = append(args, "error", e.Cause)
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP error response", args...)
	} else {
		logger.Debug("HTTP error response", args...)
	}

	c.AbortWithStatusJSON(statusCode, response)
}

// Common error constructors
func NewValidationError(message string, field string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Context:    map[string]interface{}{"field": field},
	}
}

func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
		Context:    map[string]interface{}{"resource": resource, "id": id},
	}
}

func NewInternalError(message string, cause error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewDatabaseError(operation string, cause error) *APIError {
	return &APIError{
		Code:       "DATABASE_ERROR",
		Message:    "Database operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Context:    map[string]interface{}{"operation": operation},
		Cause:      cause,
	}
}

func NewRateLimitError() *APIError {
	return &APIError{
		Code:       "RATE_LIMITED",
		Message:    "rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// FromError converts a catalog error into an APIError by its type.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var cErr *catalogerrors.CatalogError
	if !errors.As(err, &cErr) {
		return NewInternalError("Internal server error", err)
	}
	switch cErr.Type {
	case catalogerrors.ErrorTypeNotFound:
		return NewNotFoundError("movie", cErr.MovieID)
	case catalogerrors.ErrorTypeValidation:
		e := NewValidationError(cErr.Err.Error(), cErr.Field)
		e.Cause = err
		return e
	case catalogerrors.ErrorTypeStore:
		return NewDatabaseError(cErr.Op, err)
	}
	return NewInternalError("Internal server error", err)
}

// HTTP helpers to eliminate duplicate error handling

// HandleValidationError sends a validation error response
func HandleValidationError(c *gin.Context, message string, field string) {
	NewValidationError(message, field).ToGinResponse(c)
}

// HandleNotFound sends a not found error response
func HandleNotFound(c *gin.Context, resource string, id string) {
	NewNotFoundError(resource, id).ToGinResponse(c)
}

// HandleError sends the response matching err's type
func HandleError(c *gin.Context, err error) {
	FromError(err).ToGinResponse(c)
}
