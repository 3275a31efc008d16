// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/claims-dashboard/backend/internal/analytics"
	"github.com/claims-dashboard/backend/internal/claims"
	"github.com/claims-dashboard/backend/internal/session"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	// MissingColumns is set for SCHEMA_ERROR responses.
	MissingColumns []string `json:"missingColumns,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
		Details: reason,
	}
}

// NewSchemaError creates a 400 error naming the columns an upload lacks
func NewSchemaError(err *claims.SchemaError) *APIError {
	return &APIError{
		Status:         http.StatusBadRequest,
		Code:           "SCHEMA_ERROR",
		Message:        err.Error(),
		MissingColumns: err.Missing,
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// toAPIError maps domain and framework errors onto APIError.
func toAPIError(err error) *APIError {
	var (
		apiErr     *APIError
		schemaErr  *claims.SchemaError
		httpErr    *echo.HTTPError
		invalidErr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &schemaErr):
		return NewSchemaError(schemaErr)
	case errors.Is(err, claims.ErrMalformedCSV):
		return NewBadRequestError("the uploaded file could not be read as CSV", err)
	case errors.Is(err, analytics.ErrAmountPrecision):
		return NewBadRequestError("the uploaded amounts have more digits than the query engine supports", err)
	case errors.Is(err, session.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "session not found"}
	case errors.As(err, &invalidErr):
		fe := invalidErr[0]
		return NewValidationError(fe.Field(), fmt.Sprintf("failed on the '%s' rule", fe.Tag()))
	case errors.As(err, &httpErr):
		return &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	default:
		return &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
			Details: err.Error(),
		}
	}
}

// ErrorHandler renders every error as an APIError.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err)
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(apiErr.Status)
		return
	}
	c.JSON(apiErr.Status, apiErr)
}
