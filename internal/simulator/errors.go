// errors.go - Structured error handling for simulator responses
package simulator

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dp-desktop/client/internal/rpc"
	"github.com/dp-desktop/client/internal/storage"
)

// APIError is the JSON body sent with every non-2xx status.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
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
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewUnsupportedMediaTypeError creates a 415 error for a body the simulator cannot decode
func NewUnsupportedMediaTypeError(contentType string) *APIError {
	return &APIError{
		Status:  http.StatusUnsupportedMediaType,
		Code:    "UNSUPPORTED_MEDIA_TYPE",
		Message: fmt.Sprintf("expected %s, got %q", rpc.ContentTypeMsgpack, contentType),
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

// ErrorHandler renders errors as APIError JSON.
// Usage: e.HTTPErrorHandler = simulator.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
			Details: err.Error(),
		}
	}

	if apiErr.Status >= http.StatusInternalServerError {
		logger.Errorf("[HTTP] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if err := c.JSON(apiErr.Status, apiErr); err != nil {
		logger.Warnf("[HTTP] failed to write error response: %v", err)
	}
}

// exceptional maps a store error to the failure arm of a response envelope.
func exceptional(err error) *rpc.ExceptionalResult {
	kind := rpc.KindError
	switch {
	case errors.Is(err, storage.ErrInvalid):
		kind = rpc.KindReject
	case errors.Is(err, storage.ErrNotFound):
		kind = rpc.KindNotFound
	}
	return &rpc.ExceptionalResult{Kind: kind, Message: err.Error()}
}
