package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"aquaalert.org/aquaalert/internal/dispatch"
)

// APIError is the JSON error body every endpoint returns on failure.
type APIError struct {
	Code       int                    `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	FieldError map[string]string      `json:"field_errors,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// NewAPIError creates an API error with an explicit status code.
func NewAPIError(code int, message string, details string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common error constructors
func BadRequestError(message, details string) *APIError {
	return NewAPIError(http.StatusBadRequest, message, details)
}

func NotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Context: map[string]interface{}{"id": id},
	}
}

func ValidationError(message string, fieldErrors map[string]string) *APIError {
	return &APIError{
		Code:       http.StatusBadRequest,
		Message:    message,
		FieldError: fieldErrors,
	}
}

func InternalError(message, details string) *APIError {
	return NewAPIError(http.StatusInternalServerError, message, details)
}

func ConflictError(message, details string) *APIError {
	return NewAPIError(http.StatusConflict, message, details)
}

// dispatchError maps a lifecycle controller error to an API error. The
// controller classifies its own failures, so the mapping is mechanical.
func dispatchError(err error) *APIError {
	var de *dispatch.Error
	if !errors.As(err, &de) {
		return InternalError("Internal server error", err.Error())
	}

	switch de.Kind {
	case dispatch.KindNotFound:
		return NewAPIError(http.StatusNotFound, "Resource not found", de.Message)
	case dispatch.KindValidation:
		return BadRequestError("Validation failed", de.Message)
	case dispatch.KindConflict, dispatch.KindReferentialConflict:
		return ConflictError("Conflict", de.Message)
	case dispatch.KindInvalidState:
		return NewAPIError(http.StatusUnprocessableEntity, "Invalid state transition", de.Message)
	default:
		return InternalError("Storage error", de.Message)
	}
}

// HTTPErrorHandler turns every error that escapes a handler into the
// APIError JSON shape. Controller errors are classified via dispatchError,
// echo's own errors keep their status code.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &he):
		apiErr = &APIError{
			Code:    he.Code,
			Message: http.StatusText(he.Code),
			Details: fmt.Sprintf("%v", he.Message),
		}
	default:
		apiErr = dispatchError(err)
	}

	// Internal details stay out of responses unless debug is on
	if apiErr.Code == http.StatusInternalServerError && !c.Echo().Debug {
		apiErr.Details = "An internal error occurred. Please try again later."
	}

	if err := c.JSON(apiErr.Code, apiErr); err != nil {
		c.Logger().Error(err)
	}
}
