package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound is returned when no row matches the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when the generated id is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidRequest is returned when the request body is not valid JSON.
	ErrInvalidRequest = errors.New("invalid request body")
	// ErrValidation is returned when name is missing or is not a scalar.
	ErrValidation = errors.New("field name is required and must be a string")
)

// ErrorResponse represents a standardized error response.
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error" example:"user not found"`
	Code  string `json:"code" example:"USER_NOT_FOUND"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors become
// a generic 500 so storage details never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusConflict, ErrUserAlreadyExists.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrInvalidRequest):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidRequest.Error(), "INVALID_REQUEST")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusUnprocessableEntity, ErrValidation.Error(), "VALIDATION_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
