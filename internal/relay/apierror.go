package relay

import (
	"errors"
	"net/http"
)

// APIError is an error rendered by the relay itself, as opposed to an error
// relayed from the enclave. The body keeps the enclave's {"error": ...} shape
// so clients handle both the same way.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// WithMessage returns a copy of the error with a custom message.
func (e *APIError) WithMessage(message string) *APIError {
	return &APIError{
		Code:       e.Code,
		Message:    message,
		StatusCode: e.StatusCode,
	}
}

// Standard error definitions
var (
	// ErrBadRequest is returned when the request body is malformed.
	ErrBadRequest = &APIError{
		Code:       "bad_request",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	// ErrEnclaveRejected is returned when the enclave answered with an error.
	ErrEnclaveRejected = &APIError{
		Code:       "enclave_error",
		Message:    "Enclave rejected the request",
		StatusCode: http.StatusBadRequest,
	}

	// ErrEnclaveUnavailable is returned when the enclave cannot be reached.
	ErrEnclaveUnavailable = &APIError{
		Code:       "enclave_unavailable",
		Message:    "Enclave unavailable",
		StatusCode: http.StatusBadGateway,
	}

	// ErrInternal is returned for unexpected relay errors.
	ErrInternal = &APIError{
		Code:       "internal_error",
		Message:    "An internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
)

// AsAPIError converts an error to an APIError if possible.
// Returns ErrInternal if the error is not an APIError.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return ErrInternal
}
