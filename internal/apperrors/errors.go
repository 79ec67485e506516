package apperrors

import (
	"errors"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller is authenticated but not allowed to act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthenticated indicates a missing, invalid or expired access credential.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrInternal indicates an underlying store or crypto failure.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP status and a client-safe message on top of a sentinel.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFound reports an absent user, session or token target.
func NewNotFound(message string) error {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

// NewBadRequest reports an invalid or expired purpose token, an expired refresh token
// or otherwise rejected input.
func NewBadRequest(message string) error {
	return NewAppError(http.StatusBadRequest, message, ErrValidation)
}

// NewConflict reports a uniqueness violation.
func NewConflict(message string) error {
	return NewAppError(http.StatusConflict, message, ErrDuplicate)
}

// NewForbidden reports an ownership or role mismatch.
func NewForbidden(message string) error {
	return NewAppError(http.StatusForbidden, message, ErrForbidden)
}

// NewUnauthenticated reports a missing or invalid access credential.
func NewUnauthenticated(message string) error {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthenticated)
}

// StatusCode maps an error to the HTTP status the transport layer should return.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode maps an error to a stable external code.
func ErrorCode(err error) string {
	switch StatusCode(err) {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	default:
		return "INTERNAL"
	}
}

// Message returns the client-safe message for err. Internal failures never leak details.
func Message(err error) string {
	if StatusCode(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
