package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	// ErrDuplicate marks a case whose reference already exists.
	ErrDuplicate = errors.New("duplicate reference")
	// ErrMissingRef marks an extraction with no reference number.
	ErrMissingRef = errors.New("reference not found in document")
	// ErrConflict marks a request that races another one on the same resource.
	ErrConflict = errors.New("conflict")
	// ErrBatchTooLarge marks an upload set over the batch ceiling.
	ErrBatchTooLarge = errors.New("too many files in batch")
	// ErrUnsupportedFile marks a file whose type cannot be imported.
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ErrorCode returns the AppError code carried by err, or a code derived
// from the sentinel it wraps.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDuplicate):
		return "DUPLICATE_REFERENCE"
	case errors.Is(err, ErrMissingRef):
		return "MISSING_REFERENCE"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrBatchTooLarge):
		return "BATCH_TOO_LARGE"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation), errors.Is(err, ErrUnsupportedFile):
		return "INVALID_INPUT"
	case errors.Is(err, ErrDatabase):
		return "DATABASE_ERROR"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps an error to the status code the HTTP layer should use.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation),
		errors.Is(err, ErrMissingRef), errors.Is(err, ErrUnsupportedFile),
		errors.Is(err, ErrBatchTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// InvalidInputf builds an AppError wrapping ErrInvalidInput.
func InvalidInputf(format string, args ...interface{}) error {
	return NewAppError("INVALID_INPUT", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// NotFoundf builds an AppError wrapping ErrNotFound.
func NotFoundf(format string, args ...interface{}) error {
	return NewAppError("NOT_FOUND", fmt.Sprintf(format, args...), ErrNotFound)
}

// Conflictf builds an AppError wrapping ErrConflict.
func Conflictf(format string, args ...interface{}) error {
	return NewAppError("CONFLICT", fmt.Sprintf(format, args...), ErrConflict)
}

// UserMessage returns the human-readable part of err: the AppError message
// when there is one, else the full error text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
