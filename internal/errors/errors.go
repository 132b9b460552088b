// Package errors defines the structured error taxonomy for the jobscout
// pipeline and the classification rules the retry policy depends on.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeFetch indicates a network fetch failure. Transient.
	ErrCodeFetch ErrorCode = "fetch"
	// ErrCodeAIProvider indicates an AI provider quota or timeout failure. Transient.
	ErrCodeAIProvider ErrorCode = "ai_provider"
	// ErrCodeAIMalformed indicates the AI provider rejected or mangled the input. Permanent.
	ErrCodeAIMalformed ErrorCode = "ai_malformed"
	// ErrCodeLoopPrevention indicates a spawn-safety invariant was violated,
	// e.g. an item whose ancestry disagrees with its spawn depth. Permanent.
	ErrCodeLoopPrevention ErrorCode = "loop_prevention"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured application error with a code, message,
// and optional cause. It supports errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Fetch wraps a network fetch failure.
func Fetch(err error, message string) *AppError {
	return &AppError{Code: ErrCodeFetch, Message: message, Cause: err}
}

// Fetchf wraps a network fetch failure with a formatted message.
func Fetchf(err error, format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeFetch, Message: fmt.Sprintf(format, args...), Cause: err}
}

// AIProvider wraps a transient AI provider failure (quota, timeout).
func AIProvider(err error, message string) *AppError {
	return &AppError{Code: ErrCodeAIProvider, Message: message, Cause: err}
}

// AIMalformed wraps a permanent AI provider failure (malformed input or response).
func AIMalformed(err error, message string) *AppError {
	return &AppError{Code: ErrCodeAIMalformed, Message: message, Cause: err}
}

// LoopPrevention flags an internal-consistency violation in spawn safety.
func LoopPrevention(message string) *AppError {
	return &AppError{Code: ErrCodeLoopPrevention, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsFetch checks if an error is a Fetch error.
func IsFetch(err error) bool {
	return isCode(err, ErrCodeFetch)
}

// IsLoopPrevention checks if an error is a LoopPrevention error.
func IsLoopPrevention(err error) bool {
	return isCode(err, ErrCodeLoopPrevention)
}

// IsTransient reports whether a failed operation is worth retrying.
// Fetch and AI provider errors are transient; malformed-input AI errors,
// validation errors, and loop-prevention violations are permanent. Unknown
// errors default to transient so a one-off infrastructure hiccup does not
// burn an item.
func IsTransient(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return true
	}
	switch appErr.Code {
	case ErrCodeFetch, ErrCodeAIProvider, ErrCodeInternal:
		return true
	default:
		return false
	}
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Classify returns a stable signature string for an error, used by the
// smart-retry check to recognize a sibling failure of the same kind.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := GetCode(err); code != "" {
		return string(code)
	}
	return string(ErrCodeInternal)
}
