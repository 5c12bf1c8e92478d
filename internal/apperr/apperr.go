// Package apperr defines the error shape surfaced by tool handlers and the
// HTTP layer: a machine-readable code, a category, a retryable flag and an
// HTTP-like status.
package apperr

import (
	"errors"
	"fmt"
)

// Category classifies the failure domain.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryDatabase   Category = "database"
	CategoryNetwork    Category = "network"
	CategoryMetering   Category = "metering"
)

// AppError is the single error shape crossing the tool boundary.
type AppError struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Category  Category `json:"category"`
	Retryable bool     `json:"retryable"`
	Status    int      `json:"status"`
	cause     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.cause }

// NotFound builds a *_NOT_FOUND error. Missing entities are reported as
// retryable: the row may exist on a later call.
func NotFound(code, format string, args ...any) *AppError {
	return &AppError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Category:  CategoryDatabase,
		Retryable: true,
		Status:    404,
	}
}

// Invalid builds a validation error (400, not retryable).
func Invalid(code, format string, args ...any) *AppError {
	return &AppError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Category:  CategoryValidation,
		Retryable: false,
		Status:    400,
	}
}

// Internal wraps an unexpected failure as a *_FAILED error (500, not retryable).
func Internal(code string, cause error) *AppError {
	msg := "internal error"
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{
		Code:      code,
		Message:   msg,
		Category:  CategoryDatabase,
		Retryable: false,
		Status:    500,
		cause:     cause,
	}
}

// Metering builds a metering error (rate limits, credit exhaustion).
func Metering(code, message string, status int, retryable bool) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Category:  CategoryMetering,
		Retryable: retryable,
		Status:    status,
	}
}

// As extracts an *AppError from an error chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
