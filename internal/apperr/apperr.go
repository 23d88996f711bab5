// Package apperr defines the application error taxonomy and reporting.
package apperr

import (
	"errors"
	"fmt"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an error code, an operator-facing message and a
// user-facing notice. Every ledger rejection is recoverable at the point of
// the triggering action; nothing in this taxonomy is fatal.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("Invalid input. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewStorageError wraps a failure of the record store or session store.
// Marked retryable so persistence paths can be re-attempted with backoff.
func NewStorageError(cause error) *AppError {
	var underlying string
	if cause != nil {
		underlying = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("storage error: %s", underlying),
		UserMessage: "Temporary problem, please try again",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewStoreCorruptError reports an undecodable persisted blob. The store
// itself fails-soft to an empty collection; this error exists for reporting.
func NewStoreCorruptError(cause error) *AppError {
	return &AppError{
		Code:        "E201",
		Message:     "persisted account data is corrupt",
		UserMessage: "Your saved data could not be read",
		Severity:    SeverityCritical,
		Retryable:   false,
		cause:       cause,
	}
}

// NewRejectionError wraps a business-rule rejection (insufficient funds,
// already claimed, spin limit and so on) keeping the original sentinel
// reachable through errors.Is.
func NewRejectionError(cause error, userMessage string) *AppError {
	var msg string
	if cause != nil {
		msg = cause.Error()
	}

	return &AppError{
		Code:        "E300",
		Message:     msg,
		UserMessage: userMessage,
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

func NewAuthError(cause error, userMessage string) *AppError {
	var msg string
	if cause != nil {
		msg = cause.Error()
	}

	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: userMessage,
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       cause,
	}
}

func NewRateLimitError(cause error, retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many attempts. Try again in %d seconds", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

// IsRetryable reports whether err is an AppError flagged for retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Retryable
	}

	return false
}
