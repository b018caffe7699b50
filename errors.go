package mosaic

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyPrompt is returned when a generation is requested without a prompt.
var ErrEmptyPrompt = errors.New("prompt is required")

// ErrorCategory classifies provider errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient indicates the error is temporary and the operation can be retried.
	// Examples: rate limits, temporary network issues, server overload.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent indicates the error is not recoverable through retry.
	// Examples: invalid API key, insufficient permissions, model not found.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput indicates the request itself must be corrected.
	// Examples: malformed request, content policy violation.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is an error that provides information about how it should be handled.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool
	StatusCode() int
	RetryAfter() time.Duration
}

// Error is a categorized provider error with metadata for retry decisions.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int           // HTTP status code, 0 if not applicable
	RetryDelay time.Duration // from Retry-After header, 0 if not available
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Category returns the error category.
func (e *Error) Category() ErrorCategory { return e.Cat }

// Retryable returns true if the error is transient.
func (e *Error) Retryable() bool { return e.Cat == ErrorTransient }

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int { return e.Code }

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

// NewTransientError creates a transient error that can be retried.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewTransientErrorWithRetry creates a transient error with a suggested retry delay.
func NewTransientErrorWithRetry(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, RetryDelay: retryAfter, Cause: cause}
}

// NewPermanentError creates a permanent error that should not be retried.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorPermanent, Code: statusCode, Cause: cause}
}

// NewUserInputError creates an error indicating the request was rejected as invalid.
func NewUserInputError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorUserInput, Code: statusCode, Cause: cause}
}

// IsTransient returns true if the error or any wrapped error is categorized as transient.
func IsTransient(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorTransient
	}
	return false
}

// IsPermanent returns true if the error or any wrapped error is categorized as permanent.
func IsPermanent(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorPermanent
	}
	return false
}

// StatusCodeOf returns the HTTP status code from a categorized error, or 0.
func StatusCodeOf(err error) int {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.StatusCode()
	}
	return 0
}

// FailureKind names the user-facing class of a failed generation.
type FailureKind string

const (
	FailureMissingCredentials FailureKind = "MissingCredentials"
	FailureInvalidInput       FailureKind = "InvalidInput"
	FailureProviderError      FailureKind = "ProviderError"
	FailureNoContent          FailureKind = "NoContentGenerated"
	FailureTimeout            FailureKind = "GenerationTimeout"
	FailureUnsupportedSource  FailureKind = "UnsupportedSource"
	// FailureCancelled is reported when a job is cancelled cooperatively.
	FailureCancelled FailureKind = "Cancelled"
)

// Failure is the normalized outcome of a generation that did not succeed.
// Message is meant to be shown to the user verbatim.
type Failure struct {
	Kind    FailureKind
	Message string
	Details string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Kind)
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Cause }

// NewFailure creates a failure of the given kind.
func NewFailure(kind FailureKind, msg string, cause error) *Failure {
	f := &Failure{Kind: kind, Message: msg, Cause: cause}
	if cause != nil && cause.Error() != msg {
		f.Details = cause.Error()
	}
	return f
}

// KindOf returns the failure kind carried by err, looking through wrapped errors.
// Errors that are not failures classify as ProviderError; nil returns "".
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureProviderError
}

// NeedsCredentials reports whether err should prompt the user for an API key
// rather than be shown as a generic error.
func NeedsCredentials(err error) bool {
	if err == nil {
		return false
	}
	if KindOf(err) == FailureMissingCredentials {
		return true
	}
	return strings.Contains(err.Error(), "API key")
}
