package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// DfindError is the structured error type for dfind.
// It provides context for error handling, logging, and user presentation.
type DfindError struct {
	// Code is the unique error code (e.g., "ERR_201_STORE_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Store, Traversal, Query).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *DfindError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *DfindError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with DfindError.
func (e *DfindError) Is(target error) bool {
	if t, ok := target.(*DfindError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *DfindError) WithDetail(key, value string) *DfindError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *DfindError) WithSuggestion(suggestion string) *DfindError {
	e.Suggestion = suggestion
	return e
}

// New creates a new DfindError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *DfindError {
	return &DfindError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a DfindError from an existing error.
// The error's message becomes the DfindError message.
func Wrap(code string, err error) *DfindError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates an invalid-configuration error.
func ConfigError(message string, cause error) *DfindError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// LocationError creates an unreachable-location error.
// These are contained: the location is skipped and reported as a warning.
func LocationError(location string, cause error) *DfindError {
	return New(ErrCodeLocationUnreachable,
		fmt.Sprintf("location unreachable: %s", location), cause).
		WithDetail("location", location)
}

// StoreError creates an index-store error. Store errors are fatal to a run.
func StoreError(message string, cause error) *DfindError {
	return New(ErrCodeStoreUnavailable, message, cause)
}

// TraversalError creates a per-path walk error.
// These are contained: the path is skipped and counted in the run summary.
func TraversalError(path string, cause error) *DfindError {
	code := ErrCodeWalkFailed
	if errors.Is(cause, fs.ErrPermission) {
		code = ErrCodePathPermission
	}
	return New(code,
		fmt.Sprintf("cannot read %s", path), cause).
		WithDetail("path", path)
}

// QueryError creates a malformed-pattern error.
func QueryError(message string, cause error) *DfindError {
	return New(ErrCodeBadPattern, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *DfindError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DfindError); ok {
		return de.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DfindError); ok {
		return de.Severity == SeverityFatal
	}
	return false
}

// IsStoreError reports whether err is a store-category error.
func IsStoreError(err error) bool {
	return GetCategory(err) == CategoryStore
}

// IsQueryError reports whether err is a query-category error.
func IsQueryError(err error) bool {
	return GetCategory(err) == CategoryQuery
}

// IsTraversalError reports whether err is a traversal-category error.
func IsTraversalError(err error) bool {
	return GetCategory(err) == CategoryTraversal
}

// IsConfigError reports whether err is a config-category error.
func IsConfigError(err error) bool {
	return GetCategory(err) == CategoryConfig
}

// GetCode extracts the error code from a DfindError.
// Returns empty string if not a DfindError.
func GetCode(err error) string {
	if de, ok := err.(*DfindError); ok {
		return de.Code
	}
	return ""
}

// GetCategory extracts the category from a DfindError.
// Returns empty string if not a DfindError.
func GetCategory(err error) Category {
	if de, ok := err.(*DfindError); ok {
		return de.Category
	}
	return ""
}
