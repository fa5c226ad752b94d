package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type for temporal extraction.
type ErrorCode string

const (
	// ErrCodeInvalidConfig indicates a configuration value that cannot be used.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeUnknownTimezone indicates a timezone abbreviation or name that does not resolve.
	ErrCodeUnknownTimezone ErrorCode = "UNKNOWN_TIMEZONE"
	// ErrCodeInvalidReference indicates a malformed reference instant.
	ErrCodeInvalidReference ErrorCode = "INVALID_REFERENCE"
	// ErrCodeContradiction indicates an entity whose parts disagree with each other.
	ErrCodeContradiction ErrorCode = "CONTRADICTION"
	// ErrCodeInvalidDate indicates a date that does not exist on the calendar.
	ErrCodeInvalidDate ErrorCode = "INVALID_DATE"
	// ErrCodeUnresolved indicates an entity that could not be resolved to a value.
	ErrCodeUnresolved ErrorCode = "UNRESOLVED"
	// ErrCodeInvalidFilter indicates a result filter expression that does not compile.
	ErrCodeInvalidFilter ErrorCode = "INVALID_FILTER"
)

// TemporalError represents a structured error for extraction operations.
type TemporalError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *TemporalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *TemporalError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *TemporalError) WithContext(key string, value interface{}) *TemporalError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *TemporalError) GetCode() ErrorCode {
	return e.Code
}

// InvalidConfig creates an invalid configuration error.
func InvalidConfig(msg string) *TemporalError {
	return &TemporalError{Code: ErrCodeInvalidConfig, Message: msg}
}

// UnknownTimezone creates an unknown timezone error.
func UnknownTimezone(name string) *TemporalError {
	return &TemporalError{
		Code:    ErrCodeUnknownTimezone,
		Message: fmt.Sprintf("unknown timezone: %s", name),
	}
}

// InvalidReference creates a malformed reference instant error.
func InvalidReference(value string, cause error) *TemporalError {
	return &TemporalError{
		Code:    ErrCodeInvalidReference,
		Message: fmt.Sprintf("malformed reference instant %q", value),
		Cause:   cause,
	}
}

// Contradiction creates a semantic contradiction error.
func Contradiction(msg string) *TemporalError {
	return &TemporalError{Code: ErrCodeContradiction, Message: msg}
}

// InvalidDate creates an invalid calendar date error.
func InvalidDate(year, month, day int) *TemporalError {
	return &TemporalError{
		Code:    ErrCodeInvalidDate,
		Message: fmt.Sprintf("%04d-%02d-%02d is not a calendar date", year, month, day),
	}
}

// Unresolved creates an unresolved entity error.
func Unresolved(msg string) *TemporalError {
	return &TemporalError{Code: ErrCodeUnresolved, Message: msg}
}

// InvalidFilter creates an invalid filter error.
func InvalidFilter(expr string, cause error) *TemporalError {
	return &TemporalError{
		Code:    ErrCodeInvalidFilter,
		Message: fmt.Sprintf("invalid filter %q", expr),
		Cause:   cause,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *TemporalError {
	return &TemporalError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error, or any error it wraps, is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	var tErr *TemporalError
	if errors.As(err, &tErr) {
		return tErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a TemporalError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var tErr *TemporalError
	if errors.As(err, &tErr) {
		return tErr.Code
	}
	return defaultCode
}
