package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error codes for the progression service.
const (
	// Store errors
	ErrCodeStoreInitFailed  = "STORE_INIT_FAILED"
	ErrCodeStoreReadFailed  = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed = "STORE_WRITE_FAILED"

	// Config errors
	ErrCodeConfigParseFailed = "CONFIG_PARSE_FAILED"
	ErrCodeConfigInvalid     = "CONFIG_INVALID"
	ErrCodeConfigNotFound    = "CONFIG_NOT_FOUND"

	// Lifecycle errors
	ErrCodeInterruptedShutdown = "INTERRUPTED_SHUTDOWN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"
)

// ProgressionError represents an error in the progression service.
type ProgressionError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProgressionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProgressionError) Unwrap() error {
	return e.Err
}

// NewProgressionError creates a new ProgressionError.
func NewProgressionError(code, message string, err error) *ProgressionError {
	return &ProgressionError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether err, or any error it wraps, is a ProgressionError with the given code.
func HasCode(err error, code string) bool {
	var perr *ProgressionError
	if !errors.As(err, &perr) {
		return false
	}
	if perr.Code == code {
		return true
	}
	return HasCode(perr.Err, code)
}

// ErrStoreInit wraps failures to open the store or create its schema.
// The process must not start without durability.
func ErrStoreInit(operation string, err error) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeStoreInitFailed,
		Message: fmt.Sprintf("store initialization failed during %s", operation),
		Err:     err,
	}
}

// ErrStoreRead wraps a failed point read. Callers fall back to default state.
func ErrStoreRead(userID string, err error) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeStoreReadFailed,
		Message: fmt.Sprintf("failed to load progression for %s", userID),
		Err:     err,
	}
}

// ErrStoreWrite wraps a failed batch write. The whole batch was rolled back.
func ErrStoreWrite(operation string, rows int, err error) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeStoreWriteFailed,
		Message: fmt.Sprintf("batch write failed during %s (%d rows rolled back)", operation, rows),
		Err:     err,
	}
}

// ErrConfigParse returns an error for a single malformed level range key.
func ErrConfigParse(key, reason string) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeConfigParseFailed,
		Message: fmt.Sprintf("invalid level range key %q: %s", key, reason),
		Err:     nil,
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(reason string) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeConfigInvalid,
		Message: fmt.Sprintf("invalid configuration: %s", reason),
		Err:     nil,
	}
}

// ErrConfigNotFound returns an error when the config file cannot be read.
func ErrConfigNotFound(path string, err error) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeConfigNotFound,
		Message: fmt.Sprintf("config file not readable: %s", path),
		Err:     err,
	}
}

// ErrInterruptedShutdown returns an error when the flush loop did not stop within its grace period.
func ErrInterruptedShutdown(grace time.Duration) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeInterruptedShutdown,
		Message: fmt.Sprintf("flush scheduler did not stop within %s, in-flight flush cancelled", grace),
		Err:     nil,
	}
}

// ErrInvalidInput returns a validation error for a malformed input field.
func ErrInvalidInput(field, reason string) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Err:     nil,
	}
}
