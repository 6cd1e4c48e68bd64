package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestProgressionError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *ProgressionError
		wantMsg string
	}{
		{
			name: "error without wrapped error",
			err: &ProgressionError{
				Code:    ErrCodeConfigInvalid,
				Message: "invalid configuration: points.per_level must be positive",
				Err:     nil,
			},
			wantMsg: "CONFIG_INVALID: invalid configuration: points.per_level must be positive",
		},
		{
			name: "error with wrapped error",
			err: &ProgressionError{
				Code:    ErrCodeStoreWriteFailed,
				Message: "batch write failed",
				Err:     errors.New("disk full"),
			},
			wantMsg: "STORE_WRITE_FAILED: batch write failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.wantMsg {
				t.Errorf("ProgressionError.Error() = %v, want %v", got, tt.wantMsg)
			}
		})
	}
}

func TestProgressionError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	err := &ProgressionError{
		Code:    ErrCodeStoreReadFailed,
		Message: "test error",
		Err:     originalErr,
	}

	unwrapped := err.Unwrap()
	if unwrapped != originalErr {
		t.Errorf("Unwrap() returned %v, want %v", unwrapped, originalErr)
	}
}

func TestErrStoreInit(t *testing.T) {
	originalErr := errors.New("unable to open database file")
	err := ErrStoreInit("create schema", originalErr)

	if err.Code != ErrCodeStoreInitFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeStoreInitFailed)
	}
	if !strings.Contains(err.Message, "create schema") {
		t.Errorf("Message should contain operation, got %v", err.Message)
	}
	if err.Err != originalErr {
		t.Errorf("Wrapped error = %v, want %v", err.Err, originalErr)
	}
}

func TestErrStoreRead(t *testing.T) {
	userID := "0b0f2c0e-4b7d-4d38-9d0f-0a1e4b2b6a11"
	err := ErrStoreRead(userID, errors.New("database is locked"))

	if err.Code != ErrCodeStoreReadFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeStoreReadFailed)
	}
	if !strings.Contains(err.Message, userID) {
		t.Errorf("Message should contain user ID %v, got %v", userID, err.Message)
	}
}

func TestErrStoreWrite(t *testing.T) {
	err := ErrStoreWrite("commit", 42, errors.New("constraint failed"))

	if err.Code != ErrCodeStoreWriteFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeStoreWriteFailed)
	}
	if !strings.Contains(err.Message, "42 rows") {
		t.Errorf("Message should contain row count, got %v", err.Message)
	}
}

func TestErrConfigParse(t *testing.T) {
	err := ErrConfigParse("ten-20", "expected N or A-B")

	if err.Code != ErrCodeConfigParseFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeConfigParseFailed)
	}
	if !strings.Contains(err.Message, `"ten-20"`) {
		t.Errorf("Message should quote the key, got %v", err.Message)
	}
}

func TestErrConfigInvalid(t *testing.T) {
	reason := "min-level must not exceed max-level"
	err := ErrConfigInvalid(reason)

	if err.Code != ErrCodeConfigInvalid {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeConfigInvalid)
	}
	if !strings.Contains(err.Message, reason) {
		t.Errorf("Message should contain reason %v, got %v", reason, err.Message)
	}
}

func TestErrInterruptedShutdown(t *testing.T) {
	err := ErrInterruptedShutdown(5 * time.Second)

	if err.Code != ErrCodeInterruptedShutdown {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInterruptedShutdown)
	}
	if !strings.Contains(err.Message, "5s") {
		t.Errorf("Message should contain grace period, got %v", err.Message)
	}
}

func TestErrInvalidInput(t *testing.T) {
	err := ErrInvalidInput("user_id", "not a UUID")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}
	if !strings.Contains(err.Message, "user_id") || !strings.Contains(err.Message, "not a UUID") {
		t.Errorf("Message should contain field and reason, got %v", err.Message)
	}
}

func TestHasCode(t *testing.T) {
	storeErr := ErrStoreWrite("exec", 3, errors.New("boom"))

	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"direct match", storeErr, ErrCodeStoreWriteFailed, true},
		{"wrapped with fmt", fmt.Errorf("flush: %w", storeErr), ErrCodeStoreWriteFailed, true},
		{"nested progression error", NewProgressionError(ErrCodeConfigInvalid, "outer", storeErr), ErrCodeStoreWriteFailed, true},
		{"different code", storeErr, ErrCodeStoreReadFailed, false},
		{"plain error", errors.New("plain"), ErrCodeStoreWriteFailed, false},
		{"nil error", nil, ErrCodeStoreWriteFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCode(tt.err, tt.code); got != tt.want {
				t.Errorf("HasCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	originalErr := errors.New("database connection failed")
	progressionErr := ErrStoreRead("user", originalErr)

	if !errors.Is(progressionErr, originalErr) {
		t.Error("errors.Is should recognize wrapped error")
	}

	var target *ProgressionError
	if !errors.As(fmt.Errorf("outer: %w", progressionErr), &target) {
		t.Fatal("errors.As should find ProgressionError")
	}
	if target.Code != ErrCodeStoreReadFailed {
		t.Errorf("Code = %v, want %v", target.Code, ErrCodeStoreReadFailed)
	}
}
