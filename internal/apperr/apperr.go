// Package apperr defines the error taxonomy shared by the changelog and release tools
// and maps it onto process exit codes.
package apperr

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	// Environment errors
	ErrNotRepository ErrorCode = "NOT_REPOSITORY"
	ErrToolMissing   ErrorCode = "TOOL_MISSING"

	// Input validation errors
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrInvalidVersion ErrorCode = "INVALID_VERSION"
	ErrInvalidFormat  ErrorCode = "INVALID_FORMAT"
	ErrUsage          ErrorCode = "USAGE"

	// Data errors
	ErrNoCommits ErrorCode = "NO_COMMITS"
	ErrNotFound  ErrorCode = "NOT_FOUND"

	// State conflict errors
	ErrTagExists ErrorCode = "TAG_EXISTS"
	ErrDirtyTree ErrorCode = "DIRTY_TREE"
	ErrNoRemote  ErrorCode = "NO_REMOTE"
	ErrLocked    ErrorCode = "LOCKED"

	// Parse errors
	ErrParse ErrorCode = "PARSE_ERROR"

	// Operational errors
	ErrGit ErrorCode = "GIT_FAILED"
	ErrIO  ErrorCode = "IO_FAILED"
)

// Exit codes returned by the binaries.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of the outermost AppError in the chain, or "" when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is checks if an error chain carries a specific code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// ExitCode maps an error onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch CodeOf(err) {
	case ErrUsage, ErrInvalidFormat:
		return ExitUsage
	default:
		return ExitFailure
	}
}
