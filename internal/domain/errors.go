package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheStale indicates the cached entry no longer matches its source
	ErrCacheStale = errors.New("cache entry stale")

	// ErrTimeout indicates a compiler invocation exceeded its timeout
	ErrTimeout = errors.New("timeout")

	// ErrCompilerNotFound indicates the compiler executable could not be located
	ErrCompilerNotFound = errors.New("compiler not found")

	// ErrCompilationFailed indicates at least one compile command failed
	ErrCompilationFailed = errors.New("compilation failed")

	// ErrEmptyCommand indicates a plan line with nothing to execute
	ErrEmptyCommand = errors.New("empty command")
)

// CompilationError reports one compile command that did not succeed.
// Stderr holds whatever the compiler printed; it is not parsed.
type CompilationError struct {
	Command  string
	Output   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CompilationError) Error() string {
	target := e.Output
	if target == "" {
		target = e.Command
	}
	if e.ExitCode > 0 {
		return fmt.Sprintf("compile %s: exit status %d", target, e.ExitCode)
	}
	return fmt.Sprintf("compile %s: %v", target, e.Err)
}

// Unwrap exposes both ErrCompilationFailed and the underlying cause
func (e *CompilationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCompilationFailed}
	}
	return []error{ErrCompilationFailed, e.Err}
}

// Detail returns the trimmed compiler output
func (e *CompilationError) Detail() string {
	return strings.TrimSpace(e.Stderr)
}

// NewCompilationError creates a new CompilationError
func NewCompilationError(command, output string, exitCode int, stderr []byte, err error) *CompilationError {
	return &CompilationError{
		Command:  command,
		Output:   output,
		ExitCode: exitCode,
		Stderr:   string(stderr),
		Err:      err,
	}
}

// IsRetryable checks if an error should be retried.
// Only timeouts qualify: a compiler that rejects a shader will reject it again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
