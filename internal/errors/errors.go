package errors

import (
	"fmt"
	"slices"

	crdb "github.com/cockroachdb/errors"
)

// Exit codes returned by the apm binary.
const (
	// ExitUser indicates a user-related error (bad input, configuration, aborted prompt).
	ExitUser = 1

	// ExitSystem indicates a system-related error (I/O, permissions, damaged backups).
	ExitSystem = 2
)

// Sentinel errors shared across packages.
var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = crdb.New("resource not found")

	// ErrInvalidConfig indicates configuration validation failed.
	ErrInvalidConfig = crdb.New("invalid configuration")
)

// ExitError wraps an error with an exit code and optional suggestion for the CLI.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitUser, Suggestion: suggestion}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitSystem, Suggestion: suggestion}
}

// NewConfigError creates a user error pointing at the config commands.
func NewConfigError(err error) *ExitError {
	return &ExitError{Err: err, Code: ExitUser, Suggestion: "Run: apm config show"}
}

// Error returns the message of the underlying error, or the exit code
// when there is none.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code for err: 0 for nil, the code of
// the outermost ExitError, and ExitUser otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if crdb.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUser
}

// Suggestions returns what to tell the user next: the ExitError
// suggestion, if any, then every hint attached with WithHint. Duplicates
// are dropped.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	var out []string
	var exitErr *ExitError
	if crdb.As(err, &exitErr) && exitErr.Suggestion != "" {
		out = append(out, exitErr.Suggestion)
	}
	for _, h := range crdb.GetAllHints(err) {
		if !slices.Contains(out, h) {
			out = append(out, h)
		}
	}
	return out
}

// Message returns err's message without an enclosing ExitError.
func Message(err error) string {
	var exitErr *ExitError
	if crdb.As(err, &exitErr) && exitErr.Err != nil {
		return exitErr.Err.Error()
	}
	return err.Error()
}
