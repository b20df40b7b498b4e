package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// New returns an error with a stack trace attached.
func New(msg string) error {
	return crdb.NewWithDepth(1, msg)
}

// Newf formats an error message and attaches a stack trace.
func Newf(format string, args ...any) error {
	return crdb.NewWithDepthf(1, format, args...)
}

// Wrap annotates err with msg. Returns nil if err is nil.
func Wrap(err error, msg string) error {
	return crdb.WrapWithDepth(1, err, msg)
}

// Wrapf annotates err with a formatted message. Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	return crdb.WrapWithDepthf(1, err, format, args...)
}

// Mark tags err so that Is(err, reference) reports true
// without changing its message.
func Mark(err, reference error) error {
	return crdb.Mark(err, reference)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return crdb.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return crdb.As(err, target)
}

// Join combines errs into one. Nil entries are dropped.
func Join(errs ...error) error {
	return crdb.Join(errs...)
}

// Unwrap returns the next error in err's chain.
func Unwrap(err error) error {
	return crdb.UnwrapOnce(err)
}

// WithHint attaches a user-facing hint to err. Hints survive wrapping and
// are collected by Suggestions. Returns nil if err is nil.
func WithHint(err error, hint string) error {
	return crdb.WithHint(err, hint)
}
