// Package errs provides the unified error type used across sqlreverse.
//
// Every subsystem (database drivers, introspectors, the template store, the
// render engine) wraps its native errors into *errs.Error before returning
// them. Callers use the Is* predicates to decide whether a failure aborts the
// run without importing driver-specific packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindQueryFailed, "describe table", pgErr)
//
//	// In the CLI, pick an exit message:
//	if errs.IsConnectionFailed(err) {
//	    fmt.Fprintln(stderr, "cannot reach the database")
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// All backends (MySQL, PostgreSQL, SQLite, ClickHouse, TDengine, MinIO) map
// their native errors to one of these kinds.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no object, no table
	ErrKindConnectionFailed         // cannot reach the backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // catalog query failed
	ErrKindInvalidInput             // bad arguments, config or generated content
	ErrKindPermissionDenied         // access denied / auth failure
	ErrKindIOFailed                 // reading or writing local files
	ErrKindTemplateFailed           // template parse or execution
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindIOFailed:
		return "io_failed"
	case ErrKindTemplateFailed:
		return "template_failed"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all sqlreverse subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a catalog query failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsIOFailed reports whether err is a local file-system failure.
func IsIOFailed(err error) bool {
	return KindOf(err) == ErrKindIOFailed
}

// IsTemplateFailed reports whether err came from parsing or executing a template.
func IsTemplateFailed(err error) bool {
	return KindOf(err) == ErrKindTemplateFailed
}

// KindOf extracts the ErrKind of the first *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
