// Package apperr defines the error taxonomy shared by every Jarvis
// component. Components return one of these kinds instead of raising
// exceptions; callers at system boundaries (HTTP handlers, CLI, background
// workers) map a kind to a status code or exit behavior.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags an error with how the caller should react to it.
type Kind int

const (
	// KindInvalidInput is a 400-class error: malformed or disallowed input.
	// Never retried.
	KindInvalidInput Kind = iota
	// KindNotFound is a 404-class error.
	KindNotFound
	// KindAuthRequired means the caller must supply missing credentials
	// before the operation can proceed.
	KindAuthRequired
	// KindTransientBackend is a connection/timeout/5xx failure from an
	// external dependency. Retried with backoff inside the component's
	// own policy.
	KindTransientBackend
	// KindDegraded means an optional enrichment dependency (LLM, git,
	// GitHub) is unavailable; the component fell back to a deterministic
	// path. Not an error the caller needs to act on, but logged as such.
	KindDegraded
	// KindCorrupt means an on-disk or on-wire payload was unparseable.
	// The offending item is quarantined; processing continues.
	KindCorrupt
	// KindFatal is an invariant violation. Aborts the current request,
	// not the process.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindAuthRequired:
		return "auth_required"
	case KindTransientBackend:
		return "transient_backend"
	case KindDegraded:
		return "degraded"
	case KindCorrupt:
		return "corrupt"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is a taxonomy-tagged error that wraps an underlying cause.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "ingest.ProcessCapture"
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Wrapped)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New creates a tagged Error.
func New(kind Kind, op string, wrapped error) *Error {
	return &Error{Kind: kind, Op: op, Wrapped: wrapped}
}

// Newf creates a tagged Error from a format string.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Wrapped: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err, defaulting to KindFatal if err does
// not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}

// Retryable reports whether the error's kind should be retried by a
// caller's backoff policy.
func Retryable(err error) bool {
	return KindOf(err) == KindTransientBackend
}

// HTTPStatus maps a Kind to the HTTP status a boundary handler should
// return.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthRequired:
		return http.StatusUnauthorized
	case KindTransientBackend:
		return http.StatusBadGateway
	case KindDegraded:
		return http.StatusOK
	case KindCorrupt:
		return http.StatusUnprocessableEntity
	case KindFatal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
