// Package apperr defines the typed error-kind vocabulary shared by every
// core component. Components never return bare errors across a boundary;
// they wrap failures in an *Error carrying a Kind the HTTP gateway maps to
// a status code.
package apperr

import "fmt"

type Kind string

const (
	Validation         Kind = "VALIDATION"
	Unauthenticated    Kind = "UNAUTHENTICATED"
	Forbidden          Kind = "FORBIDDEN"
	NotFound           Kind = "NOT_FOUND"
	Conflict           Kind = "CONFLICT"
	PolicyViolation    Kind = "POLICY_VIOLATION"
	TerminalState      Kind = "TERMINAL_STATE"
	DeadlineExceeded   Kind = "DEADLINE_EXCEEDED"
	StorageUnavailable Kind = "STORAGE_UNAVAILABLE"
	Internal           Kind = "INTERNAL"
)

// Error is the result type every component boundary returns instead of a
// bare error. Details carries machine-readable context (e.g. conflicting
// reservation ids, the specific policy reason code).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an underlying error (e.g. from the store adapter) with a
// Kind so callers at the API boundary never need to inspect driver-level
// error types.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithDetails returns a copy of e carrying the given detail map.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// As reports whether err is an *Error, returning it if so.
func As(err error) (*Error, bool) {
	ae, ok := err.(*Error)
	return ae, ok
}

// KindOf extracts the Kind of err, defaulting to Internal for any error
// that did not originate as an *Error.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return Internal
}
