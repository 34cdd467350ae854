// Package engineerr implements the error taxonomy from §7: a small set of
// named kinds rather than a deep exception hierarchy. Only InputError,
// PolicyError, ConfigError, and CancellationError propagate out of the
// engine API; DetectorFailure and InternalError are recorded in the
// execution report and recovered locally.
package engineerr

import "fmt"

// Kind identifies one of the six error categories from §7.
type Kind string

const (
	KindInput          Kind = "InputError"
	KindPolicy         Kind = "PolicyError"
	KindConfig         Kind = "ConfigError"
	KindDetectorFailed Kind = "DetectorFailure"
	KindInternal       Kind = "InternalError"
	KindCancellation   Kind = "CancellationError"
)

// Error is the single error type used throughout the engine. It wraps an
// optional underlying cause and tags it with a Kind so callers can branch
// with errors.Is/errors.As without a hierarchy of concrete error types.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, enabling
// errors.Is(err, engineerr.New(engineerr.KindPolicy, "", nil)) style checks
// as well as direct kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Sentinel instances for errors.Is comparisons against a specific kind,
// e.g. errors.Is(err, engineerr.Policy).
var (
	Input          = &Error{Kind: KindInput}
	Policy         = &Error{Kind: KindPolicy}
	Config         = &Error{Kind: KindConfig}
	DetectorFailed = &Error{Kind: KindDetectorFailed}
	Internal       = &Error{Kind: KindInternal}
	Cancellation   = &Error{Kind: KindCancellation}
)
