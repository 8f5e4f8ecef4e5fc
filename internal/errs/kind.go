package errs

import (
	"errors"
	"fmt"
)

// Kind classifies governance errors for callers without leaking concrete
// store errors across the boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidState
	KindUnauthorized
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// KindError carries a Kind alongside the wrapped error. errors.Is/As keep
// working across it.
type KindError struct {
	kind Kind
	err  error
}

func (e *KindError) Error() string { return e.err.Error() }
func (e *KindError) Unwrap() error { return e.err }
func (e *KindError) Kind() Kind    { return e.kind }

// WithKind tags err with a kind. The outermost kind wins in KindOf.
func WithKind(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{kind: kind, err: err}
}

func NotFoundf(format string, args ...any) error {
	return WithKind(KindNotFound, fmt.Errorf(format, args...))
}

func InvalidStatef(format string, args ...any) error {
	return WithKind(KindInvalidState, fmt.Errorf(format, args...))
}

func Unauthorizedf(format string, args ...any) error {
	return WithKind(KindUnauthorized, fmt.Errorf(format, args...))
}

func Conflictf(format string, args ...any) error {
	return WithKind(KindConflict, fmt.Errorf(format, args...))
}

func Validationf(format string, args ...any) error {
	return WithKind(KindValidation, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the outermost KindError in the chain, or
// KindUnknown when none is present.
func KindOf(err error) Kind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
