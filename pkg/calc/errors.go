package calc

import (
	"errors"
	"fmt"
)

// Kind classifies a calculation failure.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in this package.
	KindUnknown Kind = iota
	// KindValidation covers wrong argument counts, non-numeric input and magnitude violations.
	KindValidation
	// KindDomain covers inputs outside an operation's mathematical domain.
	KindDomain
	// KindZeroDivision is reported for division or modulo by zero.
	KindZeroDivision
	// KindSecurity is reported when an expression matches a dangerous pattern.
	KindSecurity
	// KindSyntax is reported when an expression cannot be parsed.
	KindSyntax
	// KindOverflow is reported when evaluation overflows float64.
	KindOverflow
)

// String returns the lowercase name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDomain:
		return "domain"
	case KindZeroDivision:
		return "zero_division"
	case KindSecurity:
		return "security"
	case KindSyntax:
		return "syntax"
	case KindOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// Error is the structured error returned by every calculator and parser operation.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Is reports whether target is an *Error of the same kind. It lets the
// sentinel values below be used with errors.Is. Zero division also matches
// ErrDomain.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == KindDomain && e.Kind == KindZeroDivision && t.Msg == "" {
		return true
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

var (
	// ErrValidation matches any validation error.
	ErrValidation = &Error{Kind: KindValidation}
	// ErrDomain matches any domain error.
	ErrDomain = &Error{Kind: KindDomain}
	// ErrZeroDivision matches division and modulo by zero.
	ErrZeroDivision = &Error{Kind: KindZeroDivision}
	// ErrSecurity matches expressions rejected by the dangerous-pattern scan.
	ErrSecurity = &Error{Kind: KindSecurity}
	// ErrSyntax matches expressions that could not be parsed.
	ErrSyntax = &Error{Kind: KindSyntax}
	// ErrOverflow matches numeric overflow during evaluation.
	ErrOverflow = &Error{Kind: KindOverflow}
)

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
