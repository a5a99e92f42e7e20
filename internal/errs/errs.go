// Package errs classifies settlement failures.
//
// The engine never recovers from these; it returns them with enough detail
// (kind, offending field or identifier) for the API layer to build a message.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the failure category.
type Kind int

const (
	// Internal signals a broken invariant inside the engine.
	Internal Kind = iota
	Forbidden
	InvalidInput
	NotFound
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Forbidden:
		return "forbidden"
	case InvalidInput:
		return "invalid_input"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is checks against a kind.
var (
	ErrForbidden    = &Error{Kind: Forbidden}
	ErrInvalidInput = &Error{Kind: InvalidInput}
	ErrNotFound     = &Error{Kind: NotFound}
	ErrConflict     = &Error{Kind: Conflict}
	ErrInternal     = &Error{Kind: Internal}
)

// Error is a classified failure.
type Error struct {
	Kind Kind
	// Field names the offending input field, if any.
	Field string
	// Ref is the identifier the failure is about (item, participant, request).
	Ref    string
	Reason string
	// Violations lists every structural constraint that failed.
	Violations []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	if e.Ref != "" {
		fmt.Fprintf(&b, " (ref %s)", e.Ref)
	}
	if len(e.Violations) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Violations, "; "))
	}
	return b.String()
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Forbiddenf(format string, args ...any) *Error {
	return &Error{Kind: Forbidden, Reason: fmt.Sprintf(format, args...)}
}

func Conflictf(ref, format string, args ...any) *Error {
	return &Error{Kind: Conflict, Ref: ref, Reason: fmt.Sprintf(format, args...)}
}

func NotFoundf(ref, format string, args ...any) *Error {
	return &Error{Kind: NotFound, Ref: ref, Reason: fmt.Sprintf(format, args...)}
}

func Invalid(field, reason string) *Error {
	return &Error{Kind: InvalidInput, Field: field, Reason: reason}
}

func Internalf(format string, args ...any) *Error {
	return &Error{Kind: Internal, Reason: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Violations accumulates structural constraint failures.
type Violations struct {
	fields []string
	msgs   []string
}

// Addf records a failed constraint on field.
func (v *Violations) Addf(field, format string, args ...any) {
	v.fields = append(v.fields, field)
	v.msgs = append(v.msgs, field+": "+fmt.Sprintf(format, args...))
}

// Err returns nil when nothing was recorded, else an InvalidInput error
// naming the first field and listing all violations.
func (v *Violations) Err() error {
	if len(v.msgs) == 0 {
		return nil
	}
	return &Error{
		Kind:       InvalidInput,
		Field:      v.fields[0],
		Reason:     "constraint violated",
		Violations: append([]string(nil), v.msgs...),
	}
}
