package ir

import (
	"errors"
	"fmt"

	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/xmltree"
)

// ErrorKind classifies every failure the engine reports.
type ErrorKind string

const (
	// KindFormat is a malformed time value or document syntax.
	KindFormat ErrorKind = "FORMAT_ERROR"

	// KindSizeLimit is input above the size ceiling.
	KindSizeLimit ErrorKind = "SIZE_LIMIT_EXCEEDED"

	// KindReference is a dangling or cyclic resource or clip reference.
	KindReference ErrorKind = "REFERENCE_ERROR"

	// KindStructural is an overlapping spine, a non-positive duration, an
	// invalid lane or any other broken model invariant.
	KindStructural ErrorKind = "STRUCTURAL_INVARIANT_VIOLATION"

	// KindSecurity is input refused by the entity/DTD defenses.
	KindSecurity ErrorKind = "SECURITY_REJECTION"

	// KindInternal is anything else (I/O failures and the like).
	KindInternal ErrorKind = "INTERNAL_ERROR"
)

// Error is the typed failure returned by parser, writer, diff and export.
//
// Subject names the element involved (a clip id or name, a resource id) so the
// problem can be located in the document. Messages never carry file paths.
type Error struct {
	Kind    ErrorKind
	Message string
	Subject string
	Err     error
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Subject)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithSubject returns a copy of e naming subject.
func (e *Error) WithSubject(subject string) *Error {
	c := *e
	c.Subject = subject
	return &c
}

// Formatf builds a KindFormat error.
func Formatf(format string, args ...any) *Error {
	return &Error{Kind: KindFormat, Message: fmt.Sprintf(format, args...)}
}

// Referencef builds a KindReference error.
func Referencef(format string, args ...any) *Error {
	return &Error{Kind: KindReference, Message: fmt.Sprintf(format, args...)}
}

// Structuralf builds a KindStructural error.
func Structuralf(format string, args ...any) *Error {
	return &Error{Kind: KindStructural, Message: fmt.Sprintf(format, args...)}
}

// Securityf builds a KindSecurity error.
func Securityf(format string, args ...any) *Error {
	return &Error{Kind: KindSecurity, Message: fmt.Sprintf(format, args...)}
}

// SizeLimitf builds a KindSizeLimit error.
func SizeLimitf(format string, args ...any) *Error {
	return &Error{Kind: KindSizeLimit, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err with KindOf and wraps it as an *Error, leaving an
// existing *Error untouched.
func Wrap(err error, subject string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindOf(err), Message: err.Error(), Subject: subject, Err: err}
}

// KindOf classifies any error produced by the engine or its leaf packages.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var (
		e   *Error
		fe  *rational.FormatError
		ae  *rational.ArithmeticError
		se  *xmltree.SizeError
		sec *xmltree.SecurityError
		syn *xmltree.SyntaxError
	)
	switch {
	case errors.As(err, &e):
		return e.Kind
	case errors.As(err, &fe), errors.As(err, &syn):
		return KindFormat
	case errors.As(err, &ae):
		return KindStructural
	case errors.As(err, &se):
		return KindSizeLimit
	case errors.As(err, &sec):
		return KindSecurity
	}
	return KindInternal
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
