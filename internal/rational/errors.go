package rational

import (
	"errors"
	"fmt"
)

// FormatError reports a textual time, rate or timecode that cannot be parsed.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time %q: %s", e.Input, e.Reason)
}

// ArithmeticError reports an impossible rational: a zero denominator or a
// result outside the int64 range.
type ArithmeticError struct {
	Op     string
	Reason string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("rational %s: %s", e.Op, e.Reason)
}

// IsFormatError reports whether err wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsArithmeticError reports whether err wraps an *ArithmeticError.
func IsArithmeticError(err error) bool {
	var ae *ArithmeticError
	return errors.As(err, &ae)
}

func formatErr(input, format string, args ...any) error {
	return &FormatError{Input: input, Reason: fmt.Sprintf(format, args...)}
}
