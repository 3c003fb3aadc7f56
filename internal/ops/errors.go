package ops

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes dispatch failures. Failures inside an operation are
// *ir.Error values and keep their own kinds.
type ErrorCode string

const (
	// ErrCodeUnknownOperation indicates no operation has the requested name.
	ErrCodeUnknownOperation ErrorCode = "UNKNOWN_OPERATION"

	// ErrCodeMissingArgument indicates a required parameter was not given.
	ErrCodeMissingArgument ErrorCode = "MISSING_ARGUMENT"

	// ErrCodeInvalidArgument indicates a parameter has the wrong type, an
	// unparseable value or a value outside its enum.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error is a dispatch failure.
type Error struct {
	Code ErrorCode

	// Operation names the operation being dispatched, if known.
	Operation string

	// Param names the offending parameter.
	Param string

	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Operation != "" && e.Param != "":
		return fmt.Sprintf("%s: %s (operation=%s, param=%s)", e.Code, e.Message, e.Operation, e.Param)
	case e.Param != "":
		return fmt.Sprintf("%s: %s (param=%s)", e.Code, e.Message, e.Param)
	case e.Operation != "":
		return fmt.Sprintf("%s: %s (operation=%s)", e.Code, e.Message, e.Operation)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsUnknownOperation reports whether err is an unknown-operation error.
func IsUnknownOperation(err error) bool { return hasCode(err, ErrCodeUnknownOperation) }

// IsArgumentError reports whether err is a missing or invalid argument.
func IsArgumentError(err error) bool {
	return hasCode(err, ErrCodeMissingArgument) || hasCode(err, ErrCodeInvalidArgument)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func unknownOperation(name string) *Error {
	return &Error{Code: ErrCodeUnknownOperation, Operation: name, Message: "no such operation"}
}

func missingArg(param string) *Error {
	return &Error{Code: ErrCodeMissingArgument, Param: param, Message: "required argument not given"}
}

func invalidArg(param string, err error, format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Param: param, Message: fmt.Sprintf(format, args...), Err: err}
}
