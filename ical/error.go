package ical

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for everything that can go wrong while reading a
// document. All of them are recoverable at the call site; use errors.Is
// to branch on the category.
var (
	ErrMalformedLineEnding   = errors.New("malformed line ending")
	ErrInvalidPropertySyntax = errors.New("invalid property syntax")
	ErrUnbalancedComponent   = errors.New("unbalanced component")
	ErrUnexpectedEOF         = errors.New("unexpected end of input")
	ErrValueDecode           = errors.New("value decode error")
)

type CustomError struct {
	msg  string
	kind error
	args map[string]any
}

// Create a new custom error wrapping one of the sentinel kinds above.
// Pass nil args if there is no context worth attaching.
func NewCustomError(msg string, kind error, args map[string]any) *CustomError {
	if args == nil {
		args = make(map[string]any)
	}
	return &CustomError{
		msg:  msg,
		kind: kind,
		args: args,
	}
}

// Get the error message
func (e *CustomError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.msg)
	sb.WriteString(" |")
	for key, value := range e.args {
		sb.WriteString(fmt.Sprintf(" %s: %v", key, value))
	}
	return sb.String()
}

func (e *CustomError) Unwrap() error {
	return e.kind
}

// A value that claimed a known type but could not be decoded as it.
// Values of unknown types never produce this; they are preserved raw.
type ValueDecodeError struct {
	Kind   ValueKind
	Raw    string
	Reason string
}

func (e *ValueDecodeError) Error() string {
	return fmt.Sprintf("can't decode %s value %q: %s", e.Kind, e.Raw, e.Reason)
}

func (e *ValueDecodeError) Unwrap() error {
	return ErrValueDecode
}
