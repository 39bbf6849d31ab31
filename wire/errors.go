package wire

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType = errors.New("wire: unsupported type")
	ErrInvalidFormat   = errors.New("wire: invalid typed object")
)

// UnsupportedTypeError reports a value that neither the built-in variants nor
// the injected codec could handle.
type UnsupportedTypeError struct {
	Type string // Go type of the rejected value, or the tag being decoded
	Err  error  // rejection reported by the injected codec, if any
}

// Error implements error.
func (e *UnsupportedTypeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wire: unsupported type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("wire: unsupported type %s", e.Type)
}

// Unwrap returns the underlying cause, if any.
func (e *UnsupportedTypeError) Unwrap() error {
	return e.Err
}

// Is matches ErrUnsupportedType.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}
