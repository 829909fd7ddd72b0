package message

import "fmt"

// UnknownTypeText is the error text answered for unrouted message types.
const UnknownTypeText = "Unknown message type"

// ErrUnknownType is returned by Router.Call when no handler is registered
// for the type.
type ErrUnknownType struct {
	Type Type
}

func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("message: unknown type %q", e.Type)
}

// ErrPanic wraps a value recovered from a handler panic.
type ErrPanic struct {
	Type  Type
	Value any
}

func (e *ErrPanic) Error() string {
	return fmt.Sprintf("message: %s handler panicked: %v", e.Type, e.Value)
}
