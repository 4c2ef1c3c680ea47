package dispatch

import (
	"fmt"
	"runtime/debug"
)

// TransportError wraps a failed gateway call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// InternalError is a recovered panic.
type InternalError struct {
	Value any
	Stack []byte
}

func newInternalError(v any) *InternalError {
	return &InternalError{Value: v, Stack: debug.Stack()}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *InternalError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
