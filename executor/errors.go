/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package executor

import (
	"bytes"
	"fmt"
	"runtime/debug"
)

// PanicError is the error of a task that panicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v\n\n%s", p.Value, p.Stack)
}

// Unwrap returns the panic value if it is an error.
func (p *PanicError) Unwrap() error {
	err, ok := p.Value.(error)
	if !ok {
		return nil
	}
	return err
}

func newPanicError(v interface{}) *PanicError {
	stack := debug.Stack()
	// Drop the "goroutine N [running]:" header.
	if line := bytes.IndexByte(stack, '\n'); line >= 0 {
		stack = stack[line+1:]
	}
	return &PanicError{Value: v, Stack: stack}
}
