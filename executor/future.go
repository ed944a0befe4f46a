/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package executor

import (
	"context"
	"sync"
)

// Future is the outcome of a submitted task. It settles exactly once.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Done returns a channel that is closed when the task has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task settles or ctx is done.
// In the latter case ctx.Err() is returned and the task keeps going.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result blocks until the task settles and returns its value and error.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

func (f *Future[T]) settle(val T, err error) {
	f.once.Do(func() {
		f.val, f.err = val, err
		close(f.done)
	})
}
