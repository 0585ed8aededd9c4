// Package future provides single-settlement deferred results.
//
// A Future is settled exactly once, either with a value or with an error.
// Later settlement attempts are ignored. Waiting is context-aware: a caller
// that stops waiting does not settle or cancel the underlying work.
//
// Usage:
//
//	f := future.Go(ctx, func(ctx context.Context) (string, error) {
//		return load(ctx)
//	})
//	v, err := f.Wait(ctx)
package future

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// PanicError is the rejection reason of a future whose function panicked.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("future: function panicked: %v", e.Value)
}

// Future is the eventual outcome of an asynchronous operation.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// New returns an unsettled future together with its settle function.
// Only the first call to settle has any effect.
func New[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.settle
}

// Go runs fn on a new goroutine and returns a future settled with its result.
//
// A panic inside fn settles the future with a *PanicError.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f, settle := New[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				settle(zero, &PanicError{Value: r, Stack: debug.Stack()})
			}
		}()
		settle(fn(ctx))
	}()
	return f
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f, settle := New[T]()
	settle(v, nil)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f, settle := New[T]()
	var zero T
	settle(zero, err)
	return f
}

func (f *Future[T]) settle(v T, err error) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has settled.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future settles or ctx is done.
//
// If ctx ends first, Wait returns ctx.Err() and the future stays pending.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Peek returns the settled outcome without blocking. settled is false while
// the future is pending.
func (f *Future[T]) Peek() (value T, settled bool, err error) {
	if !f.Settled() {
		return value, false, nil
	}
	return f.value, true, f.err
}
