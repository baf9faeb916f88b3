package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	once   sync.Once
	done   chan struct{}
}

// Await waits for the computation to complete and returns its result.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext waits for completion or for ctx to be done, whichever comes first.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// AwaitWithTimeout waits for the computation with a timeout.
// Returns ErrTimeout if the timeout elapses first.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the computation finished, without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Future[U]) complete(result U, err error) {
	f.once.Do(func() {
		f.result = result
		f.err = err
		close(f.done)
	})
}

// PanicError completes a future whose function panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("async: panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error { return ErrPanic }

// recoverInto completes f with a *PanicError when the calling goroutine panics.
func recoverInto[U any](f *Future[U]) {
	if r := recover(); r != nil {
		var zero U
		f.complete(zero, &PanicError{Value: r, Stack: debug.Stack()})
	}
}

// Async runs fn on its own goroutine and returns a future for its result.
// A context cancelled before fn starts completes the future with ctx.Err().
// A panic in fn completes the future with a *PanicError.
func Async[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer recoverInto(f)

		select {
		case <-ctx.Done():
			var zero U
			f.complete(zero, ctx.Err())
			return
		default:
		}

		result, err := fn(ctx, param)
		f.complete(result, err)
	}()

	return f
}

// Resolved returns an already completed future.
func Resolved[U any](result U, err error) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}
	f.complete(result, err)
	return f
}

// WaitAll waits for every future and returns the results in order.
// The first error encountered in order is returned.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	for i, future := range futures {
		result, err := future.Await()
		if err != nil {
			return nil, err
		}
		results[i] = result
	}
	return results, nil
}

// WaitAny returns the index and result of the first future to complete.
// This function spawns one goroutine per future.
func WaitAny[U any](futures ...*Future[U]) (int, U, error) {
	if len(futures) == 0 {
		var zero U
		return -1, zero, ErrNoFutures
	}

	type outcome struct {
		index  int
		result U
		err    error
	}
	done := make(chan outcome, len(futures))

	for i, future := range futures {
		go func(index int, f *Future[U]) {
			result, err := f.Await()
			done <- outcome{index, result, err}
		}(i, future)
	}

	res := <-done
	return res.index, res.result, res.err
}

// Map returns a future completing with fn applied to the result of f.
// Errors from f are passed through without calling fn. A panic in fn
// completes the returned future with a *PanicError.
func Map[U, V any](f *Future[U], fn func(U) (V, error)) *Future[V] {
	out := &Future[V]{done: make(chan struct{})}

	go func() {
		defer recoverInto(out)

		result, err := f.Await()
		if err != nil {
			var zero V
			out.complete(zero, err)
			return
		}
		out.complete(fn(result))
	}()

	return out
}
