package command

import (
	"context"
	"fmt"
	"reflect"

	"github.com/dmitrymomot/commander/pkg/async"
)

// Handler processes one request type synchronously.
type Handler interface {
	// Name returns the request type name this handler processes.
	Name() string

	// Handle executes the handler. The request must be of the handler's type.
	Handle(ctx context.Context, req any) (any, error)
}

// AsyncHandler processes one request type and completes through a future.
type AsyncHandler interface {
	// Name returns the request type name this handler processes.
	Name() string

	// HandleAsync starts the handler and returns a future for its result.
	HandleAsync(ctx context.Context, req any) *async.Future[any]
}

// Listener receives notifications of one type.
type Listener interface {
	// Name returns the notification type name this listener receives.
	Name() string

	// Notify handles the notification.
	Notify(ctx context.Context, notification any) error
}

// HandlerFunc is a type-safe handler for requests of type T returning R.
type HandlerFunc[T, R any] struct {
	name    string
	reqType reflect.Type
	fn      func(context.Context, T) (R, error)
}

// NewHandlerFunc creates a handler from a typed function.
// The request name is derived from T.
//
// Example:
//
//	handler := command.NewHandlerFunc(func(ctx context.Context, q GetContact) (Contact, error) {
//	    return repo.Find(ctx, q.ID)
//	})
func NewHandlerFunc[T, R any](fn func(context.Context, T) (R, error)) *HandlerFunc[T, R] {
	t := reflect.TypeFor[T]()
	return &HandlerFunc[T, R]{
		name:    getRequestName(t),
		reqType: t,
		fn:      fn,
	}
}

// NewCommandHandlerFunc creates a handler for a command that produces no result.
func NewCommandHandlerFunc[T any](fn func(context.Context, T) error) *HandlerFunc[T, struct{}] {
	return NewHandlerFunc(func(ctx context.Context, cmd T) (struct{}, error) {
		return struct{}{}, fn(ctx, cmd)
	})
}

// Name returns the request name this handler processes.
func (h *HandlerFunc[T, R]) Name() string {
	return h.name
}

// Handle executes the handler with the given request.
func (h *HandlerFunc[T, R]) Handle(ctx context.Context, req any) (any, error) {
	cmd, err := castRequest[T](h.name, req)
	if err != nil {
		return nil, err
	}
	return h.fn(ctx, cmd)
}

func (h *HandlerFunc[T, R]) requestType() reflect.Type {
	return h.reqType
}

// AsyncHandlerFunc is a type-safe asynchronous handler for requests of type T.
type AsyncHandlerFunc[T, R any] struct {
	name    string
	reqType reflect.Type
	fn      func(context.Context, T) *async.Future[R]
}

// NewAsyncHandlerFunc creates an asynchronous handler from a typed function.
//
// Example:
//
//	handler := command.NewAsyncHandlerFunc(func(ctx context.Context, p AsyncPing) *async.Future[string] {
//	    return async.Async(ctx, p, pong)
//	})
func NewAsyncHandlerFunc[T, R any](fn func(context.Context, T) *async.Future[R]) *AsyncHandlerFunc[T, R] {
	t := reflect.TypeFor[T]()
	return &AsyncHandlerFunc[T, R]{
		name:    getRequestName(t),
		reqType: t,
		fn:      fn,
	}
}

// Name returns the request name this handler processes.
func (h *AsyncHandlerFunc[T, R]) Name() string {
	return h.name
}

// HandleAsync starts the handler and returns a future for its result.
func (h *AsyncHandlerFunc[T, R]) HandleAsync(ctx context.Context, req any) *async.Future[any] {
	cmd, err := castRequest[T](h.name, req)
	if err != nil {
		return async.Resolved[any](nil, err)
	}

	f := h.fn(ctx, cmd)
	if f == nil {
		return async.Resolved[any](nil, fmt.Errorf("async handler %s returned nil future", h.name))
	}

	return async.Map(f, func(r R) (any, error) { return r, nil })
}

func (h *AsyncHandlerFunc[T, R]) requestType() reflect.Type {
	return h.reqType
}

// ListenerFunc is a type-safe listener for notifications of type T.
type ListenerFunc[T any] struct {
	name    string
	reqType reflect.Type
	fn      func(context.Context, T) error
}

// NewListenerFunc creates a listener from a typed function.
func NewListenerFunc[T any](fn func(context.Context, T) error) *ListenerFunc[T] {
	t := reflect.TypeFor[T]()
	return &ListenerFunc[T]{
		name:    getRequestName(t),
		reqType: t,
		fn:      fn,
	}
}

// Name returns the notification name this listener receives.
func (l *ListenerFunc[T]) Name() string {
	return l.name
}

// Notify handles the notification.
func (l *ListenerFunc[T]) Notify(ctx context.Context, notification any) error {
	n, err := castRequest[T](l.name, notification)
	if err != nil {
		return err
	}
	return l.fn(ctx, n)
}

func (l *ListenerFunc[T]) requestType() reflect.Type {
	return l.reqType
}

// typed is implemented by handlers that know their request type, which
// registers the type for decoding queued requests.
type typed interface {
	requestType() reflect.Type
}

// castRequest accepts T or *T.
func castRequest[T any](name string, req any) (T, error) {
	switch v := req.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: expected %s, got %T", ErrInvalidPayload, name, req)
}
