package command

import (
	"context"
	"reflect"
	"runtime/debug"
	"sync"
)

// requestNameCache caches reflection results for request name lookups.
var requestNameCache sync.Map

// getRequestName derives the request name from a reflect.Type.
// Pointers are dereferenced; named types use their unqualified name.
func getRequestName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	if name, ok := requestNameCache.Load(t); ok {
		return name.(string)
	}

	original := t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := t.Name()
	if name == "" {
		name = t.String()
	}

	requestNameCache.Store(original, name)
	return name
}

// RequestName returns the stable type name used to route req.
func RequestName(req any) string {
	return getRequestName(reflect.TypeOf(req))
}

// chainMiddleware applies multiple middleware in order.
// The first middleware in the slice is the outermost (executed first).
func chainMiddleware(handler Handler, middleware []Middleware) Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

// safeHandle executes a handler with panic recovery.
// A panic is converted to a *PanicError carrying the stack.
func safeHandle(handler Handler, ctx context.Context, req any) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &PanicError{Handler: handler.Name(), Value: r, Stack: debug.Stack()}
		}
	}()
	return handler.Handle(ctx, req)
}

// safeNotify executes a listener with panic recovery.
func safeNotify(listener Listener, ctx context.Context, notification any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Handler: listener.Name(), Value: r, Stack: debug.Stack()}
		}
	}()
	return listener.Notify(ctx, notification)
}
