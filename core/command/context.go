package command

import (
	"context"
	"time"
)

type requestNameCtx struct{}

// WithRequestName attaches the request name to the context for logging and metrics.
func WithRequestName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, requestNameCtx{}, name)
}

// RequestNameFromContext extracts the name of the request being dispatched.
// Returns empty string if not present.
func RequestNameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(requestNameCtx{}).(string); ok {
		return name
	}
	return ""
}

type startProcessingAt struct{}

// WithStartProcessingTime attaches the dispatch start time to the context.
func WithStartProcessingTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startProcessingAt{}, t)
}

// StartProcessingTime extracts the dispatch start time from the context.
// Returns zero time if not present.
func StartProcessingTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(startProcessingAt{}).(time.Time); ok {
		return t
	}
	return time.Time{}
}

type scopeCtx struct{}

func withScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeCtx{}, s)
}

// ScopeFromContext returns the dispatch scope bound to ctx, if any.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeCtx{}).(*Scope)
	return s, ok && s != nil
}
