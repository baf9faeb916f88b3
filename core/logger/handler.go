package logger

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/commander/core/execctx"
)

// ContextExtractor derives an attribute from a context. It reports false when
// the context carries nothing to log.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// ContextHandler decorates a handler with attributes extracted from the
// record's context.
type ContextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

// NewContextHandler wraps next with extractors.
func NewContextHandler(next slog.Handler, extractors ...ContextExtractor) *ContextHandler {
	return &ContextHandler{next: next, extractors: extractors}
}

// Enabled reports whether the wrapped handler handles level.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle adds extracted attributes and forwards the record.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		for _, extract := range h.extractors {
			if attr, ok := extract(ctx); ok {
				r.AddAttrs(attr)
			}
		}
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs returns a handler with attrs added to the wrapped handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

// WithGroup returns a handler with the group opened on the wrapped handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}

// ValueExtractor logs ctx.Value(ctxKey) under key when present.
func ValueExtractor(key string, ctxKey any) ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		v := ctx.Value(ctxKey)
		if v == nil {
			return slog.Attr{}, false
		}
		return slog.Any(key, v), true
	}
}

// ExecContextExtractor logs the username of the execution context bound to
// ctx. Anonymous contexts are skipped.
func ExecContextExtractor(ctx context.Context) (slog.Attr, bool) {
	ec, ok := execctx.Lookup(ctx)
	if !ok || !ec.IsAuthenticated() {
		return slog.Attr{}, false
	}
	return Username(ec.Username()), true
}
