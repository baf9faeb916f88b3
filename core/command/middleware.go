package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/dmitrymomot/commander/core/audit"
	"github.com/dmitrymomot/commander/core/execctx"
	"github.com/dmitrymomot/commander/core/logger"
	"github.com/dmitrymomot/commander/core/store"
)

// Middleware wraps a Handler to add cross-cutting functionality.
type Middleware func(next Handler) Handler

// middlewareHandler wraps a Handler with middleware functionality.
type middlewareHandler struct {
	name    string
	reqType reflect.Type
	fn      func(ctx context.Context, req any) (any, error)
}

func (h *middlewareHandler) Name() string {
	return h.name
}

func (h *middlewareHandler) Handle(ctx context.Context, req any) (any, error) {
	return h.fn(ctx, req)
}

func (h *middlewareHandler) requestType() reflect.Type {
	return h.reqType
}

func wrap(next Handler, fn func(ctx context.Context, req any) (any, error)) Handler {
	h := &middlewareHandler{name: next.Name(), fn: fn}
	if t, ok := next.(typed); ok {
		h.reqType = t.requestType()
	}
	return h
}

// AuthorizationMiddleware rejects callers that do not satisfy policy before
// any inner stage runs.
func AuthorizationMiddleware(policy Policy, log *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return wrap(next, func(ctx context.Context, req any) (any, error) {
			ec := execctx.FromContext(ctx)
			if !policy.Allows(ec) {
				err := &UnauthorizedError{
					Request:  next.Name(),
					Policy:   policy.String(),
					Username: ec.Username(),
				}
				log.WarnContext(ctx, "request rejected",
					logger.Component("authorization"),
					slog.String("request", next.Name()),
					slog.String("policy", policy.String()),
					slog.String("username", ec.Username()))
				return nil, err
			}
			return next.Handle(ctx, req)
		})
	}
}

// AuditMiddleware records the request and its outcome into the recorder of the
// scope bound to the context. Without a scope, or when the request type is
// filtered out, it passes through.
func AuditMiddleware() Middleware {
	return func(next Handler) Handler {
		return wrap(next, func(ctx context.Context, req any) (any, error) {
			scope, ok := ScopeFromContext(ctx)
			if !ok || !scope.Audits(next.Name()) {
				return next.Handle(ctx, req)
			}

			ec := execctx.FromContext(ctx)
			rec := scope.Recorder()
			rec.AddChild(audit.NewDocument(audit.TypeRequest, next.Name(), req), ec)

			res, err := next.Handle(ctx, req)
			if err != nil {
				rec.AddChild(audit.NewDocument(audit.TypeExceptionInfo, next.Name(), audit.NewExceptionInfo(err)), ec)
				return nil, err
			}

			rec.AddChild(audit.NewDocument(audit.TypeResponse, next.Name(), res), ec)
			return res, nil
		})
	}
}

// LoggingMiddleware logs the serialized request and response around the inner
// stage. It never alters the flow.
func LoggingMiddleware(log *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return wrap(next, func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			name := next.Name()

			log.DebugContext(ctx, "request started",
				slog.String("request", name),
				slog.String("body", marshalForLog(req)))

			res, err := next.Handle(ctx, req)
			if err != nil {
				log.ErrorContext(ctx, "request failed",
					slog.String("request", name),
					logger.Duration(time.Since(start)),
					logger.Error(err))
				return res, err
			}

			log.DebugContext(ctx, "request completed",
				slog.String("request", name),
				logger.Duration(time.Since(start)),
				slog.String("response", marshalForLog(res)))

			return res, nil
		})
	}
}

// TransactionMiddleware opens a transaction unless one is already open for the
// context, flushes and commits on success, and rolls back on any failure.
// A nil store makes it a pass-through.
func TransactionMiddleware(st store.Store, log *slog.Logger) Middleware {
	return func(next Handler) Handler {
		if st == nil {
			return next
		}

		return wrap(next, func(ctx context.Context, req any) (any, error) {
			if _, open := st.CurrentTransaction(ctx); open {
				return next.Handle(ctx, req)
			}

			txCtx, err := st.Begin(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to begin transaction: %w", err)
			}

			rollback := func() {
				if rerr := st.Rollback(txCtx); rerr != nil && !errors.Is(rerr, store.ErrTransactionDone) && !errors.Is(rerr, store.ErrNoTransaction) {
					log.ErrorContext(ctx, "failed to rollback transaction",
						slog.String("request", next.Name()),
						logger.Error(rerr))
				}
			}

			res, err := next.Handle(txCtx, req)
			if err != nil {
				rollback()
				return nil, err
			}

			if err := st.Flush(txCtx); err != nil {
				rollback()
				var verr *store.ValidationError
				if errors.As(err, &verr) {
					return nil, &ValidationFailedError{Violations: verr.Violations}
				}
				return nil, fmt.Errorf("failed to flush changes: %w", err)
			}

			if err := st.Commit(txCtx); err != nil {
				rollback()
				return nil, fmt.Errorf("failed to commit transaction: %w", err)
			}

			return res, nil
		})
	}
}

// recoverMiddleware converts handler panics into errors so that outer stages
// observe them as failures.
func recoverMiddleware() Middleware {
	return func(next Handler) Handler {
		return wrap(next, func(ctx context.Context, req any) (any, error) {
			return safeHandle(next, ctx, req)
		})
	}
}

func marshalForLog(v any) string {
	if v == nil {
		return "null"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
