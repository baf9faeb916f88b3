package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/commander/core/audit"
	"github.com/dmitrymomot/commander/core/execctx"
	"github.com/dmitrymomot/commander/core/logger"
	"github.com/dmitrymomot/commander/core/store"
	"github.com/dmitrymomot/commander/pkg/async"
)

// Bus routes requests to their handlers through the fixed decorator chain
// Authorization, Audit, Logging, Transaction. It also fans notifications out
// to listeners.
//
// Example:
//
//	reg := command.NewRegistry()
//	reg.MustRegister(command.NewHandlerFunc(ping), command.AllowAnonymous())
//
//	bus, err := command.NewBus(reg,
//	    command.WithLogger(logger),
//	    command.WithStore(pgStore),
//	    command.WithAuditor(auditor),
//	)
//	if err != nil {
//	    return err
//	}
//	res, err := bus.Send(ctx, Ping{Name: "web"})
type Bus struct {
	registry      *Registry
	store         store.Store
	auditor       *audit.Auditor
	logger        *slog.Logger
	strictPublish bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger for the bus and its decorators.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithStore sets the transactional store driven by the transaction stage.
// Without a store the transaction stage passes through.
func WithStore(st store.Store) Option {
	return func(b *Bus) {
		b.store = st
	}
}

// WithAuditor sets the auditor used by scopes opened through the bus.
func WithAuditor(auditor *audit.Auditor) Option {
	return func(b *Bus) {
		b.auditor = auditor
	}
}

// WithStrictPublish makes Publish return the joined listener errors after all
// listeners ran. By default listener failures are only logged.
func WithStrictPublish() Option {
	return func(b *Bus) {
		b.strictPublish = true
	}
}

// NewBus verifies reg, then creates a bus over it and freezes the registry.
// A request type without a declared policy fails here, before any dispatch.
func NewBus(reg *Registry, opts ...Option) (*Bus, error) {
	if err := reg.Verify(); err != nil {
		return nil, err
	}

	b := &Bus{
		registry: reg,
		auditor:  audit.Disabled(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(b)
	}

	reg.Freeze()

	return b, nil
}

// MustNewBus is like NewBus but panics on error.
func MustNewBus(reg *Registry, opts ...Option) *Bus {
	b, err := NewBus(reg, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// Registry returns the bus registry.
func (b *Bus) Registry() *Registry {
	return b.registry
}

// NewScope opens a dispatch scope for ec using the bus auditor.
func (b *Bus) NewScope(ctx context.Context, ec execctx.Context) (context.Context, *Scope) {
	return NewScope(ctx, ec, b.auditor)
}

// NewRequestScope decodes token and opens a dispatch scope using the bus auditor.
func (b *Bus) NewRequestScope(ctx context.Context, decoder TokenDecoder, token string) (context.Context, *Scope) {
	return NewRequestScope(ctx, decoder, token, b.auditor)
}

// Send dispatches req to its handler and returns the handler result.
// Async handlers are awaited. Handler errors are returned unchanged.
func (b *Bus) Send(ctx context.Context, req any) (any, error) {
	name := RequestName(req)

	handler, policy, err := b.registry.resolve(name)
	if err != nil {
		b.logger.ErrorContext(ctx, "request cannot be dispatched",
			slog.String("request", name),
			logger.Error(err))
		return nil, err
	}

	ctx = WithRequestName(ctx, name)
	ctx = WithStartProcessingTime(ctx, time.Now())

	chain := chainMiddleware(handler, b.pipeline(policy))
	return chain.Handle(ctx, req)
}

// SendAsync runs Send on its own goroutine.
func (b *Bus) SendAsync(ctx context.Context, req any) *async.Future[any] {
	return async.Async(ctx, req, b.Send)
}

// pipeline returns the decorators for one dispatch, outermost first.
func (b *Bus) pipeline(policy Policy) []Middleware {
	return []Middleware{
		AuthorizationMiddleware(policy, b.logger),
		AuditMiddleware(),
		LoggingMiddleware(b.logger),
		TransactionMiddleware(b.store, b.logger),
		recoverMiddleware(),
	}
}

// Publish delivers notification to every listener of its type. Every
// listener runs even if others fail; failures and panics are logged. With
// WithStrictPublish the joined failures are returned.
func (b *Bus) Publish(ctx context.Context, notification any) error {
	name := RequestName(notification)
	listeners := b.registry.listenersOf(name)

	if len(listeners) == 0 {
		b.logger.DebugContext(ctx, "notification has no listeners",
			slog.String("notification", name))
		return nil
	}

	var errs []error
	for _, l := range listeners {
		if err := safeNotify(l, ctx, notification); err != nil {
			b.logger.ErrorContext(ctx, "notification listener failed",
				slog.String("notification", name),
				logger.Type(fmt.Sprintf("%T", l)),
				logger.Error(err))
			errs = append(errs, err)
		}
	}

	if b.strictPublish {
		return errors.Join(errs...)
	}
	return nil
}

// Send dispatches req through bus and asserts the result type.
// A nil result yields the zero value of R.
func Send[R any](ctx context.Context, bus *Bus, req any) (R, error) {
	var zero R

	res, err := bus.Send(ctx, req)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}

	r, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrUnexpectedResult, RequestName(req), res)
	}
	return r, nil
}
