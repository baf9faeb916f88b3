package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/commander/core/command"
	"github.com/dmitrymomot/commander/core/execctx"
)

// Enqueuer defers requests to the queue together with the caller's execution context.
type Enqueuer struct {
	queue        Queue
	defaultQueue string
	logger       *slog.Logger
}

// EnqueuerOption configures an Enqueuer.
type EnqueuerOption func(*Enqueuer)

// WithDefaultQueue sets the queue name stamped on items.
func WithDefaultQueue(name string) EnqueuerOption {
	return func(e *Enqueuer) {
		if name != "" {
			e.defaultQueue = name
		}
	}
}

// WithEnqueuerLogger configures structured logging for the enqueuer.
func WithEnqueuerLogger(logger *slog.Logger) EnqueuerOption {
	return func(e *Enqueuer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEnqueuer creates a new Enqueuer over q.
func NewEnqueuer(q Queue, opts ...EnqueuerOption) (*Enqueuer, error) {
	if q == nil {
		return nil, ErrQueueNil
	}

	e := &Enqueuer{
		queue:        q,
		defaultQueue: DefaultQueueName,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// NewEnqueuerFromConfig creates an Enqueuer from configuration.
// Additional options override config values.
func NewEnqueuerFromConfig(cfg Config, q Queue, opts ...EnqueuerOption) (*Enqueuer, error) {
	allOpts := append([]EnqueuerOption{WithDefaultQueue(cfg.DefaultQueue)}, opts...)
	return NewEnqueuer(q, allOpts...)
}

type enqueueOptions struct {
	name string
	ec   *execctx.Context
}

// EnqueueOption configures a single Enqueue call.
type EnqueueOption func(*enqueueOptions)

// WithCommandName overrides the request name derived from the payload type.
func WithCommandName(name string) EnqueueOption {
	return func(o *enqueueOptions) {
		o.name = name
	}
}

// WithExecContext replaces the execution context captured from ctx.
func WithExecContext(ec execctx.Context) EnqueueOption {
	return func(o *enqueueOptions) {
		o.ec = &ec
	}
}

// Enqueue serializes cmd and appends it to the queue. The execution context
// carried by ctx is persisted with the item so the consumer can replay the
// request on behalf of the same caller.
func (e *Enqueuer) Enqueue(ctx context.Context, cmd any, opts ...EnqueueOption) (*Item, error) {
	if cmd == nil {
		return nil, ErrPayloadNil
	}

	options := &enqueueOptions{}
	for _, opt := range opts {
		opt(options)
	}

	item, err := e.buildItem(ctx, cmd, options)
	if err != nil {
		return nil, err
	}

	if err := e.queue.Enqueue(ctx, item); err != nil {
		e.logger.ErrorContext(ctx, "failed to enqueue request",
			slog.String("command", item.Command),
			slog.String("item_id", item.ID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to enqueue %q in queue %q: %w", item.Command, item.Queue, err)
	}

	e.logger.DebugContext(ctx, "request enqueued",
		slog.String("command", item.Command),
		slog.String("item_id", item.ID.String()),
		slog.String("username", item.Context.Username))

	return item, nil
}

func (e *Enqueuer) buildItem(ctx context.Context, cmd any, options *enqueueOptions) (*Item, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload of type %T: %w", cmd, err)
	}

	name := options.name
	if name == "" {
		name = command.RequestName(cmd)
	}

	ec := execctx.FromContext(ctx)
	if options.ec != nil {
		ec = *options.ec
	}

	return &Item{
		ID:         uuid.New(),
		Queue:      e.defaultQueue,
		Command:    name,
		Payload:    payload,
		Context:    ec.Snapshot(),
		Status:     StatusPending,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}
