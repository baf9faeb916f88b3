package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/commander/core/command"
	"github.com/dmitrymomot/commander/core/execctx"
	"github.com/dmitrymomot/commander/core/logger"
	"github.com/dmitrymomot/commander/core/queue"
)

// QueueConsumer drains a queue, replaying each item through the bus under
// the execution context it was enqueued with. Items are processed one at a
// time in dequeue order.
type QueueConsumer struct {
	bus        *command.Bus
	queue      queue.Queue
	retryDelay time.Duration
	logger     *slog.Logger

	processed atomic.Int64
	failed    atomic.Int64
}

// ConsumerStats provides observability metrics for the queue consumer.
type ConsumerStats struct {
	Processed int64
	Failed    int64
}

// ConsumerOption configures a QueueConsumer.
type ConsumerOption func(*QueueConsumer)

// WithConsumerLogger configures structured logging for the consumer.
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *QueueConsumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetryDelay sets the pause after a failed dequeue.
func WithRetryDelay(d time.Duration) ConsumerOption {
	return func(c *QueueConsumer) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// NewQueueConsumer creates a consumer dispatching items from q through bus.
func NewQueueConsumer(bus *command.Bus, q queue.Queue, opts ...ConsumerOption) (*QueueConsumer, error) {
	if bus == nil {
		return nil, ErrBusNil
	}
	if q == nil {
		return nil, queue.ErrQueueNil
	}

	c := &QueueConsumer{
		bus:        bus,
		queue:      q,
		retryDelay: time.Second,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Consume blocks dequeuing and dispatching items until ctx is cancelled.
// It has the TaskFunc signature so it can be passed to Runner.RunConsumer.
func (c *QueueConsumer) Consume(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		item, err := c.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.ErrorContext(ctx, "failed to dequeue item",
				logger.Component("queue_consumer"),
				logger.Error(err))

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}

		// An item already dequeued is finished even if shutdown begins.
		c.process(context.WithoutCancel(ctx), item)
	}
}

// Stats returns the consumer counters.
func (c *QueueConsumer) Stats() ConsumerStats {
	return ConsumerStats{
		Processed: c.processed.Load(),
		Failed:    c.failed.Load(),
	}
}

func (c *QueueConsumer) process(ctx context.Context, item *queue.Item) {
	start := time.Now()
	err := c.dispatch(ctx, item)

	if err != nil {
		c.failed.Add(1)
		c.logger.ErrorContext(ctx, "queued request failed",
			logger.Component("queue_consumer"),
			slog.String("item_id", item.ID.String()),
			slog.String("command", item.Command),
			slog.String("username", item.Context.Username),
			logger.Duration(time.Since(start)),
			logger.Error(err))

		if ferr := c.queue.Fail(ctx, item.ID, err.Error()); ferr != nil {
			c.logger.ErrorContext(ctx, "failed to record item failure",
				slog.String("item_id", item.ID.String()),
				logger.Error(ferr))
		}
		return
	}

	c.processed.Add(1)
	if cerr := c.queue.Complete(ctx, item.ID); cerr != nil {
		c.logger.ErrorContext(ctx, "failed to acknowledge item",
			slog.String("item_id", item.ID.String()),
			logger.Error(cerr))
		return
	}

	c.logger.DebugContext(ctx, "queued request completed",
		slog.String("item_id", item.ID.String()),
		slog.String("command", item.Command),
		logger.Duration(time.Since(start)))
}

func (c *QueueConsumer) dispatch(ctx context.Context, item *queue.Item) (err error) {
	req, err := c.bus.Registry().Decode(item.Command, item.Payload)
	if err != nil {
		return err
	}

	ctx, scope := c.bus.NewScope(ctx, item.ExecContext())
	defer func() {
		if rerr := scope.Release(ctx); rerr != nil {
			c.logger.ErrorContext(ctx, "failed to release dispatch scope",
				slog.String("item_id", item.ID.String()),
				logger.Error(rerr))
		}
	}()

	_, err = c.bus.Send(ctx, req)
	return err
}

// SendAs returns a task body that opens a new scope for ec and dispatches
// the request built by factory on every invocation.
func SendAs(bus *command.Bus, ec execctx.Context, factory func() any) TaskFunc {
	return func(ctx context.Context) error {
		req := factory()

		ctx, scope := bus.NewScope(ctx, ec)
		_, err := bus.Send(ctx, req)
		if rerr := scope.Release(ctx); rerr != nil {
			err = errors.Join(err, rerr)
		}
		if err != nil {
			return fmt.Errorf("send %s: %w", command.RequestName(req), err)
		}
		return nil
	}
}
