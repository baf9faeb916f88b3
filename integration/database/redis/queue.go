package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/commander/core/logger"
	"github.com/dmitrymomot/commander/core/queue"
)

const (
	defaultKeyPrefix   = "commander"
	defaultPollTimeout = time.Second
	defaultRetention   = 24 * time.Hour
)

var _ queue.Queue = (*Queue)(nil)

// Queue implements queue.Queue on Redis lists. Dequeued item IDs move
// atomically from the pending list to the processing list, so items held by a
// consumer that died are not lost and can be returned with Recover.
type Queue struct {
	client      redis.Cmdable
	keys        keys
	pollTimeout time.Duration
	retention   time.Duration
	logger      *slog.Logger
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithKeyPrefix sets the prefix of every key the queue writes.
func WithKeyPrefix(prefix string) QueueOption {
	return func(q *Queue) {
		if prefix != "" {
			q.keys.prefix = prefix
		}
	}
}

// WithQueueName selects the queue lists.
func WithQueueName(name string) QueueOption {
	return func(q *Queue) {
		if name != "" {
			q.keys.queue = name
		}
	}
}

// WithPollTimeout sets how long a single blocking pop waits before the
// context is checked again.
func WithPollTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.pollTimeout = d
		}
	}
}

// WithRetention sets how long completed items are kept.
func WithRetention(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.retention = d
		}
	}
}

// WithQueueLogger sets the queue logger.
func WithQueueLogger(l *slog.Logger) QueueOption {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// NewQueue creates a queue over client. The caller owns the client.
func NewQueue(client redis.Cmdable, opts ...QueueOption) *Queue {
	q := &Queue{
		client:      client,
		keys:        newKeys(defaultKeyPrefix, queue.DefaultQueueName),
		pollTimeout: defaultPollTimeout,
		retention:   defaultRetention,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// NewQueueFromConfig creates a Queue from configuration.
// Additional options override config values.
func NewQueueFromConfig(cfg Config, client redis.Cmdable, opts ...QueueOption) *Queue {
	allOpts := append([]QueueOption{
		WithKeyPrefix(cfg.KeyPrefix),
		WithQueueName(cfg.QueueName),
		WithPollTimeout(cfg.PollTimeout),
		WithRetention(cfg.Retention),
	}, opts...)
	return NewQueue(client, allOpts...)
}

// Enqueue stores the item and pushes its ID onto the pending list.
func (q *Queue) Enqueue(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return queue.ErrItemNil
	}

	c := *item
	c.Status = queue.StatusPending
	data, err := encodeItem(&c)
	if err != nil {
		return err
	}

	id := c.ID.String()
	ok, err := q.client.SetNX(ctx, q.keys.item(id), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis queue: store item: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", queue.ErrItemExists, id)
	}

	if err := q.client.LPush(ctx, q.keys.pending(), id).Err(); err != nil {
		q.client.Del(ctx, q.keys.item(id))
		return fmt.Errorf("redis queue: push item: %w", err)
	}
	return nil
}

// Dequeue blocks until an item is available or ctx is done.
//
// Once BLMOVE has moved an ID, the item is loaded and marked without regard to
// ctx, so a moved item is always returned. If ctx ends while BLMOVE is in
// flight the reply may be lost after the move; the processing list is then
// returned to pending, which is safe because the queue has a single consumer
// and it holds no other item while waiting here.
func (q *Queue) Dequeue(ctx context.Context) (*queue.Item, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := q.client.BLMove(ctx, q.keys.pending(), q.keys.processing(), "RIGHT", "LEFT", q.pollTimeout).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				if _, rerr := q.Recover(context.WithoutCancel(ctx)); rerr != nil {
					return nil, errors.Join(ctxErr, rerr)
				}
				return nil, ctxErr
			}
			return nil, fmt.Errorf("redis queue: dequeue: %w", err)
		}

		moved := context.WithoutCancel(ctx)
		item, err := q.load(moved, id)
		if errors.Is(err, queue.ErrItemNotFound) {
			q.logger.WarnContext(ctx, "dropping queue entry without item",
				logger.Component("redis_queue"),
				logger.ID("item_id", id))
			q.client.LRem(moved, q.keys.processing(), 1, id)
			continue
		}
		if err != nil {
			return nil, err
		}

		item.Status = queue.StatusProcessing
		if err := q.save(moved, item, 0); err != nil {
			return nil, err
		}
		return item, nil
	}
}

// Complete acknowledges a processed item. It is kept for the retention period.
func (q *Queue) Complete(ctx context.Context, id uuid.UUID) error {
	return q.finish(ctx, id, queue.StatusCompleted, nil)
}

// Fail records the failure reason and moves the item to the failed list.
func (q *Queue) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	return q.finish(ctx, id, queue.StatusFailed, &reason)
}

func (q *Queue) finish(ctx context.Context, id uuid.UUID, status queue.ItemStatus, reason *string) error {
	key := id.String()

	removed, err := q.client.LRem(ctx, q.keys.processing(), 1, key).Result()
	if err != nil {
		return fmt.Errorf("redis queue: acknowledge: %w", err)
	}

	item, err := q.load(ctx, key)
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", queue.ErrItemNotProcessing, key)
	}

	now := time.Now().UTC()
	item.Status = status
	item.Error = reason
	item.LockedUntil = nil
	item.ProcessedAt = &now

	ttl := q.retention
	if status == queue.StatusFailed {
		ttl = 0
		if err := q.client.LPush(ctx, q.keys.failed(), key).Err(); err != nil {
			return fmt.Errorf("redis queue: record failure: %w", err)
		}
	}
	return q.save(ctx, item, ttl)
}

// Recover returns items left in the processing list to the head of the
// pending list, oldest first. Call it before the consumer starts.
func (q *Queue) Recover(ctx context.Context) (int, error) {
	var n int
	for {
		id, err := q.client.LMove(ctx, q.keys.processing(), q.keys.pending(), "LEFT", "RIGHT").Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("redis queue: recover: %w", err)
		}
		n++

		item, err := q.load(ctx, id)
		if err != nil {
			continue
		}
		item.Status = queue.StatusPending
		item.LockedUntil = nil
		if err := q.save(ctx, item, 0); err != nil {
			return n, err
		}
	}

	if n > 0 {
		q.logger.InfoContext(ctx, "recovered unacknowledged queue items",
			logger.Component("redis_queue"),
			logger.Count("count", n))
	}
	return n, nil
}

// Get returns the stored item.
func (q *Queue) Get(ctx context.Context, id uuid.UUID) (*queue.Item, error) {
	return q.load(ctx, id.String())
}

// Len returns the number of pending items.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.keys.pending()).Result()
}

func (q *Queue) load(ctx context.Context, id string) (*queue.Item, error) {
	data, err := q.client.Get(ctx, q.keys.item(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", queue.ErrItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis queue: load item: %w", err)
	}
	return decodeItem(data)
}

func (q *Queue) save(ctx context.Context, item *queue.Item, ttl time.Duration) error {
	data, err := encodeItem(item)
	if err != nil {
		return err
	}
	if err := q.client.Set(ctx, q.keys.item(item.ID.String()), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis queue: save item: %w", err)
	}
	return nil
}

func encodeItem(item *queue.Item) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("redis queue: encode item: %w", err)
	}
	return data, nil
}

func decodeItem(data []byte) (*queue.Item, error) {
	var item queue.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("redis queue: decode item: %w", err)
	}
	return &item, nil
}
