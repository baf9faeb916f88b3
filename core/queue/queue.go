package queue

import (
	"context"

	"github.com/google/uuid"
)

// Queue is a durable FIFO of deferred requests with a single consumer.
// Implementations of this interface back both the Enqueuer and the runner's
// queue consumer.
type Queue interface {
	// Enqueue appends the item.
	Enqueue(ctx context.Context, item *Item) error

	// Dequeue blocks until an item is available or ctx is done, then marks it
	// processing and returns it.
	Dequeue(ctx context.Context) (*Item, error)

	// Complete acknowledges a processed item.
	Complete(ctx context.Context, id uuid.UUID) error

	// Fail records a processing failure for the item.
	Fail(ctx context.Context, id uuid.UUID, reason string) error
}
