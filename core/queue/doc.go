// Package queue provides the durable queue of deferred requests.
//
// Handlers that need work done outside the current request enqueue the request
// value instead of dispatching it. The Enqueuer serializes the request to JSON
// and stores it as an Item together with a snapshot of the caller's execution
// context. The background runner's queue consumer later dequeues the item,
// restores that context, and dispatches the request through the bus.
//
// # Usage
//
//	storage := queue.NewMemoryStorage()
//	enqueuer, err := queue.NewEnqueuer(storage)
//	if err != nil {
//		return err
//	}
//
//	// Inside a handler: the caller identity travels with the item.
//	if _, err := enqueuer.Enqueue(ctx, SendEmail{To: "user@example.com"}); err != nil {
//		return err
//	}
//
// # Queue Contract
//
// A Queue has a single consumer. Dequeue blocks until an item is available or
// the context is done, and marks the returned item as processing. The consumer
// acknowledges it with Complete or records a failure with Fail. Items are
// delivered in FIFO order and at most once while locked.
//
// # Backends
//
// MemoryStorage keeps items in memory and is suited to tests and single-node
// development. Its lock expiration manager (Start/Stop/Run) returns items that
// stay unacknowledged past the lock timeout to the head of the queue.
//
// The Redis backend in integration/database/redis provides the same contract
// across process restarts.
//
// # Configuration
//
// Config is designed for environment variables:
//
//	QUEUE_DEFAULT_QUEUE=default
//	QUEUE_LOCK_TIMEOUT=5m
//	QUEUE_LOCK_CHECK_INTERVAL=1s
//	QUEUE_SHUTDOWN_TIMEOUT=30s
//
// # Error Handling
//
// ErrItemNotFound and ErrItemNotProcessing are returned by Complete and Fail
// for unknown or unlocked items. ErrQueueNil and ErrPayloadNil guard the
// Enqueuer.
package queue
