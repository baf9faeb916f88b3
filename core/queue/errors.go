package queue

import "errors"

var (
	// ErrQueueNil is returned when a component is built without a queue.
	ErrQueueNil = errors.New("queue cannot be nil")

	// ErrPayloadNil is returned when enqueuing a nil request.
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrItemNil is returned when a nil item is stored.
	ErrItemNil = errors.New("item cannot be nil")

	// ErrItemExists is returned when an item with the same ID is already queued.
	ErrItemExists = errors.New("item already exists")

	// ErrItemNotFound is returned when an item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemNotProcessing is returned when acknowledging an item that is not being processed.
	ErrItemNotProcessing = errors.New("item is not in processing state")

	// ErrStorageAlreadyStarted is returned when starting an already running storage.
	ErrStorageAlreadyStarted = errors.New("memory storage already started")

	// ErrStorageNotStarted is returned when stopping a storage that was not started.
	ErrStorageNotStarted = errors.New("memory storage not started")

	// ErrHealthcheckFailed is returned when the storage health check fails.
	ErrHealthcheckFailed = errors.New("healthcheck failed")
)
