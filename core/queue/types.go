package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/commander/core/execctx"
)

// DefaultQueueName is the default queue name used when no queue is specified
const DefaultQueueName = "default"

// ItemStatus tracks the lifecycle state of an item through the queue.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusProcessing ItemStatus = "processing"
	StatusCompleted  ItemStatus = "completed"
	StatusFailed     ItemStatus = "failed"
)

// Item is a deferred request waiting to be dispatched by the queue consumer.
// Context is the execution context of the caller that enqueued it.
type Item struct {
	ID          uuid.UUID        `json:"id" bson:"_id"`
	Queue       string           `json:"queue" bson:"queue"`
	Command     string           `json:"command" bson:"command"`
	Payload     json.RawMessage  `json:"payload,omitempty" bson:"payload,omitempty"`
	Context     execctx.Snapshot `json:"context" bson:"context"`
	Status      ItemStatus       `json:"status" bson:"status"`
	Error       *string          `json:"error,omitempty" bson:"error,omitempty"`
	EnqueuedAt  time.Time        `json:"enqueued_at" bson:"enqueued_at"`
	LockedUntil *time.Time       `json:"locked_until,omitempty" bson:"locked_until,omitempty"`
	ProcessedAt *time.Time       `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
}

// ExecContext restores the execution context the item was enqueued with.
func (i *Item) ExecContext() execctx.Context {
	return i.Context.Restore()
}

func (i *Item) clone() *Item {
	c := *i
	if i.Payload != nil {
		c.Payload = append(json.RawMessage(nil), i.Payload...)
	}
	c.Context.Roles = append([]string(nil), i.Context.Roles...)
	return &c
}
