package broadcast

import (
	"context"
	"errors"
)

var (
	// ErrBroadcasterClosed indicates the broadcaster no longer accepts work.
	ErrBroadcasterClosed = errors.New("broadcaster is closed")

	// ErrSubscriberClosed indicates the subscriber was closed.
	ErrSubscriberClosed = errors.New("subscriber is closed")
)

// Message wraps a broadcast payload.
type Message[T any] struct {
	Data T
}

// Broadcaster sends messages to every active subscriber.
type Broadcaster[T any] interface {
	Subscribe(ctx context.Context) Subscriber[T]
	Broadcast(ctx context.Context, msg Message[T]) error
	Close() error
}

// Subscriber receives broadcast messages.
type Subscriber[T any] interface {
	Receive(ctx context.Context) <-chan Message[T]
	Close() error
}
