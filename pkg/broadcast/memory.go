package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster fans messages out to in-process subscribers. Delivery
// never blocks: a subscriber whose buffer is full misses the message.
type MemoryBroadcaster[T any] struct {
	mu          sync.RWMutex
	subscribers map[*memorySubscriber[T]]struct{}
	bufferSize  int
	closed      bool
}

// NewMemoryBroadcaster creates a broadcaster giving each subscriber a buffer
// of bufferSize messages.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &MemoryBroadcaster[T]{
		subscribers: make(map[*memorySubscriber[T]]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a subscriber that is removed when ctx is done or the
// subscriber is closed. Subscribing to a closed broadcaster returns a closed
// subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	s := &memorySubscriber[T]{
		ch:     make(chan Message[T], b.bufferSize),
		done:   make(chan struct{}),
		parent: b,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.closeChannels()
		return s
	}
	b.subscribers[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	return s
}

// Broadcast delivers msg to every subscriber with buffer space.
// Broadcasting on a closed broadcaster is a no-op.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	for s := range b.subscribers {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case s.ch <- msg:
		default:
		}
	}
	return nil
}

// Count returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber. Later calls do nothing.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subscribers
	b.subscribers = make(map[*memorySubscriber[T]]struct{})
	b.mu.Unlock()

	for s := range subs {
		s.closeChannels()
	}
	return nil
}

func (b *MemoryBroadcaster[T]) remove(s *memorySubscriber[T]) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[s]; !ok {
		return false
	}
	delete(b.subscribers, s)
	return true
}

type memorySubscriber[T any] struct {
	ch     chan Message[T]
	done   chan struct{}
	once   sync.Once
	parent *MemoryBroadcaster[T]
}

// Receive returns the message channel. It is closed when the subscriber is
// closed. ctx is accepted for interface compatibility with network backends.
func (s *memorySubscriber[T]) Receive(_ context.Context) <-chan Message[T] {
	return s.ch
}

func (s *memorySubscriber[T]) Close() error {
	// Removal under the broadcaster lock guarantees no Broadcast is sending
	// on s.ch when it gets closed.
	if s.parent.remove(s) {
		s.closeChannels()
	}
	return nil
}

func (s *memorySubscriber[T]) closeChannels() {
	s.once.Do(func() {
		close(s.done)
		close(s.ch)
	})
}
