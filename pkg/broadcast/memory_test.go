package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/commander/pkg/broadcast"
)

func receive[T any](t *testing.T, ch <-chan broadcast.Message[T]) broadcast.Message[T] {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return broadcast.Message[T]{}
	}
}

func TestMemoryBroadcaster_FanOut(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[string](10)
	defer b.Close()

	ctx := context.Background()
	first := b.Subscribe(ctx)
	second := b.Subscribe(ctx)
	assert.Equal(t, 2, b.Count())

	require.NoError(t, b.Broadcast(ctx, broadcast.Message[string]{Data: "contact saved"}))

	assert.Equal(t, "contact saved", receive(t, first.Receive(ctx)).Data)
	assert.Equal(t, "contact saved", receive(t, second.Receive(ctx)).Data)
}

func TestMemoryBroadcaster_SlowSubscriberDropsMessages(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](1)
	defer b.Close()

	ctx := context.Background()
	sub := b.Subscribe(ctx)

	for i := range 3 {
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: i}))
	}

	assert.Equal(t, 0, receive(t, sub.Receive(ctx)).Data)
	select {
	case msg := <-sub.Receive(ctx):
		t.Fatalf("unexpected message %d", msg.Data)
	default:
	}
}

func TestMemoryBroadcaster_ContextCancellationUnsubscribes(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[string](1)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx)
	require.Equal(t, 1, b.Count())

	cancel()
	require.Eventually(t, func() bool { return b.Count() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-sub.Receive(context.Background())
	assert.False(t, ok)
}

func TestMemoryBroadcaster_Close(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[string](1)
	sub := b.Subscribe(context.Background())

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, ok := <-sub.Receive(context.Background())
	assert.False(t, ok)
	assert.NoError(t, sub.Close())
	assert.NoError(t, b.Broadcast(context.Background(), broadcast.Message[string]{Data: "late"}))

	late := b.Subscribe(context.Background())
	_, ok = <-late.Receive(context.Background())
	assert.False(t, ok)
	assert.Zero(t, b.Count())
}

func TestMemoryBroadcaster_ConcurrentUse(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](100)
	defer b.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := b.Subscribe(ctx)
			_ = sub.Close()
		}()
		go func() {
			defer wg.Done()
			_ = b.Broadcast(ctx, broadcast.Message[int]{Data: 1})
		}()
	}
	wg.Wait()
	assert.Zero(t, b.Count())
}
