package runner_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/commander/core/audit"
	"github.com/dmitrymomot/commander/core/command"
	"github.com/dmitrymomot/commander/core/execctx"
	"github.com/dmitrymomot/commander/core/queue"
	"github.com/dmitrymomot/commander/core/runner"
)

type Ping struct {
	Name string
}

type Alert struct {
	Message string
}

type seen struct {
	name     string
	username string
	roles    []string
}

type recorder struct {
	mu    sync.Mutex
	calls []seen
	after func(n int)
}

func (r *recorder) record(ctx context.Context, name string) {
	ec := execctx.FromContext(ctx)

	r.mu.Lock()
	r.calls = append(r.calls, seen{name: name, username: ec.Username(), roles: ec.Roles()})
	n := len(r.calls)
	after := r.after
	r.mu.Unlock()

	if after != nil {
		after(n)
	}
}

func (r *recorder) snapshot() []seen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]seen(nil), r.calls...)
}

func newBus(t *testing.T, rec *recorder, audits *audit.MemoryStore) *command.Bus {
	t.Helper()

	reg := command.NewRegistry()
	reg.MustRegister(command.NewCommandHandlerFunc(func(ctx context.Context, p Ping) error {
		rec.record(ctx, p.Name)
		return nil
	}), command.Authorize())
	reg.MustRegister(command.NewCommandHandlerFunc(func(ctx context.Context, a Alert) error {
		return errors.New("pager unavailable")
	}), command.AllowAnonymous())

	opts := []command.Option{}
	if audits != nil {
		opts = append(opts, command.WithAuditor(audit.New(audits)))
	}
	return command.MustNewBus(reg, opts...)
}

func TestNewQueueConsumer(t *testing.T) {
	t.Parallel()

	bus := newBus(t, &recorder{}, nil)

	_, err := runner.NewQueueConsumer(nil, queue.NewMemoryStorage())
	assert.ErrorIs(t, err, runner.ErrBusNil)

	_, err = runner.NewQueueConsumer(bus, nil)
	assert.ErrorIs(t, err, queue.ErrQueueNil)
}

func TestQueueConsumer_DispatchesWithEnqueuedIdentity(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	audits := audit.NewMemoryStore()
	bus := newBus(t, rec, audits)

	ms := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(ms)
	require.NoError(t, err)

	ctx := execctx.WithContext(context.Background(), execctx.New("alice", "Editor"))
	item, err := enq.Enqueue(ctx, Ping{Name: "deferred"})
	require.NoError(t, err)

	consumer, err := runner.NewQueueConsumer(bus, ms)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Consume(runCtx) }()

	require.Eventually(t, func() bool { return consumer.Stats().Processed == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "deferred", calls[0].name)
	assert.Equal(t, "alice", calls[0].username)
	assert.Equal(t, []string{"Editor"}, calls[0].roles)

	stored, err := ms.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusCompleted, stored.Status)

	docs := audits.Documents()
	require.Len(t, docs, 1)
	require.NotEmpty(t, docs[0].Children)
	assert.Equal(t, "alice", docs[0].Children[0].Context.Username)
}

func TestQueueConsumer_FailedItem(t *testing.T) {
	t.Parallel()

	bus := newBus(t, &recorder{}, nil)
	ms := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(ms)
	require.NoError(t, err)

	item, err := enq.Enqueue(context.Background(), Alert{Message: "disk full"})
	require.NoError(t, err)

	consumer, err := runner.NewQueueConsumer(bus, ms)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Consume(ctx) }()

	require.Eventually(t, func() bool { return consumer.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)

	stored, err := ms.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Contains(t, *stored.Error, "pager unavailable")
}

func TestQueueConsumer_UnauthorizedItemFails(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	bus := newBus(t, rec, nil)
	ms := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(ms)
	require.NoError(t, err)

	item, err := enq.Enqueue(context.Background(), Ping{Name: "anonymous"})
	require.NoError(t, err)

	consumer, err := runner.NewQueueConsumer(bus, ms)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Consume(ctx) }()

	require.Eventually(t, func() bool { return consumer.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.snapshot())

	stored, err := ms.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusFailed, stored.Status)
}

func TestQueueConsumer_StopLeavesRemainingItemsPending(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{after: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	bus := newBus(t, rec, nil)

	ms := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(ms)
	require.NoError(t, err)

	admin := execctx.WithContext(context.Background(), execctx.System("Admin"))
	var ids []uuid.UUID
	for _, name := range []string{"first", "second", "third"} {
		item, err := enq.Enqueue(admin, Ping{Name: name})
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}

	consumer, err := runner.NewQueueConsumer(bus, ms)
	require.NoError(t, err)
	require.NoError(t, consumer.Consume(ctx))

	calls := rec.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].name)
	assert.Equal(t, "second", calls[1].name)

	for _, id := range ids[:2] {
		stored, err := ms.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, queue.StatusCompleted, stored.Status)
	}
	third, err := ms.Get(context.Background(), ids[2])
	require.NoError(t, err)
	assert.Equal(t, queue.StatusPending, third.Status)

	rec.after = nil
	next, err := runner.NewQueueConsumer(bus, ms)
	require.NoError(t, err)

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	go func() { _ = next.Consume(ctx2) }()

	require.Eventually(t, func() bool { return next.Stats().Processed == 1 }, time.Second, 5*time.Millisecond)
	calls = rec.snapshot()
	require.Len(t, calls, 3)
	assert.Equal(t, "third", calls[2].name)
	assert.Equal(t, "Admin", calls[2].username)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, item *queue.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockQueue) Dequeue(ctx context.Context) (*queue.Item, error) {
	args := m.Called(ctx)
	item, _ := args.Get(0).(*queue.Item)
	return item, args.Error(1)
}

func (m *mockQueue) Complete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockQueue) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

func TestQueueConsumer_RetriesAfterDequeueError(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	bus := newBus(t, rec, nil)

	item := &queue.Item{
		ID:      uuid.New(),
		Queue:   queue.DefaultQueueName,
		Command: command.RequestName(Ping{}),
		Payload: []byte(`{"Name":"after-outage"}`),
		Context: execctx.System("Admin").Snapshot(),
		Status:  queue.StatusProcessing,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := &mockQueue{}
	q.On("Dequeue", mock.Anything).Return(nil, errors.New("connection refused")).Once()
	q.On("Dequeue", mock.Anything).Return(item, nil).Once()
	q.On("Dequeue", mock.Anything).Return(nil, context.Canceled).Run(func(mock.Arguments) { cancel() })
	q.On("Complete", mock.Anything, item.ID).Return(nil).Once()

	consumer, err := runner.NewQueueConsumer(bus, q, runner.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, consumer.Consume(ctx))

	q.AssertExpectations(t)
	assert.Equal(t, int64(1), consumer.Stats().Processed)
	require.Len(t, rec.snapshot(), 1)
	assert.Equal(t, "after-outage", rec.snapshot()[0].name)
}

func TestSendAs(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	bus := newBus(t, rec, nil)

	task := runner.SendAs(bus, execctx.System("Admin"), func() any {
		return Ping{Name: "Schedule"}
	})
	require.NoError(t, task(context.Background()))

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "Admin", calls[0].username)

	failing := runner.SendAs(bus, execctx.Anonymous(), func() any {
		return Alert{Message: "x"}
	})
	err := failing(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pager unavailable")
}
