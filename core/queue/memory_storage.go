package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// MemoryStorageStats provides observability metrics for monitoring and debugging
type MemoryStorageStats struct {
	Pending           int   // Items waiting to be dequeued
	Processing        int   // Items dequeued and not yet acknowledged
	Completed         int   // Items acknowledged as processed
	Failed            int   // Items that failed processing
	ExpiredLocksFreed int64 // Total number of expired locks returned to pending
	IsRunning         bool  // Whether the lock expiration manager is running
}

// MemoryStorage implements Queue in memory for testing and local development.
// Dequeued items that are not acknowledged within the lock timeout are
// returned to the head of the queue by the lock expiration manager.
type MemoryStorage struct {
	mu      sync.RWMutex
	items   map[uuid.UUID]*Item
	pending []uuid.UUID
	wake    chan struct{}

	// Configuration
	lockTimeout       time.Duration
	lockCheckInterval time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger

	// State management
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	// Observability metrics
	expiredLocksFreed atomic.Int64
}

// MemoryStorageOption configures a MemoryStorage.
type MemoryStorageOption func(*MemoryStorage)

// WithLockTimeout sets how long a dequeued item stays locked before it is
// returned to the queue.
func WithLockTimeout(timeout time.Duration) MemoryStorageOption {
	return func(ms *MemoryStorage) {
		if timeout > 0 {
			ms.lockTimeout = timeout
		}
	}
}

// WithLockCheckInterval sets the interval for checking expired locks.
func WithLockCheckInterval(interval time.Duration) MemoryStorageOption {
	return func(ms *MemoryStorage) {
		if interval > 0 {
			ms.lockCheckInterval = interval
		}
	}
}

// WithMemoryStorageShutdownTimeout sets the graceful shutdown timeout.
func WithMemoryStorageShutdownTimeout(timeout time.Duration) MemoryStorageOption {
	return func(ms *MemoryStorage) {
		if timeout > 0 {
			ms.shutdownTimeout = timeout
		}
	}
}

// WithMemoryStorageLogger sets the logger for internal operations.
func WithMemoryStorageLogger(logger *slog.Logger) MemoryStorageOption {
	return func(ms *MemoryStorage) {
		if logger != nil {
			ms.logger = logger
		}
	}
}

// NewMemoryStorage creates a new in-memory queue.
// Call Start() to begin the lock expiration manager.
func NewMemoryStorage(opts ...MemoryStorageOption) *MemoryStorage {
	ms := &MemoryStorage{
		items:             make(map[uuid.UUID]*Item),
		wake:              make(chan struct{}),
		lockTimeout:       5 * time.Minute,
		lockCheckInterval: time.Second,
		shutdownTimeout:   30 * time.Second,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(ms)
	}

	return ms
}

// NewMemoryStorageFromConfig creates a MemoryStorage from configuration.
// Additional options override config values.
func NewMemoryStorageFromConfig(cfg Config, opts ...MemoryStorageOption) *MemoryStorage {
	allOpts := append([]MemoryStorageOption{
		WithLockTimeout(cfg.LockTimeout),
		WithLockCheckInterval(cfg.LockCheckInterval),
		WithMemoryStorageShutdownTimeout(cfg.ShutdownTimeout),
	}, opts...)

	return NewMemoryStorage(allOpts...)
}

// Enqueue stores a copy of item at the tail of the queue.
func (ms *MemoryStorage) Enqueue(ctx context.Context, item *Item) error {
	if item == nil {
		return ErrItemNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.items[item.ID]; exists {
		return fmt.Errorf("%w: %s", ErrItemExists, item.ID)
	}

	c := item.clone()
	c.Status = StatusPending
	ms.items[c.ID] = c
	ms.pending = append(ms.pending, c.ID)
	ms.signal()

	return nil
}

// Dequeue blocks until an item is available or ctx is done.
func (ms *MemoryStorage) Dequeue(ctx context.Context) (*Item, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ms.mu.Lock()
		if len(ms.pending) > 0 {
			id := ms.pending[0]
			ms.pending = ms.pending[1:]

			item := ms.items[id]
			lockedUntil := time.Now().Add(ms.lockTimeout)
			item.Status = StatusProcessing
			item.LockedUntil = &lockedUntil

			out := item.clone()
			ms.mu.Unlock()
			return out, nil
		}
		wake := ms.wake
		ms.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wake:
		}
	}
}

// Complete acknowledges a processed item.
func (ms *MemoryStorage) Complete(ctx context.Context, id uuid.UUID) error {
	return ms.finish(id, StatusCompleted, nil)
}

// Fail records a processing failure. Failed items are not retried.
func (ms *MemoryStorage) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	return ms.finish(id, StatusFailed, &reason)
}

func (ms *MemoryStorage) finish(id uuid.UUID, status ItemStatus, reason *string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, exists := ms.items[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if item.Status != StatusProcessing {
		return fmt.Errorf("%w: %s", ErrItemNotProcessing, id)
	}

	now := time.Now().UTC()
	item.Status = status
	item.Error = reason
	item.LockedUntil = nil
	item.ProcessedAt = &now

	return nil
}

// Get returns a copy of the item with the given ID.
func (ms *MemoryStorage) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, exists := ms.items[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item.clone(), nil
}

// Len returns the number of pending items.
func (ms *MemoryStorage) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.pending)
}

// signal wakes every blocked Dequeue. Caller must hold ms.mu.
func (ms *MemoryStorage) signal() {
	close(ms.wake)
	ms.wake = make(chan struct{})
}

// Start begins the lock expiration manager. This is a blocking operation
// that runs until the context is cancelled. Use Run() for errgroup pattern or call this in a goroutine.
func (ms *MemoryStorage) Start(ctx context.Context) error {
	ms.mu.Lock()
	if ms.cancel != nil {
		ms.mu.Unlock()
		return ErrStorageAlreadyStarted
	}

	ms.ctx, ms.cancel = context.WithCancel(ctx)
	runCtx := ms.ctx
	ms.mu.Unlock()

	ms.running.Store(true)
	defer func() {
		ms.running.Store(false)
		ms.mu.Lock()
		ms.cancel = nil
		ms.mu.Unlock()
	}()

	ms.logger.InfoContext(runCtx, "memory queue lock expiration manager started",
		slog.Duration("check_interval", ms.lockCheckInterval),
		slog.Duration("lock_timeout", ms.lockTimeout))

	ticker := time.NewTicker(ms.lockCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			ms.logger.InfoContext(context.Background(), "memory queue stopping")
			return runCtx.Err()
		case <-ticker.C:
			ms.expireLocksWithWait()
		}
	}
}

// Stop gracefully shuts down the lock expiration manager with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (ms *MemoryStorage) Stop() error {
	ms.mu.Lock()
	if ms.cancel == nil {
		ms.mu.Unlock()
		return ErrStorageNotStarted
	}

	cancel := ms.cancel
	ms.cancel = nil
	ms.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), ms.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		ms.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ms.logger.InfoContext(context.Background(), "memory queue stopped cleanly")
		return nil
	case <-ctx.Done():
		ms.logger.WarnContext(context.Background(), "memory queue shutdown timeout exceeded",
			slog.Duration("timeout", ms.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", ms.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the lock expiration manager, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (ms *MemoryStorage) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- ms.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = ms.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// expireLocksWithWait wraps expireLocks with WaitGroup tracking for graceful shutdown.
func (ms *MemoryStorage) expireLocksWithWait() {
	ms.mu.RLock()
	if ms.cancel == nil {
		ms.mu.RUnlock()
		return
	}
	ms.wg.Add(1)
	ms.mu.RUnlock()

	defer ms.wg.Done()
	ms.expireLocks(time.Now())
}

// expireLocks returns items whose lock expired to the head of the queue,
// preserving their original order.
func (ms *MemoryStorage) expireLocks(now time.Time) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var expired []*Item
	for _, item := range ms.items {
		if item.Status == StatusProcessing && item.LockedUntil != nil && item.LockedUntil.Before(now) {
			expired = append(expired, item)
		}
	}
	if len(expired) == 0 {
		return
	}

	slices.SortFunc(expired, func(a, b *Item) int {
		return a.EnqueuedAt.Compare(b.EnqueuedAt)
	})

	ids := make([]uuid.UUID, len(expired))
	for i, item := range expired {
		item.Status = StatusPending
		item.LockedUntil = nil
		ids[i] = item.ID
	}
	ms.pending = append(ids, ms.pending...)
	ms.expiredLocksFreed.Add(int64(len(expired)))
	ms.signal()

	ms.logger.WarnContext(context.Background(), "returned items with expired locks to queue",
		slog.Int("count", len(expired)))
}

// Stats returns current memory storage statistics for observability and monitoring.
// This method is thread-safe and can be called at any time.
func (ms *MemoryStorage) Stats() MemoryStorageStats {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stats := MemoryStorageStats{
		ExpiredLocksFreed: ms.expiredLocksFreed.Load(),
		IsRunning:         ms.cancel != nil,
	}
	for _, item := range ms.items {
		switch item.Status {
		case StatusPending:
			stats.Pending++
		case StatusProcessing:
			stats.Processing++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// Healthcheck validates that the lock expiration manager is running.
// This method is thread-safe and suitable for use in health check endpoints.
func (ms *MemoryStorage) Healthcheck(ctx context.Context) error {
	if !ms.Stats().IsRunning {
		return errors.Join(ErrHealthcheckFailed, ErrStorageNotStarted)
	}
	return nil
}
