package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dmitrymomot/commander/core/logger"
	"github.com/dmitrymomot/commander/pkg/async"
)

// Runner executes background tasks: interval tasks, one-shot tasks, and
// long-lived consumers. Failures and panics escaping a task are logged and
// counted and never stop the runner or other tasks.
//
// Example:
//
//	r := runner.New(runner.WithLogger(logger))
//	r.ScheduleInterval("ping", 5*time.Second, runner.SendAs(bus, execctx.System("Admin"), func() any {
//	    return demo.Ping{Name: "Schedule"}
//	}))
//	r.RunConsumer("queue", consumer.Consume)
//
//	g.Go(r.Run(ctx))
type Runner struct {
	mu    sync.RWMutex
	tasks []*task
	names map[string]struct{}

	// Configuration
	disabled        bool
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// State management
	cancel  context.CancelFunc
	futures []*async.Future[struct{}]
}

// Stats provides observability metrics for monitoring and debugging
type Stats struct {
	IsRunning bool
	Disabled  bool
	Tasks     []TaskStats
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger configures structured logging for the runner.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for in-flight invocations.
func WithShutdownTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.shutdownTimeout = d
		}
	}
}

// WithDisabled turns the runner into a no-op that only waits for cancellation.
func WithDisabled(disabled bool) Option {
	return func(r *Runner) {
		r.disabled = disabled
	}
}

// New creates a runner with no tasks.
func New(opts ...Option) *Runner {
	r := &Runner{
		names:           make(map[string]struct{}),
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NewFromConfig creates a runner from configuration.
// Additional options override config values.
func NewFromConfig(cfg Config, opts ...Option) *Runner {
	allOpts := append([]Option{
		WithDisabled(cfg.Disabled),
		WithShutdownTimeout(cfg.ShutdownTimeout),
	}, opts...)

	return New(allOpts...)
}

// ScheduleInterval registers fn to run every period.
func (r *Runner) ScheduleInterval(name string, period time.Duration, fn TaskFunc, opts ...TaskOption) error {
	if period <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, name)
	}

	t := &task{name: name, kind: KindInterval, period: period, fn: fn}
	for _, opt := range opts {
		opt(t)
	}
	return r.add(t)
}

// ScheduleOnce registers fn to run once after delay.
func (r *Runner) ScheduleOnce(name string, delay time.Duration, fn TaskFunc) error {
	return r.add(&task{name: name, kind: KindOnce, delay: delay, fn: fn})
}

// RunConsumer registers a long-lived task. fn receives a context that is
// cancelled when the runner stops and is expected to return then.
func (r *Runner) RunConsumer(name string, fn TaskFunc) error {
	return r.add(&task{name: name, kind: KindConsumer, fn: fn})
}

func (r *Runner) add(t *task) error {
	if t.fn == nil {
		return fmt.Errorf("%w: %s", ErrTaskNil, t.name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return ErrRunnerAlreadyStarted
	}
	if _, exists := r.names[t.name]; exists {
		return fmt.Errorf("%w: %s", ErrTaskExists, t.name)
	}

	t.state = StateScheduled
	r.names[t.name] = struct{}{}
	r.tasks = append(r.tasks, t)

	r.logger.Info("registered background task",
		slog.String("task", t.name),
		slog.String("kind", string(t.kind)))

	return nil
}

// Start launches every task and blocks until ctx is cancelled or Stop is
// called. Use Run() for errgroup pattern or call this in a goroutine.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return ErrRunnerAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	if r.disabled {
		r.mu.Unlock()
		r.logger.InfoContext(runCtx, "background runner disabled")
		<-runCtx.Done()
		return runCtx.Err()
	}

	r.futures = make([]*async.Future[struct{}], 0, len(r.tasks))
	for _, t := range r.tasks {
		r.futures = append(r.futures, async.Async(runCtx, t, func(ctx context.Context, t *task) (struct{}, error) {
			return struct{}{}, r.loop(ctx, t)
		}))
	}
	count := len(r.tasks)
	r.mu.Unlock()

	r.logger.InfoContext(runCtx, "background runner started",
		logger.Count("tasks", count))

	<-runCtx.Done()
	return runCtx.Err()
}

// Stop cancels scheduling, unblocks consumers, and waits for in-flight
// invocations up to the shutdown timeout.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return ErrRunnerNotStarted
	}

	cancel := r.cancel
	futures := r.futures
	r.cancel = nil
	r.futures = nil
	r.mu.Unlock()

	cancel()

	r.logger.InfoContext(context.Background(), "background runner stopping, waiting for active tasks",
		slog.Duration("timeout", r.shutdownTimeout))

	done := async.Async(context.Background(), futures, func(_ context.Context, fs []*async.Future[struct{}]) ([]struct{}, error) {
		return async.WaitAll(fs...)
	})

	if _, err := done.AwaitWithTimeout(r.shutdownTimeout); errors.Is(err, async.ErrTimeout) {
		r.logger.WarnContext(context.Background(), "background runner shutdown timeout exceeded",
			slog.Duration("timeout", r.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", r.shutdownTimeout)
	}

	r.logger.InfoContext(context.Background(), "background runner stopped cleanly")
	return nil
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the runner, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (r *Runner) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- r.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			err := r.Stop()
			<-errCh
			if errors.Is(err, ErrRunnerNotStarted) {
				return nil
			}
			return err
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if serr := r.Stop(); serr != nil && !errors.Is(serr, ErrRunnerNotStarted) {
					return serr
				}
				return nil
			}
			return err
		}
	}
}

// Stats returns current runner statistics.
// This method is thread-safe and can be called at any time.
func (r *Runner) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		IsRunning: r.cancel != nil,
		Disabled:  r.disabled,
		Tasks:     make([]TaskStats, len(r.tasks)),
	}
	for i, t := range r.tasks {
		s.Tasks[i] = t.stats()
	}
	return s
}

// loop drives one task until ctx is cancelled.
func (r *Runner) loop(ctx context.Context, t *task) error {
	defer t.setState(StateTerminal)

	switch t.kind {
	case KindConsumer:
		r.invoke(ctx, t, ctx)

	case KindOnce:
		timer := time.NewTimer(t.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			r.invoke(ctx, t, context.WithoutCancel(ctx))
		}

	case KindInterval:
		if t.runNow {
			r.invoke(ctx, t, context.WithoutCancel(ctx))
			t.setState(StateScheduled)
		}

		ticker := time.NewTicker(t.period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if ctx.Err() != nil {
					return nil
				}
				r.invoke(ctx, t, context.WithoutCancel(ctx))
				t.setState(StateScheduled)
			}
		}
	}

	return nil
}

// invoke runs the task body once with failure isolation. execCtx is the
// context handed to the body; interval and one-shot invocations get one that
// survives shutdown so they can finish.
func (r *Runner) invoke(ctx context.Context, t *task, execCtx context.Context) {
	t.setState(StateRunning)
	start := time.Now()

	err := r.safeRun(t, execCtx)
	t.finish(err)

	if err != nil {
		var perr *panicError
		stack := logger.Stack()
		if errors.As(err, &perr) {
			stack = slog.String("stack", string(perr.stack))
		}
		r.logger.ErrorContext(ctx, "background task failed",
			logger.Component("runner"),
			slog.String("task", t.name),
			logger.Duration(time.Since(start)),
			logger.Error(err),
			stack)
		return
	}

	r.logger.DebugContext(ctx, "background task completed",
		slog.String("task", t.name),
		logger.Duration(time.Since(start)))
}

func (r *Runner) safeRun(t *task, ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &panicError{task: t.name, value: rec, stack: debug.Stack()}
		}
	}()
	return t.fn(ctx)
}

type panicError struct {
	task  string
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.task, e.value)
}

func (e *panicError) Unwrap() error { return ErrTaskPanic }

// StackTrace returns the stack captured at the panic site.
func (e *panicError) StackTrace() string { return string(e.stack) }
