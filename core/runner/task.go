package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TaskFunc is the body of a background task.
type TaskFunc func(ctx context.Context) error

// TaskKind describes how a task is scheduled.
type TaskKind string

const (
	KindInterval TaskKind = "interval"
	KindOnce     TaskKind = "once"
	KindConsumer TaskKind = "consumer"
)

// TaskState is the lifecycle state of a task.
type TaskState string

const (
	StateScheduled TaskState = "scheduled"
	StateRunning   TaskState = "running"
	StateSucceeded TaskState = "succeeded"
	StateFailed    TaskState = "failed"
	StateTerminal  TaskState = "terminal"
)

// TaskStats is a point-in-time view of one task.
type TaskStats struct {
	Name      string
	Kind      TaskKind
	State     TaskState
	Runs      int64
	Failures  int64
	LastError string
	LastRunAt time.Time
}

type task struct {
	name   string
	kind   TaskKind
	period time.Duration
	delay  time.Duration
	runNow bool
	fn     TaskFunc

	runs     atomic.Int64
	failures atomic.Int64

	mu        sync.Mutex
	state     TaskState
	lastError string
	lastRunAt time.Time
}

func (t *task) setState(s TaskState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func (t *task) finish(err error) {
	t.runs.Add(1)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastRunAt = time.Now()
	if err != nil {
		t.failures.Add(1)
		t.lastError = err.Error()
		t.state = StateFailed
		return
	}
	t.state = StateSucceeded
}

func (t *task) stats() TaskStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return TaskStats{
		Name:      t.name,
		Kind:      t.kind,
		State:     t.state,
		Runs:      t.runs.Load(),
		Failures:  t.failures.Load(),
		LastError: t.lastError,
		LastRunAt: t.lastRunAt,
	}
}

// TaskOption configures an interval task.
type TaskOption func(*task)

// RunNow fires the task once immediately before the first interval elapses.
func RunNow() TaskOption {
	return func(t *task) {
		t.runNow = true
	}
}
