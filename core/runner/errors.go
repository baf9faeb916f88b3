package runner

import "errors"

var (
	// ErrRunnerAlreadyStarted is returned when starting a running runner.
	ErrRunnerAlreadyStarted = errors.New("runner already started")

	// ErrRunnerNotStarted is returned when stopping a runner that is not running.
	ErrRunnerNotStarted = errors.New("runner not started")

	// ErrTaskExists is returned when a task name is registered twice.
	ErrTaskExists = errors.New("task already registered")

	// ErrInvalidPeriod is returned for non-positive intervals.
	ErrInvalidPeriod = errors.New("task period must be positive")

	// ErrTaskNil is returned when registering a task without a body.
	ErrTaskNil = errors.New("task function cannot be nil")

	// ErrTaskPanic is wrapped by errors produced from recovered task panics.
	ErrTaskPanic = errors.New("task panicked")

	// ErrBusNil is returned when building a queue consumer without a bus.
	ErrBusNil = errors.New("bus cannot be nil")
)
