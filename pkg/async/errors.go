package async

import "errors"

var (
	// ErrTimeout is returned when AwaitWithTimeout exceeds its duration.
	ErrTimeout = errors.New("async: timeout")

	// ErrNoFutures is returned when WaitAny is called without futures.
	ErrNoFutures = errors.New("async: no futures provided")

	// ErrPanic is wrapped by PanicError.
	ErrPanic = errors.New("async: function panicked")
)
