package command

import (
	"context"
	"fmt"
	"time"
)

// WithRetry wraps a handler to retry on errors up to maxRetries times.
// Returns the last error if all retries fail.
//
// Example:
//
//	reg.MustRegister(
//	    command.WithRetry(command.NewCommandHandlerFunc(sendEmail), 3),
//	    command.Authorize(),
//	)
func WithRetry(handler Handler, maxRetries int) Handler {
	return wrap(handler, func(ctx context.Context, req any) (any, error) {
		var lastErr error

		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 && ctx.Err() != nil {
				return nil, ctx.Err()
			}

			res, err := handler.Handle(ctx, req)
			if err == nil {
				return res, nil
			}

			lastErr = err
		}

		return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
	})
}

// WithBackoff wraps a handler with exponential backoff retry logic.
// Waits between retries with exponentially increasing delays capped at maxDelay.
//
// Example:
//
//	handler := command.WithBackoff(
//	    command.NewCommandHandlerFunc(sendEmail),
//	    5,                    // max retries
//	    100*time.Millisecond, // initial delay
//	    10*time.Second,       // max delay
//	)
func WithBackoff(handler Handler, maxRetries int, initialDelay, maxDelay time.Duration) Handler {
	return wrap(handler, func(ctx context.Context, req any) (any, error) {
		var lastErr error
		delay := initialDelay

		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}

				delay *= 2
				if delay > maxDelay {
					delay = maxDelay
				}
			}

			res, err := handler.Handle(ctx, req)
			if err == nil {
				return res, nil
			}

			lastErr = err
		}

		return nil, fmt.Errorf("failed after %d retries with backoff: %w", maxRetries, lastErr)
	})
}

// WithTimeout wraps a handler to enforce a maximum execution time.
// The handler must respect context cancellation.
func WithTimeout(handler Handler, timeout time.Duration) Handler {
	return wrap(handler, func(ctx context.Context, req any) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		type outcome struct {
			res any
			err error
		}
		done := make(chan outcome, 1)
		go func() {
			res, err := safeHandle(handler, ctx, req)
			done <- outcome{res, err}
		}()

		select {
		case o := <-done:
			return o.res, o.err
		case <-ctx.Done():
			return nil, fmt.Errorf("handler timeout after %s: %w", timeout, ctx.Err())
		}
	})
}
