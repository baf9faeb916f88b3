package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/commander/core/logger"
)

// Check reports whether one dependency is usable.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Liveness responds ALIVE while the process can serve requests.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// Readiness runs every check with timeout and responds READY when all pass,
// or 503 naming the first failure.
func Readiness(log *slog.Logger, timeout time.Duration, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		for _, c := range checks {
			err := c.Fn(ctx)
			if err == nil {
				continue
			}
			if errors.Is(err, context.DeadlineExceeded) {
				err = errors.Join(errors.New("check timed out"), err)
			}

			log.ErrorContext(ctx, "readiness check failed",
				logger.Component("server"),
				slog.String("check", c.Name),
				logger.Error(err))

			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT READY: " + c.Name))
			return
		}

		_, _ = w.Write([]byte("READY"))
	}
}
