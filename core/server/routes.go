package server

import (
	"log/slog"
	"net/http"
	"time"
)

// Paths served by NewRouter.
const (
	LivenessPath      = "/health/live"
	ReadinessPath     = "/health/ready"
	NotificationsPath = "/notifications"
)

// NewRouter mounts the health endpoints and, when notifications is not nil,
// the notification websocket endpoint.
func NewRouter(log *slog.Logger, notifications http.Handler, checks ...Check) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET "+LivenessPath, Liveness())
	mux.Handle("GET "+ReadinessPath, Readiness(log, 5*time.Second, checks...))
	if notifications != nil {
		mux.Handle("GET "+NotificationsPath, notifications)
	}
	return mux
}
