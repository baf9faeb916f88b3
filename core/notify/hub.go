package notify

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/commander/core/logger"
	"github.com/dmitrymomot/commander/pkg/broadcast"
)

// Transport delivers notifications to every connected client.
type Transport interface {
	PublishToAll(ctx context.Context, notification any) error
}

// Hub fans notifications out to websocket clients. It implements Transport
// and http.Handler.
type Hub struct {
	broadcaster  *broadcast.MemoryBroadcaster[Message]
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	pingInterval time.Duration
	logger       *slog.Logger
	closed       atomic.Bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithBufferSize sets how many frames a slow client may lag behind before
// it starts missing notifications.
func WithBufferSize(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.broadcaster = broadcast.NewMemoryBroadcaster[Message](size)
		}
	}
}

// WithOriginCheck sets the websocket origin policy.
func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// WithAllowAnyOrigin accepts websocket upgrades from any origin.
func WithAllowAnyOrigin() Option {
	return WithOriginCheck(func(*http.Request) bool { return true })
}

// WithWriteTimeout bounds each frame write.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithPingInterval sets how often idle connections are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHub creates a hub with no clients.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		broadcaster: broadcast.NewMemoryBroadcaster[Message](64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		writeTimeout: 10 * time.Second,
		pingInterval: 30 * time.Second,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// NewHubFromConfig creates a hub from configuration.
// Additional options override config values.
func NewHubFromConfig(cfg Config, opts ...Option) *Hub {
	base := []Option{
		WithBufferSize(cfg.BufferSize),
		WithWriteTimeout(cfg.WriteTimeout),
		WithPingInterval(cfg.PingInterval),
	}
	if cfg.AllowAnyOrigin {
		base = append(base, WithAllowAnyOrigin())
	}

	return NewHub(append(base, opts...)...)
}

// PublishToAll sends notification to every connected client.
func (h *Hub) PublishToAll(ctx context.Context, notification any) error {
	if h.closed.Load() {
		return ErrHubClosed
	}

	msg, err := NewMessage(notification)
	if err != nil {
		return err
	}

	return h.broadcaster.Broadcast(ctx, broadcast.Message[Message]{Data: msg})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return h.broadcaster.Count()
}

// Close disconnects every client. Later publishes fail with ErrHubClosed.
func (h *Hub) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return h.broadcaster.Close()
}

// ServeHTTP upgrades the request to a websocket and streams notifications
// until the client disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, ErrHubClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			logger.Component("notify"),
			logger.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.broadcaster.Subscribe(ctx)
	defer sub.Close()

	h.logger.DebugContext(ctx, "notification client connected",
		logger.Component("notify"),
		logger.Count("clients", h.Clients()))

	// Clients only listen; reading detects disconnects and handles control frames.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.writeLoop(ctx, conn, sub.Receive(ctx)); err != nil {
		h.logger.DebugContext(ctx, "notification client write failed",
			logger.Component("notify"),
			logger.Error(err))
	}

	h.logger.DebugContext(ctx, "notification client disconnected",
		logger.Component("notify"))
}

func (h *Hub) writeLoop(ctx context.Context, conn *websocket.Conn, frames <-chan broadcast.Message[Message]) error {
	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case frame, ok := <-frames:
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub closed"))
				return nil
			}
			if err := conn.WriteJSON(frame.Data); err != nil {
				return err
			}

		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
