package email

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/commander/core/logger"
)

// DevSender implements EmailSender for local development and tests. Messages
// are logged and kept in memory instead of being delivered.
type DevSender struct {
	mu     sync.Mutex
	sent   []SendEmailParams
	logger *slog.Logger
}

// NewDevSender creates a development sender. A nil logger discards output.
func NewDevSender(log *slog.Logger) *DevSender {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DevSender{logger: log}
}

// SendEmail validates params and records the message.
func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	d.sent = append(d.sent, params)
	d.mu.Unlock()

	d.logger.InfoContext(ctx, "email captured",
		logger.Component("email"),
		slog.String("to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag))
	return nil
}

// Sent returns the captured messages in send order.
func (d *DevSender) Sent() []SendEmailParams {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.sent)
}
