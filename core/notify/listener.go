package notify

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/commander/core/command"
)

type listener struct {
	inner     command.Listener
	transport Transport
}

// NewListener decorates inner so that every notification it handles is also
// pushed to all clients of transport. The push happens only when inner
// succeeds.
//
// Example:
//
//	reg.MustSubscribe(notify.NewListener(command.NewListenerFunc(onAlert), hub))
func NewListener(inner command.Listener, transport Transport) command.Listener {
	return &listener{inner: inner, transport: transport}
}

func (l *listener) Name() string {
	return l.inner.Name()
}

func (l *listener) Notify(ctx context.Context, notification any) error {
	if err := l.inner.Notify(ctx, notification); err != nil {
		return err
	}
	if err := l.transport.PublishToAll(ctx, notification); err != nil {
		return fmt.Errorf("failed to push %s to clients: %w", l.inner.Name(), err)
	}
	return nil
}
