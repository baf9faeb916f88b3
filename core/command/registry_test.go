package command_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/commander/core/command"
	"github.com/dmitrymomot/commander/core/execctx"
	"github.com/dmitrymomot/commander/pkg/async"
)

func pong(context.Context, Ping) (string, error) { return "pong", nil }

func asyncPong(ctx context.Context, p Ping) *async.Future[string] {
	return async.Resolved("pong", nil)
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("rejects duplicate handlers", func(t *testing.T) {
		t.Parallel()

		reg := command.NewRegistry()
		require.NoError(t, reg.Register(command.NewHandlerFunc(pong), command.AllowAnonymous()))
		err := reg.Register(command.NewHandlerFunc(pong), command.AllowAnonymous())
		assert.ErrorIs(t, err, command.ErrDuplicateHandler)

		require.NoError(t, reg.RegisterAsync(command.NewAsyncHandlerFunc(func(ctx context.Context, a Alert) *async.Future[int] {
			return async.Resolved(1, nil)
		}), command.AllowAnonymous()))
		err = reg.RegisterAsync(command.NewAsyncHandlerFunc(func(ctx context.Context, a Alert) *async.Future[int] {
			return async.Resolved(1, nil)
		}), command.AllowAnonymous())
		assert.ErrorIs(t, err, command.ErrDuplicateHandler)
	})

	t.Run("rejects mixing sync and async handlers", func(t *testing.T) {
		t.Parallel()

		reg := command.NewRegistry()
		require.NoError(t, reg.Register(command.NewHandlerFunc(pong), command.AllowAnonymous()))
		err := reg.RegisterAsync(command.NewAsyncHandlerFunc(asyncPong), command.AllowAnonymous())
		assert.ErrorIs(t, err, command.ErrMixedHandlers)

		reg = command.NewRegistry()
		require.NoError(t, reg.RegisterAsync(command.NewAsyncHandlerFunc(asyncPong), command.AllowAnonymous()))
		err = reg.Register(command.NewHandlerFunc(pong), command.AllowAnonymous())
		assert.ErrorIs(t, err, command.ErrMixedHandlers)
	})

	t.Run("frozen registry rejects changes", func(t *testing.T) {
		t.Parallel()

		reg := command.NewRegistry()
		command.MustNewBus(reg)
		assert.True(t, reg.Frozen())

		err := reg.Register(command.NewHandlerFunc(pong), command.AllowAnonymous())
		assert.ErrorIs(t, err, command.ErrRegistryFrozen)

		err = reg.Subscribe(command.NewListenerFunc(func(context.Context, Alert) error { return nil }))
		assert.ErrorIs(t, err, command.ErrRegistryFrozen)
	})

	t.Run("must register panics", func(t *testing.T) {
		t.Parallel()

		reg := command.NewRegistry()
		reg.MustRegister(command.NewHandlerFunc(pong), command.AllowAnonymous())
		assert.Panics(t, func() {
			reg.MustRegister(command.NewHandlerFunc(pong), command.AllowAnonymous())
		})
	})
}

func TestRegistry_Verify(t *testing.T) {
	t.Parallel()

	reg := command.NewRegistry()
	reg.MustRegister(command.NewHandlerFunc(pong), command.AllowAnonymous())
	require.NoError(t, reg.Verify())

	reg.MustRegister(command.NewCommandHandlerFunc(func(context.Context, SaveContact) error { return nil }), command.Policy{})
	reg.MustRegister(command.NewCommandHandlerFunc(func(context.Context, DeleteContact) error { return nil }), command.Policy{})

	err := reg.Verify()
	require.ErrorIs(t, err, command.ErrPolicyNotDeclared)
	assert.Contains(t, err.Error(), "SaveContact")
	assert.Contains(t, err.Error(), "DeleteContact")
	assert.Equal(t, []string{"DeleteContact", "Ping", "SaveContact"}, reg.Names())
}

func TestRegistry_Decode(t *testing.T) {
	t.Parallel()

	reg := command.NewRegistry()
	reg.MustRegister(command.WithRetry(command.NewCommandHandlerFunc(func(context.Context, SaveContact) error {
		return nil
	}), 1), command.Authorize())
	reg.MustSubscribe(command.NewListenerFunc(func(context.Context, Alert) error { return nil }))

	data, err := json.Marshal(SaveContact{ID: "7", Email: "a@example.com"})
	require.NoError(t, err)

	req, err := reg.Decode("SaveContact", data)
	require.NoError(t, err)
	assert.Equal(t, SaveContact{ID: "7", Email: "a@example.com"}, req)

	n, err := reg.Decode("Alert", []byte(`{"Message":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, Alert{Message: "hi"}, n)

	_, err = reg.Decode("Missing", data)
	assert.ErrorIs(t, err, command.ErrUnknownRequestType)

	_, err = reg.Decode("SaveContact", []byte(`{`))
	assert.Error(t, err)
}

func TestPolicy_Allows(t *testing.T) {
	t.Parallel()

	anon := execctx.Anonymous()
	bob := execctx.New("bob")
	admin := execctx.New("carol", "Admin")

	assert.True(t, command.AllowAnonymous().Allows(anon))
	assert.False(t, command.Authorize().Allows(anon))
	assert.True(t, command.Authorize().Allows(bob))
	assert.False(t, command.AuthorizeRole("Admin").Allows(bob))
	assert.True(t, command.AuthorizeRole("Admin").Allows(admin))
	assert.True(t, command.AuthorizeRole("Editor", "Admin").Allows(admin))
	assert.False(t, command.AuthorizeRole("Admin").Allows(execctx.System("", "Admin")))
	assert.False(t, command.Policy{}.Allows(admin))
	assert.False(t, command.Policy{}.Declared())
	assert.Equal(t, "AuthorizeRole(Editor,Admin)", command.AuthorizeRole("Editor", "Admin").String())
}

func TestHandlerDecorators(t *testing.T) {
	t.Parallel()

	t.Run("retry succeeds after failures", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		h := command.WithRetry(command.NewHandlerFunc(func(context.Context, Ping) (int32, error) {
			n := attempts.Add(1)
			if n < 3 {
				return 0, errors.New("transient")
			}
			return n, nil
		}), 3)

		res, err := h.Handle(context.Background(), Ping{})
		require.NoError(t, err)
		assert.EqualValues(t, 3, res)
		assert.Equal(t, "Ping", h.Name())
	})

	t.Run("retry gives up", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("permanent")
		h := command.WithRetry(command.NewCommandHandlerFunc(func(context.Context, Ping) error {
			return boom
		}), 2)

		_, err := h.Handle(context.Background(), Ping{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("backoff stops on cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		h := command.WithBackoff(command.NewCommandHandlerFunc(func(context.Context, Ping) error {
			cancel()
			return errors.New("transient")
		}), 5, time.Second, time.Second)

		_, err := h.Handle(ctx, Ping{})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		h := command.WithTimeout(command.NewCommandHandlerFunc(func(ctx context.Context, _ Ping) error {
			<-ctx.Done()
			return ctx.Err()
		}), 10*time.Millisecond)

		_, err := h.Handle(context.Background(), Ping{})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("wrong payload type", func(t *testing.T) {
		t.Parallel()

		_, err := command.NewHandlerFunc(pong).Handle(context.Background(), Alert{})
		assert.ErrorIs(t, err, command.ErrInvalidPayload)
	})
}
