package demo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/commander/core/audit"
	"github.com/dmitrymomot/commander/core/command"
	"github.com/dmitrymomot/commander/core/email"
	"github.com/dmitrymomot/commander/core/execctx"
	"github.com/dmitrymomot/commander/core/identity"
	"github.com/dmitrymomot/commander/core/queue"
	"github.com/dmitrymomot/commander/core/runner"
	"github.com/dmitrymomot/commander/core/store"
	"github.com/dmitrymomot/commander/internal/demo"
)

type recordingTransport struct {
	mu   sync.Mutex
	sent []any
}

func (r *recordingTransport) PublishToAll(_ context.Context, n any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingTransport) notifications() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.sent...)
}

type app struct {
	bus       *command.Bus
	store     *store.MemoryStore
	contacts  *demo.MemoryContacts
	audits    *audit.MemoryStore
	queue     *queue.MemoryStorage
	tokens    *identity.JWTProvider
	mailer    *email.DevSender
	transport *recordingTransport
}

func newApp(t *testing.T) *app {
	t.Helper()

	a := &app{
		store:     store.NewMemoryStore(),
		audits:    audit.NewMemoryStore(),
		queue:     queue.NewMemoryStorage(),
		mailer:    email.NewDevSender(nil),
		transport: &recordingTransport{},
	}
	a.contacts = demo.NewMemoryContacts(a.store)

	var err error
	a.tokens, err = identity.NewJWTProvider([]byte("test-signing-key"), identity.WithRevocationStore(identity.NewMemoryRevocationList()))
	require.NoError(t, err)

	enqueuer, err := queue.NewEnqueuer(a.queue)
	require.NoError(t, err)

	alice, err := demo.NewUser("alice", "secret", "Editor")
	require.NoError(t, err)
	bob, err := demo.NewUser("bob", "secret", demo.RoleAdmin)
	require.NoError(t, err)
	carol, err := demo.NewUser("carol", "secret")
	require.NoError(t, err)
	carol.IsActive = false

	svc := demo.NewService(a.contacts, demo.NewMemoryUsers(alice, bob, carol), a.tokens, a.mailer,
		demo.WithEnqueuer(enqueuer),
		demo.WithPublisher(demo.PublisherFunc(func(ctx context.Context, n any) error {
			return a.bus.Publish(ctx, n)
		})),
		demo.WithNotifyAddress("owner@example.com"),
		demo.WithEmailRetries(0),
		demo.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
	)

	reg := command.NewRegistry()
	require.NoError(t, svc.Register(reg, a.transport))
	bus, err := command.NewBus(reg, command.WithStore(a.store), command.WithAuditor(audit.New(a.audits)))
	require.NoError(t, err)
	a.bus = bus
	return a
}

func send[R any](t *testing.T, a *app, ec execctx.Context, req any) (R, error) {
	t.Helper()

	ctx, scope := a.bus.NewScope(context.Background(), ec)
	defer func() { assert.NoError(t, scope.Release(context.Background())) }()

	return command.Send[R](ctx, a.bus, req)
}

func TestPing(t *testing.T) {
	t.Parallel()

	a := newApp(t)

	pong, err := send[demo.Pong](t, a, execctx.Anonymous(), demo.Ping{Name: "Postman"})
	require.NoError(t, err)
	assert.Equal(t, "Hello (not async): Postman", pong.Message)

	pong, err = send[demo.Pong](t, a, execctx.Anonymous(), demo.AsyncPing{Name: "Postman"})
	require.NoError(t, err)
	assert.Equal(t, "Hello (async): Postman", pong.Message)
}

func TestLoginLogout(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	ctx := context.Background()

	res, err := send[demo.LoginResult](t, a, execctx.Anonymous(), demo.LoginUser{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, []string{"Editor"}, res.Roles)

	ec := a.tokens.Decode(ctx, res.Token)
	assert.Equal(t, "alice", ec.Username())
	assert.True(t, ec.HasRole("Editor"))

	t.Run("rejected credentials", func(t *testing.T) {
		for _, login := range []demo.LoginUser{
			{Username: "alice", Password: "wrong"},
			{Username: "nobody", Password: "secret"},
			{Username: "carol", Password: "secret"},
		} {
			_, err := send[demo.LoginResult](t, a, execctx.Anonymous(), login)
			assert.ErrorIs(t, err, demo.ErrInvalidCredentials, login.Username)
		}
	})

	_, err = send[struct{}](t, a, execctx.Anonymous(), demo.LogoutUser{Token: res.Token})
	require.NoError(t, err)
	assert.False(t, a.tokens.Decode(ctx, res.Token).IsAuthenticated())
}

func TestSaveContact(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	alice := execctx.New("alice", "Editor")

	id, err := send[string](t, a, alice, demo.SaveContact{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "555-0100",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	saved, err := a.contacts.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice", saved.Owner)
	assert.Equal(t, "Ada", saved.FirstName)

	// The change email is deferred with the caller identity.
	require.Equal(t, 1, a.queue.Len())
	assert.Equal(t, demo.Alert{Level: demo.LevelInfo, Message: "Contact Saved: " + id}, a.transport.notifications()[0])

	t.Run("update keeps the owner", func(t *testing.T) {
		_, err := send[string](t, a, execctx.New("dave", "Editor"), demo.SaveContact{
			ID:        id,
			FirstName: "Augusta",
			Email:     "ada@example.com",
			Phone:     "555-0100",
		})
		require.NoError(t, err)

		updated, err := a.contacts.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Augusta", updated.FirstName)
		assert.Equal(t, "alice", updated.Owner)
	})

	t.Run("invalid contact is rejected before side effects", func(t *testing.T) {
		queued := a.queue.Len()
		pushed := len(a.transport.notifications())

		_, err := send[string](t, a, alice, demo.SaveContact{FirstName: "Nobody", Email: "not-an-email"})

		var verr *command.ValidationFailedError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Violations, 2)
		assert.Equal(t, queued, a.queue.Len())
		assert.Len(t, a.transport.notifications(), pushed)
	})

	t.Run("anonymous callers are rejected", func(t *testing.T) {
		_, err := send[string](t, a, execctx.Anonymous(), demo.SaveContact{FirstName: "Eve"})
		assert.ErrorIs(t, err, command.ErrUnauthorized)
	})

	t.Run("audited", func(t *testing.T) {
		var found bool
		for _, doc := range a.audits.Documents() {
			for _, child := range doc.Children {
				if child.Name == "SaveContact" && child.DocumentType == audit.TypeRequest {
					found = true
				}
			}
		}
		assert.True(t, found)
	})
}

func TestDeferredEmail(t *testing.T) {
	t.Parallel()

	a := newApp(t)

	_, err := send[string](t, a, execctx.New("alice", "Editor"), demo.SaveContact{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Phone:     "555-0101",
	})
	require.NoError(t, err)

	consumer, err := runner.NewQueueConsumer(a.bus, a.queue)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Consume(ctx) }()

	require.Eventually(t, func() bool { return len(a.mailer.Sent()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	sent := a.mailer.Sent()[0]
	assert.Equal(t, "owner@example.com", sent.SendTo)
	assert.Equal(t, "Contact Saved", sent.Subject)
	assert.Contains(t, sent.BodyHTML, "Email: grace@example.com")
	assert.Equal(t, int64(1), consumer.Stats().Processed)
}

func TestSendEmail_RequiresAuthentication(t *testing.T) {
	t.Parallel()

	a := newApp(t)

	_, err := send[struct{}](t, a, execctx.Anonymous(), demo.SendEmail{To: "x@example.com", Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, command.ErrUnauthorized)
	assert.Empty(t, a.mailer.Sent())

	_, err = send[struct{}](t, a, execctx.New("alice"), demo.SendEmail{To: "broken", Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}

func TestDeleteContact(t *testing.T) {
	t.Parallel()

	a := newApp(t)

	id, err := send[string](t, a, execctx.New("alice", "Editor"), demo.SaveContact{
		FirstName: "Alan",
		Email:     "alan@example.com",
		Phone:     "555-0102",
	})
	require.NoError(t, err)

	_, err = send[bool](t, a, execctx.New("alice", "Editor"), demo.DeleteContact{ID: id})
	assert.ErrorIs(t, err, command.ErrUnauthorized)

	ok, err := send[bool](t, a, execctx.New("bob", demo.RoleAdmin), demo.DeleteContact{ID: id})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = a.contacts.Get(context.Background(), id)
	assert.ErrorIs(t, err, demo.ErrContactNotFound)

	_, err = send[bool](t, a, execctx.New("bob", demo.RoleAdmin), demo.DeleteContact{ID: id})
	assert.True(t, errors.Is(err, demo.ErrContactNotFound))
}

func TestContact_Validate(t *testing.T) {
	t.Parallel()

	assert.Empty(t, demo.Contact{FirstName: "A", Email: "a@example.com", Phone: "1"}.Validate())
	assert.Len(t, demo.Contact{}.Validate(), 3)
}
