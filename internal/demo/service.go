package demo

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/commander/core/command"
	"github.com/dmitrymomot/commander/core/email"
	"github.com/dmitrymomot/commander/core/execctx"
	"github.com/dmitrymomot/commander/core/identity"
	"github.com/dmitrymomot/commander/core/logger"
	"github.com/dmitrymomot/commander/core/notify"
	"github.com/dmitrymomot/commander/core/queue"
	"github.com/dmitrymomot/commander/core/store"
	"github.com/dmitrymomot/commander/pkg/async"
)

// RoleAdmin may delete contacts.
const RoleAdmin = "Admin"

// Publisher delivers notifications. *command.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, notification any) error
}

// PublisherFunc adapts a function to Publisher. The bus is built after the
// registry is populated, so wiring code usually closes over it.
type PublisherFunc func(ctx context.Context, notification any) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, notification any) error {
	return f(ctx, notification)
}

// Service holds the demo handlers and their dependencies.
type Service struct {
	contacts   ContactRepository
	users      UserDirectory
	tokens     identity.Provider
	enqueuer   *queue.Enqueuer
	mailer     email.EmailSender
	publisher  Publisher
	notifyTo   string
	maxRetries int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEnqueuer defers SendEmail requests through e.
func WithEnqueuer(e *queue.Enqueuer) Option {
	return func(s *Service) { s.enqueuer = e }
}

// WithPublisher publishes Alert notifications through p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithNotifyAddress sets the recipient of contact change emails.
func WithNotifyAddress(addr string) Option {
	return func(s *Service) {
		if addr != "" {
			s.notifyTo = addr
		}
	}
}

// WithEmailRetries sets how many times a failed delivery is retried.
func WithEmailRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates the demo service.
func NewService(contacts ContactRepository, users UserDirectory, tokens identity.Provider, mailer email.EmailSender, opts ...Option) *Service {
	s := &Service{
		contacts:   contacts,
		users:      users,
		tokens:     tokens,
		mailer:     mailer,
		notifyTo:   "admin@example.com",
		maxRetries: 3,
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds every demo handler and listener to reg. Alert listeners are
// decorated to push to transport when it is not nil.
func (s *Service) Register(reg *command.Registry, transport notify.Transport) error {
	var alerts command.Listener = command.NewListenerFunc(s.onAlert)
	if transport != nil {
		alerts = notify.NewListener(alerts, transport)
	}

	sendEmail := command.WithBackoff(command.NewCommandHandlerFunc(s.sendEmail), s.maxRetries, 100*time.Millisecond, 5*time.Second)

	return errors.Join(
		reg.Register(command.NewHandlerFunc(s.ping), command.AllowAnonymous()),
		reg.RegisterAsync(command.NewAsyncHandlerFunc(s.asyncPing), command.AllowAnonymous()),
		reg.Register(sendEmail, command.Authorize()),
		reg.Register(command.NewHandlerFunc(s.login), command.AllowAnonymous()),
		reg.Register(command.NewCommandHandlerFunc(s.logout), command.AllowAnonymous()),
		reg.Register(command.NewHandlerFunc(s.getContact), command.Authorize()),
		reg.Register(command.NewHandlerFunc(s.saveContact), command.Authorize()),
		reg.Register(command.NewHandlerFunc(s.deleteContact), command.AuthorizeRole(RoleAdmin)),
		reg.Subscribe(alerts),
	)
}

func (s *Service) ping(_ context.Context, p Ping) (Pong, error) {
	return Pong{Message: "Hello (not async): " + p.Name}, nil
}

func (s *Service) asyncPing(ctx context.Context, p AsyncPing) *async.Future[Pong] {
	return async.Async(ctx, p, func(_ context.Context, p AsyncPing) (Pong, error) {
		return Pong{Message: "Hello (async): " + p.Name}, nil
	})
}

func (s *Service) onAlert(ctx context.Context, a Alert) error {
	s.logger.InfoContext(ctx, "alert",
		logger.Component("demo"),
		slog.String("level", a.Level),
		slog.String("message", a.Message))
	return nil
}

func (s *Service) sendEmail(ctx context.Context, cmd SendEmail) error {
	return s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   cmd.To,
		Subject:  cmd.Subject,
		BodyHTML: "<pre>" + html.EscapeString(cmd.Body) + "</pre>",
		Tag:      cmd.Tag,
	})
}

func (s *Service) login(ctx context.Context, cmd LoginUser) (LoginResult, error) {
	user, err := s.users.FindUser(ctx, cmd.Username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, err
	}
	if err != nil || !user.IsActive || !user.CheckPassword(cmd.Password) {
		s.logger.WarnContext(ctx, "login rejected",
			logger.Component("demo"),
			logger.Username(cmd.Username))
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Encode(ctx, user.Username, user.Roles)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{Token: token, Roles: user.Roles}, nil
}

func (s *Service) logout(ctx context.Context, cmd LogoutUser) error {
	return s.tokens.Revoke(ctx, cmd.Token)
}

func (s *Service) getContact(ctx context.Context, q GetContact) (Contact, error) {
	return s.contacts.Get(ctx, q.ID)
}

func (s *Service) saveContact(ctx context.Context, cmd SaveContact) (string, error) {
	c := Contact{ID: cmd.ID, Owner: execctx.FromContext(ctx).Username()}
	if cmd.ID == "" {
		c.ID = uuid.NewString()
	} else {
		existing, err := s.contacts.Get(ctx, cmd.ID)
		switch {
		case err == nil:
			c = existing
		case !errors.Is(err, ErrContactNotFound):
			return "", err
		}
	}

	c.FirstName = cmd.FirstName
	c.LastName = cmd.LastName
	c.Email = cmd.Email
	c.Phone = cmd.Phone
	c.UpdatedAt = s.now().UTC()

	if err := s.contacts.Save(ctx, c); err != nil {
		return "", err
	}
	// Reject invalid contacts before anything leaves the transaction.
	if err := s.contacts.Flush(ctx); err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			return "", &command.ValidationFailedError{Violations: verr.Violations}
		}
		return "", err
	}

	if s.enqueuer != nil {
		_, err := s.enqueuer.Enqueue(ctx, SendEmail{
			To:      s.notifyTo,
			Subject: "Contact Saved",
			Body:    c.Summary(),
			Tag:     "contact-saved",
		})
		if err != nil {
			return "", err
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, Alert{Level: LevelInfo, Message: "Contact Saved: " + c.ID}); err != nil {
			return "", err
		}
	}

	return c.ID, nil
}

func (s *Service) deleteContact(ctx context.Context, cmd DeleteContact) (bool, error) {
	if err := s.contacts.Delete(ctx, cmd.ID); err != nil {
		return false, err
	}
	return true, nil
}
