// Package command provides a type-safe request bus with a fixed decorator chain,
// per-request authorization policies, and notification fan-out.
//
// Requests are commands (mutate state) or queries (read state). Each request
// type maps to exactly one handler, synchronous or asynchronous, and declares
// an authorization policy in the registry. Notifications map to any number of
// listeners.
//
// # Quick Start
//
//	type SaveContact struct {
//	    Name  string
//	    Email string
//	}
//
//	reg := command.NewRegistry()
//	reg.MustRegister(
//	    command.NewHandlerFunc(func(ctx context.Context, cmd SaveContact) (int64, error) {
//	        return contacts.Save(ctx, cmd)
//	    }),
//	    command.Authorize(),
//	)
//	// NewBus runs reg.Verify: ErrPolicyNotDeclared for every request
//	// without a policy.
//	bus, err := command.NewBus(reg,
//	    command.WithLogger(logger),
//	    command.WithStore(pgStore),
//	    command.WithAuditor(auditor),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ctx, scope := bus.NewScope(ctx, execctx.New("bob", "User"))
//	defer scope.Release(ctx)
//
//	id, err := command.Send[int64](ctx, bus, SaveContact{Name: "Alice"})
//
// # Decorator Chain
//
// Every dispatch runs through the same chain, outermost first:
//
//	Authorization -> Audit -> Logging -> Transaction -> Handler
//
// Authorization rejects callers that do not satisfy the request policy with an
// *UnauthorizedError before anything else runs, so rejected dispatches leave no
// audit children and open no transaction.
//
// Audit records a Request child and then either a Response or an ExceptionInfo
// child into the recorder of the scope bound to the context. Request types
// filtered out by the auditor, and dispatches without a scope, are not recorded.
//
// Logging writes the serialized request and response at debug level and the
// error at error level. It never changes the outcome.
//
// Transaction opens a transaction on the configured store.Store, then flushes
// and commits on success and rolls back on any failure. Validation failures
// reported by Flush become a *ValidationFailedError listing every violation.
// If the context already carries an open transaction the stage passes through,
// so handlers that dispatch nested requests with the context they received share
// one transaction.
//
// Handler panics are recovered at the handler boundary and surface as
// *PanicError, which the outer stages observe like any other failure.
//
// # Scopes
//
// A Scope binds an execution context and an audit recorder to a context.Context
// for one inbound call or one background task invocation. Release persists the
// audit document exactly once.
//
//	ctx, scope := bus.NewRequestScope(r.Context(), tokens, bearer)
//	defer scope.Release(ctx)
//
// # Asynchronous Handlers
//
// Handlers created with NewAsyncHandlerFunc return an *async.Future. Send awaits
// it; SendAsync runs the whole pipeline on its own goroutine and returns a future.
//
//	f := bus.SendAsync(ctx, AsyncPing{Name: "web"})
//	res, err := f.Await()
//
// # Notifications
//
// Publish delivers a notification to every listener of its type. A failing or
// panicking listener does not prevent the others from running. Failures are
// logged and, with WithStrictPublish, returned joined.
//
// # Queued Requests
//
// The registry keeps a table of request types so requests serialized to a
// durable queue can be rebuilt by name:
//
//	req, err := reg.Decode(item.Command, item.Payload)
//
// # Handler Decorators
//
// WithRetry, WithBackoff and WithTimeout wrap individual handlers before
// registration:
//
//	reg.MustRegister(
//	    command.WithBackoff(command.NewCommandHandlerFunc(sendEmail), 3, time.Second, 10*time.Second),
//	    command.Authorize(),
//	)
//
// # Error Handling
//
// Configuration errors:
//   - ErrHandlerNotFound: request type has no handler
//   - ErrPolicyNotDeclared: request type has no authorization policy
//   - ErrDuplicateHandler, ErrMixedHandlers, ErrRegistryFrozen: registration errors
//
// Dispatch errors:
//   - ErrUnauthorized (via *UnauthorizedError)
//   - ErrValidationFailed (via *ValidationFailedError)
//   - ErrHandlerPanic (via *PanicError)
//
// Any other handler error is returned unchanged.
package command
