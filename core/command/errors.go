package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/commander/core/store"
)

var (
	// ErrUnauthorized is returned when the caller does not satisfy the request policy.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidationFailed is returned when the store rejects pending writes on flush.
	ErrValidationFailed = errors.New("validation failed")

	// ErrHandlerNotFound is returned when a request type has no registered handler.
	ErrHandlerNotFound = errors.New("no handler registered for request")

	// ErrPolicyNotDeclared is returned when a request type has no authorization policy.
	ErrPolicyNotDeclared = errors.New("authorization policy not declared for request")

	// ErrDuplicateHandler is returned when a second handler is registered for a request type.
	ErrDuplicateHandler = errors.New("handler already registered for request")

	// ErrMixedHandlers is returned when sync and async handlers are registered for one request type.
	ErrMixedHandlers = errors.New("request type already has a handler of the other kind")

	// ErrRegistryFrozen is returned when registering after the registry was frozen.
	ErrRegistryFrozen = errors.New("registry is frozen")

	// ErrUnknownRequestType is returned when decoding a request name missing from the type table.
	ErrUnknownRequestType = errors.New("unknown request type")

	// ErrUnexpectedResult is returned by Send when the handler result has a different type.
	ErrUnexpectedResult = errors.New("unexpected result type")

	// ErrInvalidPayload is returned when a handler receives a request of the wrong type.
	ErrInvalidPayload = errors.New("invalid request payload type")

	// ErrHandlerPanic is wrapped by errors produced from recovered handler panics.
	ErrHandlerPanic = errors.New("handler panicked")
)

// UnauthorizedError describes a rejected dispatch.
type UnauthorizedError struct {
	Request  string
	Policy   string
	Username string
}

func (e *UnauthorizedError) Error() string {
	user := e.Username
	if user == "" {
		user = "anonymous"
	}
	return fmt.Sprintf("%s: %s requires %s (caller: %s)", ErrUnauthorized, e.Request, e.Policy, user)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// ValidationFailedError carries every violation reported by the store on flush.
// Its message is each "<Entity>: <message>" line joined by a newline.
type ValidationFailedError struct {
	Violations []store.Violation
}

func (e *ValidationFailedError) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = v.String()
	}
	return strings.Join(lines, "\n")
}

func (e *ValidationFailedError) Unwrap() error { return ErrValidationFailed }

// PanicError is produced when a handler panics.
type PanicError struct {
	Handler string
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %s panicked: %v", e.Handler, e.Value)
}

func (e *PanicError) Unwrap() error { return ErrHandlerPanic }

// StackTrace returns the stack captured at the panic site.
func (e *PanicError) StackTrace() string { return string(e.Stack) }
