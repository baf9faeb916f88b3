package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"

	"github.com/dmitrymomot/commander/pkg/async"
)

// registration is everything the registry knows about one request type.
type registration struct {
	policy       Policy
	handler      Handler
	asyncHandler AsyncHandler
}

// Registry maps request types to handlers and policies and notification
// types to listeners. It becomes read-only once frozen.
type Registry struct {
	mu        sync.RWMutex
	requests  map[string]*registration
	listeners map[string][]Listener
	types     map[string]reflect.Type
	frozen    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		requests:  make(map[string]*registration),
		listeners: make(map[string][]Listener),
		types:     make(map[string]reflect.Type),
	}
}

// Register registers a synchronous handler and its authorization policy.
//
// Example:
//
//	reg.Register(command.NewHandlerFunc(ping), command.AllowAnonymous())
func (r *Registry) Register(handler Handler, policy Policy) error {
	return r.register(handler.Name(), handler, policy, false, func(reg *registration) {
		reg.handler = handler
	})
}

// RegisterAsync registers an asynchronous handler and its authorization policy.
func (r *Registry) RegisterAsync(handler AsyncHandler, policy Policy) error {
	return r.register(handler.Name(), handler, policy, true, func(reg *registration) {
		reg.asyncHandler = handler
	})
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(handler Handler, policy Policy) {
	if err := r.Register(handler, policy); err != nil {
		panic(err)
	}
}

// MustRegisterAsync is like RegisterAsync but panics on error.
func (r *Registry) MustRegisterAsync(handler AsyncHandler, policy Policy) {
	if err := r.RegisterAsync(handler, policy); err != nil {
		panic(err)
	}
}

func (r *Registry) register(name string, h any, policy Policy, isAsync bool, set func(*registration)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, name)
	}

	reg, exists := r.requests[name]
	if exists {
		if (isAsync && reg.handler != nil) || (!isAsync && reg.asyncHandler != nil) {
			return fmt.Errorf("%w: %s", ErrMixedHandlers, name)
		}
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, name)
	}

	reg = &registration{policy: policy}
	set(reg)
	r.requests[name] = reg
	r.registerType(name, h)

	return nil
}

// Subscribe adds a listener for its notification type.
// Any number of listeners may be registered per type.
func (r *Registry) Subscribe(listener Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := listener.Name()
	if r.frozen {
		return fmt.Errorf("%w: cannot subscribe to %s", ErrRegistryFrozen, name)
	}

	r.listeners[name] = append(r.listeners[name], listener)
	r.registerType(name, listener)

	return nil
}

// MustSubscribe is like Subscribe but panics on error.
func (r *Registry) MustSubscribe(listener Listener) {
	if err := r.Subscribe(listener); err != nil {
		panic(err)
	}
}

func (r *Registry) registerType(name string, h any) {
	if t, ok := h.(typed); ok && t.requestType() != nil {
		r.types[name] = t.requestType()
	}
}

// Verify checks that every registered request type declares a policy.
// All offending types are reported.
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, name := range r.sortedNames() {
		if !r.requests[name].policy.Declared() {
			errs = append(errs, fmt.Errorf("%w: %s", ErrPolicyNotDeclared, name))
		}
	}
	return errors.Join(errs...)
}

// Freeze makes the registry read-only. It is safe to call more than once.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether the registry is read-only.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Names returns the registered request type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.requests))
	for name := range r.requests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode builds a request value of the registered type name from JSON.
// Used to replay queued requests.
func (r *Registry) Decode(name string, data []byte) (any, error) {
	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequestType, name)
	}

	ptr := reflect.New(t)
	if len(data) > 0 {
		if err := json.Unmarshal(data, ptr.Interface()); err != nil {
			return nil, fmt.Errorf("failed to decode request %s: %w", name, err)
		}
	}

	return ptr.Elem().Interface(), nil
}

// resolve returns the handler for name adapted to Handler, and its policy.
func (r *Registry) resolve(name string) (Handler, Policy, error) {
	r.mu.RLock()
	reg, ok := r.requests[name]
	r.mu.RUnlock()

	if !ok {
		return nil, Policy{}, fmt.Errorf("%w: %s", ErrHandlerNotFound, name)
	}
	if !reg.policy.Declared() {
		return nil, Policy{}, fmt.Errorf("%w: %s", ErrPolicyNotDeclared, name)
	}

	if reg.asyncHandler != nil {
		return awaitHandler{reg.asyncHandler}, reg.policy, nil
	}
	return reg.handler, reg.policy, nil
}

func (r *Registry) listenersOf(name string) []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.listeners[name])
}

// awaitHandler adapts an AsyncHandler to the synchronous chain.
type awaitHandler struct {
	h AsyncHandler
}

func (a awaitHandler) Name() string { return a.h.Name() }

// Handle awaits the future. A panic on the handler's goroutine surfaces as
// *PanicError, like a panic in a synchronous handler.
func (a awaitHandler) Handle(ctx context.Context, req any) (any, error) {
	res, err := a.h.HandleAsync(ctx, req).Await()
	var pe *async.PanicError
	if errors.As(err, &pe) {
		return nil, &PanicError{Handler: a.h.Name(), Value: pe.Value, Stack: pe.Stack}
	}
	return res, err
}
