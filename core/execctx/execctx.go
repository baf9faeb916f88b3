// Package execctx carries the caller identity of one dispatch.
//
// An execution context is created once per inbound call (usually from a decoded
// token) or synthesized for background work, and travels explicitly inside the
// context.Context handed to the request bus. It is never mutated after creation.
//
//	ec := execctx.New("bob", "Admin")
//	ctx = execctx.WithContext(ctx, ec)
//	...
//	if execctx.FromContext(ctx).HasRole("Admin") { ... }
package execctx

import (
	"context"
	"slices"
)

// Context is an immutable snapshot of caller identity and environment flags.
// The zero value is the anonymous context.
type Context struct {
	username string
	roles    []string
	isLocal  bool
}

// New creates an execution context for the given user and roles.
// Roles are copied, so later changes to the caller's slice are not observed.
func New(username string, roles ...string) Context {
	return Context{
		username: username,
		roles:    slices.Clone(roles),
	}
}

// System creates an execution context for in-process background work.
// It is flagged as local.
func System(username string, roles ...string) Context {
	c := New(username, roles...)
	c.isLocal = true
	return c
}

// Anonymous returns the empty execution context.
func Anonymous() Context {
	return Context{}
}

// Username returns the caller's username, empty for anonymous callers.
func (c Context) Username() string {
	return c.username
}

// Roles returns a copy of the caller's roles.
func (c Context) Roles() []string {
	return slices.Clone(c.roles)
}

// IsLocal reports whether the context was synthesized in-process.
func (c Context) IsLocal() bool {
	return c.isLocal
}

// IsAuthenticated reports whether the context carries a username.
func (c Context) IsAuthenticated() bool {
	return c.username != ""
}

// HasRole reports whether role is one of the caller's roles.
func (c Context) HasRole(role string) bool {
	return slices.Contains(c.roles, role)
}

type execCtxKey struct{}

// WithContext returns a copy of ctx carrying the execution context.
func WithContext(ctx context.Context, c Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, execCtxKey{}, c)
}

// FromContext extracts the execution context from ctx.
// Returns the anonymous context if none is present.
func FromContext(ctx context.Context) Context {
	c, _ := Lookup(ctx)
	return c
}

// Lookup extracts the execution context from ctx.
// The second return value reports whether one was attached.
func Lookup(ctx context.Context) (Context, bool) {
	if ctx == nil {
		return Context{}, false
	}
	c, ok := ctx.Value(execCtxKey{}).(Context)
	return c, ok
}
