package command

import (
	"context"

	"github.com/dmitrymomot/commander/core/audit"
	"github.com/dmitrymomot/commander/core/execctx"
)

// Scope binds one execution context and one audit recorder to the lifetime of
// an inbound call or a background task invocation. Dispatches made with a
// context derived from the scope share both.
type Scope struct {
	ec       execctx.Context
	auditor  *audit.Auditor
	recorder *audit.Recorder
}

// NewScope opens a scope for ec. A nil auditor disables auditing for the scope.
// The caller must call Release when the scope ends.
//
// Example:
//
//	ctx, scope := command.NewScope(ctx, execctx.System("Admin"), auditor)
//	defer scope.Release(ctx)
//	_, err := bus.Send(ctx, Ping{Name: "Schedule"})
func NewScope(ctx context.Context, ec execctx.Context, auditor *audit.Auditor) (context.Context, *Scope) {
	if auditor == nil {
		auditor = audit.Disabled()
	}

	s := &Scope{
		ec:       ec,
		auditor:  auditor,
		recorder: auditor.NewRecorder(),
	}

	ctx = execctx.WithContext(ctx, ec)
	return withScope(ctx, s), s
}

// TokenDecoder turns a bearer token into an execution context.
// Implementations return the anonymous context for invalid tokens.
type TokenDecoder interface {
	Decode(ctx context.Context, token string) execctx.Context
}

// NewRequestScope decodes token and opens a scope for the resulting identity.
func NewRequestScope(ctx context.Context, decoder TokenDecoder, token string, auditor *audit.Auditor) (context.Context, *Scope) {
	ec := execctx.Anonymous()
	if decoder != nil && token != "" {
		ec = decoder.Decode(ctx, token)
	}
	return NewScope(ctx, ec, auditor)
}

// ExecContext returns the scope's execution context.
func (s *Scope) ExecContext() execctx.Context {
	return s.ec
}

// Recorder returns the scope's audit recorder.
func (s *Scope) Recorder() *audit.Recorder {
	return s.recorder
}

// Release persists the scope's audit document. Calling it again does nothing.
func (s *Scope) Release(ctx context.Context) error {
	return s.recorder.Release(ctx)
}

// Audits reports whether the request type name is recorded by this scope.
func (s *Scope) Audits(name string) bool {
	return s.recorder.Enabled() && s.auditor.Includes(name)
}
