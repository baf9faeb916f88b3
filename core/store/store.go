// Package store defines the transactional store consumed by the request bus.
//
// The bus never talks to a database directly. Its transaction stage drives any
// Store implementation through Begin, Flush, Commit and Rollback, and handlers
// reach the open transaction through the context they receive. A Flush that
// finds invalid entities reports them as a *ValidationError so the caller can
// roll back and surface every violation at once.
package store

import "context"

// Tx is an open transaction. pgx.Tx satisfies it.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is a transactional data store scoped by context.
type Store interface {
	// Begin opens a transaction and returns a context carrying it.
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction carried by ctx.
	Commit(ctx context.Context) error

	// Rollback discards the transaction carried by ctx.
	Rollback(ctx context.Context) error

	// Flush pushes pending writes of the transaction carried by ctx.
	// Returns *ValidationError when entities fail validation.
	Flush(ctx context.Context) error

	// CurrentTransaction returns the transaction carried by ctx, if any.
	CurrentTransaction(ctx context.Context) (Tx, bool)
}
