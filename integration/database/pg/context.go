package pg

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/commander/core/store"
)

type txContextKey struct{}

// txState is the transaction opened by Store.Begin plus the entities staged
// for validation on Flush.
type txState struct {
	pgx.Tx

	mu      sync.Mutex
	tracked []store.Entity
}

// WithTx returns a new context carrying tx. A nil tx leaves ctx unchanged.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if tx == nil {
		return ctx
	}
	if _, ok := tx.(*txState); !ok {
		tx = &txState{Tx: tx}
	}
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext extracts the transaction stored with WithTx.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	st, ok := stateFrom(ctx)
	if !ok {
		return nil, false
	}
	return st, true
}

func stateFrom(ctx context.Context) (*txState, bool) {
	if ctx == nil {
		return nil, false
	}
	st, ok := ctx.Value(txContextKey{}).(*txState)
	return st, ok
}
