package pg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/commander/core/logger"
	"github.com/dmitrymomot/commander/core/store"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner opens transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ store.Store = (*Store)(nil)

// Store implements store.Store on PostgreSQL. The transaction travels in the
// context, so repositories reach it through Querier.
type Store struct {
	db     Beginner
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the store logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store over db.
func NewStore(db Beginner, opts ...StoreOption) *Store {
	s := &Store{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPoolStore is NewStore for a pool.
func NewPoolStore(pool *pgxpool.Pool, opts ...StoreOption) *Store {
	return NewStore(pool, opts...)
}

// Begin opens a transaction and returns a context carrying it.
func (s *Store) Begin(ctx context.Context) (context.Context, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return ctx, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return WithTx(ctx, tx), nil
}

// Commit commits the transaction carried by ctx.
func (s *Store) Commit(ctx context.Context) error {
	st, ok := stateFrom(ctx)
	if !ok {
		return store.ErrNoTransaction
	}
	if err := st.Commit(ctx); err != nil {
		return MapError(err)
	}
	return nil
}

// Rollback discards the transaction carried by ctx.
func (s *Store) Rollback(ctx context.Context) error {
	st, ok := stateFrom(ctx)
	if !ok {
		return store.ErrNoTransaction
	}
	if err := st.Rollback(ctx); err != nil {
		return mapTxError(err)
	}
	return nil
}

// Track stages e for validation on the next Flush. Outside a transaction
// it validates immediately.
func (s *Store) Track(ctx context.Context, e store.Entity) error {
	st, ok := stateFrom(ctx)
	if !ok {
		if verr := validate([]store.Entity{e}); verr != nil {
			return verr
		}
		return nil
	}

	st.mu.Lock()
	st.tracked = append(st.tracked, e)
	st.mu.Unlock()
	return nil
}

// Flush validates the tracked entities, then forces deferred constraints to
// be checked now. Integrity violations are reported as *store.ValidationError.
func (s *Store) Flush(ctx context.Context) error {
	st, ok := stateFrom(ctx)
	if !ok {
		return store.ErrNoTransaction
	}

	st.mu.Lock()
	tracked := st.tracked
	st.tracked = nil
	st.mu.Unlock()

	if verr := validate(tracked); verr != nil {
		return verr
	}

	if _, err := st.Exec(ctx, "SET CONSTRAINTS ALL IMMEDIATE"); err != nil {
		s.logger.DebugContext(ctx, "deferred constraint check failed",
			logger.Component("pg"),
			logger.Error(err))
		return MapError(err)
	}
	return nil
}

// CurrentTransaction returns the transaction carried by ctx.
func (s *Store) CurrentTransaction(ctx context.Context) (store.Tx, bool) {
	st, ok := stateFrom(ctx)
	if !ok {
		return nil, false
	}
	return st, true
}

// Querier returns the transaction carried by ctx, or the pool.
func (s *Store) Querier(ctx context.Context) Querier {
	if st, ok := stateFrom(ctx); ok {
		return st
	}
	return s.db
}

// MapError converts integrity constraint violations into
// *store.ValidationError and finished-transaction errors into
// store.ErrTransactionDone. Other errors are returned unchanged.
func MapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && IsIntegrityViolation(err) {
		entity := pgErr.TableName
		if entity == "" {
			entity = pgErr.ConstraintName
		}
		msg := pgErr.Message
		if pgErr.Detail != "" {
			msg += ": " + pgErr.Detail
		}
		return &store.ValidationError{Violations: []store.Violation{{Entity: entity, Message: msg}}}
	}
	return mapTxError(err)
}

func mapTxError(err error) error {
	if IsTxClosedError(err) {
		return fmt.Errorf("%w: %w", store.ErrTransactionDone, err)
	}
	return err
}

func validate(entities []store.Entity) error {
	var violations []store.Violation
	for _, e := range entities {
		v, ok := e.(store.Validatable)
		if !ok {
			continue
		}
		for _, msg := range v.Validate() {
			violations = append(violations, store.Violation{Entity: e.EntityName(), Message: msg})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return &store.ValidationError{Violations: violations}
}
