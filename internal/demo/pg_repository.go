package demo

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrymomot/commander/core/audit"
	"github.com/dmitrymomot/commander/core/command"
	"github.com/dmitrymomot/commander/integration/database/pg"
)

const (
	selectContactSQL = `SELECT id, first_name, last_name, email, phone, owner, updated_at FROM contacts WHERE id = $1`
	upsertContactSQL = `INSERT INTO contacts (id, first_name, last_name, email, phone, owner, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	updated_at = EXCLUDED.updated_at`
	deleteContactSQL = `DELETE FROM contacts WHERE id = $1`
	selectUserSQL    = `SELECT username, password_hash, roles, is_active FROM users WHERE username = $1`
)

// PGContacts stores contacts in PostgreSQL through pg.Store. Every statement
// is recorded as an SQL child of the current audit scope.
type PGContacts struct {
	store *pg.Store
}

// NewPGContacts creates a repository over st.
func NewPGContacts(st *pg.Store) *PGContacts {
	return &PGContacts{store: st}
}

// Get returns the contact or ErrContactNotFound.
func (r *PGContacts) Get(ctx context.Context, id string) (Contact, error) {
	auditSQL(ctx, selectContactSQL, id)

	var c Contact
	err := r.store.Querier(ctx).QueryRow(ctx, selectContactSQL, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Owner, &c.UpdatedAt)
	if pg.IsNotFoundError(err) {
		return Contact{}, fmt.Errorf("%w: %s", ErrContactNotFound, id)
	}
	if err != nil {
		return Contact{}, pg.MapError(err)
	}
	return c, nil
}

// Save upserts c and tracks it for validation on flush.
func (r *PGContacts) Save(ctx context.Context, c Contact) error {
	auditSQL(ctx, upsertContactSQL, c.ID, c.Email)

	_, err := r.store.Querier(ctx).Exec(ctx, upsertContactSQL,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Owner, c.UpdatedAt)
	if err != nil {
		return pg.MapError(err)
	}
	return r.store.Track(ctx, c)
}

// Delete removes the contact or returns ErrContactNotFound.
func (r *PGContacts) Delete(ctx context.Context, id string) error {
	auditSQL(ctx, deleteContactSQL, id)

	tag, err := r.store.Querier(ctx).Exec(ctx, deleteContactSQL, id)
	if err != nil {
		return pg.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrContactNotFound, id)
	}
	return nil
}

// Flush validates tracked contacts and checks deferred constraints.
func (r *PGContacts) Flush(ctx context.Context) error {
	return r.store.Flush(ctx)
}

// PGUsers reads accounts from PostgreSQL.
type PGUsers struct {
	db pg.Querier
}

// NewPGUsers creates a directory over db.
func NewPGUsers(db pg.Querier) *PGUsers {
	return &PGUsers{db: db}
}

// FindUser returns the account or ErrUserNotFound.
func (u *PGUsers) FindUser(ctx context.Context, username string) (User, error) {
	var user User
	err := u.db.QueryRow(ctx, selectUserSQL, username).
		Scan(&user.Username, &user.PasswordHash, &user.Roles, &user.IsActive)
	if pg.IsNotFoundError(err) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// auditSQL records stmt as an SQL child of the scope carried by ctx.
func auditSQL(ctx context.Context, stmt string, args ...any) {
	scope, ok := command.ScopeFromContext(ctx)
	name := command.RequestNameFromContext(ctx)
	if !ok || !scope.Audits(name) {
		return
	}

	var b strings.Builder
	b.WriteString(stmt)
	if len(args) > 0 {
		fmt.Fprintf(&b, " -- %v", args)
	}
	b.WriteString("\n")

	scope.Recorder().AddChild(
		audit.NewDocument(audit.TypeSQL, name, b.String()),
		scope.ExecContext(),
	)
}

const insertUserSQL = `INSERT INTO users (username, password_hash, roles, is_active)
VALUES ($1, $2, $3, $4)
ON CONFLICT (username) DO NOTHING`

// SeedUsers inserts users that do not exist yet.
func SeedUsers(ctx context.Context, db pg.Querier, users ...User) error {
	for _, u := range users {
		if _, err := db.Exec(ctx, insertUserSQL, u.Username, u.PasswordHash, u.Roles, u.IsActive); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	return nil
}
