package demo

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/commander/core/store"
)

// ContactRepository persists contacts inside the transaction carried by ctx.
type ContactRepository interface {
	Get(ctx context.Context, id string) (Contact, error)
	Save(ctx context.Context, c Contact) error
	Delete(ctx context.Context, id string) error
	// Flush checks pending writes, reporting *store.ValidationError.
	Flush(ctx context.Context) error
}

// MemoryContacts keeps contacts in a store.MemoryStore. Writes are staged in
// the open transaction and validated on flush.
type MemoryContacts struct {
	store *store.MemoryStore
}

// NewMemoryContacts creates a repository over st.
func NewMemoryContacts(st *store.MemoryStore) *MemoryContacts {
	return &MemoryContacts{store: st}
}

// Get returns the contact or ErrContactNotFound.
func (r *MemoryContacts) Get(ctx context.Context, id string) (Contact, error) {
	e, err := r.store.Get(ctx, Contact{}.EntityName(), id)
	if errors.Is(err, store.ErrNotFound) {
		return Contact{}, fmt.Errorf("%w: %s", ErrContactNotFound, id)
	}
	if err != nil {
		return Contact{}, err
	}
	c, ok := e.(Contact)
	if !ok {
		return Contact{}, fmt.Errorf("unexpected entity %T", e)
	}
	return c, nil
}

// Save stages c.
func (r *MemoryContacts) Save(ctx context.Context, c Contact) error {
	return r.store.Put(ctx, c)
}

// Delete removes the contact or returns ErrContactNotFound.
func (r *MemoryContacts) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.store.Delete(ctx, Contact{}.EntityName(), id)
}

// Flush validates the staged contacts.
func (r *MemoryContacts) Flush(ctx context.Context) error {
	return r.store.Flush(ctx)
}
