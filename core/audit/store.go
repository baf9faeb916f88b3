package audit

import (
	"context"
	"errors"
	"sync"
)

// Store persists parent audit documents.
type Store interface {
	Persist(ctx context.Context, doc *Document) error
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context, doc *Document) error

// Persist calls f.
func (f StoreFunc) Persist(ctx context.Context, doc *Document) error {
	return f(ctx, doc)
}

// MultiStore persists every document to all stores in order. A failing
// store does not stop the remaining ones; all failures are joined.
func MultiStore(stores ...Store) Store {
	return StoreFunc(func(ctx context.Context, doc *Document) error {
		var errs []error
		for _, s := range stores {
			if s == nil {
				continue
			}
			if err := s.Persist(ctx, doc); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// MemoryStore keeps persisted documents in memory. Useful for tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []*Document
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Persist stores a copy of doc.
func (s *MemoryStore) Persist(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc.clone())
	return nil
}

// Documents returns copies of all persisted documents in write order.
func (s *MemoryStore) Documents() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Document, len(s.docs))
	for i, d := range s.docs {
		out[i] = d.clone()
	}
	return out
}

// Count returns the number of persisted documents.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
