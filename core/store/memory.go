package store

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
)

// Entity is a value the memory store can persist.
type Entity interface {
	// EntityName returns the entity type name used in violation messages.
	EntityName() string
	// EntityKey returns the identity of the entity within its type.
	EntityKey() string
}

// Validatable entities are checked on Flush.
// Validate returns one message per failed rule, or nil.
type Validatable interface {
	Validate() []string
}

type memoryTxKey struct{}

// memoryTx stages writes until commit.
type memoryTx struct {
	mu      sync.Mutex
	store   *MemoryStore
	writes  map[string]map[string]Entity
	deletes map[string]map[string]struct{}
	order   []Entity
	done    bool
}

func (tx *memoryTx) Commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return ErrTransactionDone
	}
	tx.done = true
	tx.store.apply(tx.writes, tx.deletes)
	tx.store.commits.Add(1)
	return nil
}

func (tx *memoryTx) Rollback(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return nil
	}
	tx.done = true
	tx.writes = nil
	tx.deletes = nil
	tx.order = nil
	tx.store.rollbacks.Add(1)
	return nil
}

// MemoryStore is an in-memory Store for tests and local development.
// Writes made inside a transaction are invisible to other transactions until commit.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]Entity

	begins    atomic.Int64
	commits   atomic.Int64
	rollbacks atomic.Int64
}

// MemoryStoreStats reports transaction counters.
type MemoryStoreStats struct {
	Begins    int64
	Commits   int64
	Rollbacks int64
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]Entity),
	}
}

// Begin opens a new transaction.
func (s *MemoryStore) Begin(ctx context.Context) (context.Context, error) {
	s.begins.Add(1)
	tx := &memoryTx{
		store:   s,
		writes:  make(map[string]map[string]Entity),
		deletes: make(map[string]map[string]struct{}),
	}
	return context.WithValue(ctx, memoryTxKey{}, tx), nil
}

// Commit commits the transaction carried by ctx.
func (s *MemoryStore) Commit(ctx context.Context) error {
	tx, ok := s.txFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	return tx.Commit(ctx)
}

// Rollback discards the transaction carried by ctx.
func (s *MemoryStore) Rollback(ctx context.Context) error {
	tx, ok := s.txFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	return tx.Rollback(ctx)
}

// Flush validates every staged entity implementing Validatable.
func (s *MemoryStore) Flush(ctx context.Context) error {
	tx, ok := s.txFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return ErrTransactionDone
	}

	var violations []Violation
	for _, e := range tx.order {
		v, ok := e.(Validatable)
		if !ok {
			continue
		}
		for _, msg := range v.Validate() {
			violations = append(violations, Violation{Entity: e.EntityName(), Message: msg})
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// CurrentTransaction returns the open transaction carried by ctx.
func (s *MemoryStore) CurrentTransaction(ctx context.Context) (Tx, bool) {
	tx, ok := s.txFrom(ctx)
	if !ok {
		return nil, false
	}
	return tx, true
}

// Put stages an entity in the current transaction, or writes it directly
// when ctx carries none.
func (s *MemoryStore) Put(ctx context.Context, e Entity) error {
	if e == nil {
		return fmt.Errorf("store: nil entity")
	}

	tx, ok := s.txFrom(ctx)
	if !ok {
		s.apply(map[string]map[string]Entity{e.EntityName(): {e.EntityKey(): e}}, nil)
		return nil
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return ErrTransactionDone
	}
	name := e.EntityName()
	if tx.writes[name] == nil {
		tx.writes[name] = make(map[string]Entity)
	}
	tx.writes[name][e.EntityKey()] = e
	if d := tx.deletes[name]; d != nil {
		delete(d, e.EntityKey())
	}
	tx.order = append(tx.order, e)
	return nil
}

// Delete removes an entity in the current transaction, or directly when ctx carries none.
func (s *MemoryStore) Delete(ctx context.Context, name, key string) error {
	tx, ok := s.txFrom(ctx)
	if !ok {
		s.apply(nil, map[string]map[string]struct{}{name: {key: {}}})
		return nil
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return ErrTransactionDone
	}
	if tx.deletes[name] == nil {
		tx.deletes[name] = make(map[string]struct{})
	}
	tx.deletes[name][key] = struct{}{}
	if w := tx.writes[name]; w != nil {
		delete(w, key)
	}
	return nil
}

// Get reads an entity, preferring writes staged in the current transaction.
func (s *MemoryStore) Get(ctx context.Context, name, key string) (Entity, error) {
	if tx, ok := s.txFrom(ctx); ok {
		tx.mu.Lock()
		if _, deleted := tx.deletes[name][key]; deleted {
			tx.mu.Unlock()
			return nil, ErrNotFound
		}
		if e, staged := tx.writes[name][key]; staged {
			tx.mu.Unlock()
			return e, nil
		}
		tx.mu.Unlock()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[name][key]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Count returns the number of committed entities of the given type.
func (s *MemoryStore) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[name])
}

// Stats returns transaction counters.
func (s *MemoryStore) Stats() MemoryStoreStats {
	return MemoryStoreStats{
		Begins:    s.begins.Load(),
		Commits:   s.commits.Load(),
		Rollbacks: s.rollbacks.Load(),
	}
}

func (s *MemoryStore) apply(writes map[string]map[string]Entity, deletes map[string]map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, entities := range writes {
		if s.data[name] == nil {
			s.data[name] = make(map[string]Entity)
		}
		maps.Copy(s.data[name], entities)
	}
	for name, keys := range deletes {
		for key := range keys {
			delete(s.data[name], key)
		}
	}
}

func (s *MemoryStore) txFrom(ctx context.Context) (*memoryTx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(memoryTxKey{}).(*memoryTx)
	if !ok || tx.store != s {
		return nil, false
	}
	tx.mu.Lock()
	done := tx.done
	tx.mu.Unlock()
	if done {
		return nil, false
	}
	return tx, true
}
