package identity

import (
	"context"
	"sync"
	"time"
)

// RevocationStore remembers revoked token IDs until the tokens would have
// expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocationList is an in-process RevocationStore.
type MemoryRevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationList creates an empty revocation list.
func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke records tokenID for ttl. Expired entries are pruned on each call.
func (l *MemoryRevocationList) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, until := range l.entries {
		if !until.After(now) {
			delete(l.entries, id)
		}
	}
	l.entries[tokenID] = now.Add(ttl)
	return nil
}

// IsRevoked reports whether tokenID is on the list and not yet expired.
func (l *MemoryRevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	until, ok := l.entries[tokenID]
	return ok && until.After(l.now()), nil
}
