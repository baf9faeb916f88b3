package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/commander/core/identity"
)

var _ identity.RevocationStore = (*RevocationList)(nil)

// RevocationList stores revoked token IDs as keys that expire together with
// the tokens.
type RevocationList struct {
	client redis.Cmdable
	keys   keys
}

// NewRevocationList creates a revocation list. An empty prefix uses the default.
func NewRevocationList(client redis.Cmdable, prefix string) *RevocationList {
	return &RevocationList{client: client, keys: newKeys(prefix, "")}
}

// Revoke marks tokenID as revoked for ttl.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, l.keys.revoked(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID is revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.keys.revoked(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
