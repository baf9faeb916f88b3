package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/commander/core/audit"
)

// Inserter is the part of *mongo.Collection the audit store writes through.
type Inserter interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

var _ audit.Store = (*AuditStore)(nil)

// AuditStore persists audit documents, one MongoDB document per scope.
type AuditStore struct {
	coll Inserter
}

// NewAuditStore creates a store writing to coll.
func NewAuditStore(coll Inserter) *AuditStore {
	return &AuditStore{coll: coll}
}

// NewAuditStoreFromConfig writes to the collection named by cfg.Collection
// in db, with the machine placeholder expanded.
func NewAuditStoreFromConfig(cfg audit.Config, db *mongo.Database) *AuditStore {
	return NewAuditStore(db.Collection(audit.CollectionName(cfg.Collection)))
}

// Persist inserts doc with its children embedded.
func (s *AuditStore) Persist(ctx context.Context, doc *audit.Document) error {
	if doc == nil {
		return ErrDocumentNil
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit document %s: %w", doc.ID, err)
	}
	return nil
}
