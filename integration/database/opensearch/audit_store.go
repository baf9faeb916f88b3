package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/dmitrymomot/commander/core/audit"
)

var _ audit.Store = (*AuditStore)(nil)

// AuditStore indexes audit documents for search. Index names are lowercased
// because OpenSearch rejects upper case.
type AuditStore struct {
	transport opensearchapi.Transport
	index     string
	refresh   string
}

// AuditStoreOption configures an AuditStore.
type AuditStoreOption func(*AuditStore)

// WithRefresh sets the refresh policy of index requests ("true", "wait_for").
func WithRefresh(policy string) AuditStoreOption {
	return func(s *AuditStore) {
		s.refresh = policy
	}
}

// NewAuditStore creates a store indexing into index. *opensearch.Client
// satisfies opensearchapi.Transport.
func NewAuditStore(transport opensearchapi.Transport, index string, opts ...AuditStoreOption) *AuditStore {
	s := &AuditStore{
		transport: transport,
		index:     strings.ToLower(index),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewAuditStoreFromConfig indexes into cfg.Collection with the machine
// placeholder expanded.
func NewAuditStoreFromConfig(cfg audit.Config, transport opensearchapi.Transport, opts ...AuditStoreOption) *AuditStore {
	return NewAuditStore(transport, audit.CollectionName(cfg.Collection), opts...)
}

// Index returns the target index name.
func (s *AuditStore) Index() string {
	return s.index
}

// Persist indexes doc under its ID.
func (s *AuditStore) Persist(ctx context.Context, doc *audit.Document) error {
	if doc == nil {
		return ErrDocumentNil
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode audit document: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      s.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
		Refresh:    s.refresh,
	}
	resp, err := req.Do(ctx, s.transport)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexFailed, err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s: %s", ErrIndexFailed, resp.Status(), bytes.TrimSpace(msg))
	}
	return nil
}
