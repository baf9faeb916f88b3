package opensearch_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/commander/core/audit"
	"github.com/dmitrymomot/commander/integration/database/opensearch"
)

type recordingTransport struct {
	mu       sync.Mutex
	status   int
	body     string
	requests []*http.Request
	payloads []string
}

func (rt *recordingTransport) Perform(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	var payload []byte
	if req.Body != nil {
		payload, _ = io.ReadAll(req.Body)
	}
	rt.requests = append(rt.requests, req)
	rt.payloads = append(rt.payloads, string(payload))

	return &http.Response{
		StatusCode: rt.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(rt.body)),
	}, nil
}

func TestAuditStore_Persist(t *testing.T) {
	t.Parallel()

	t.Run("indexes the document under its id", func(t *testing.T) {
		t.Parallel()

		rt := &recordingTransport{status: http.StatusCreated, body: `{"result":"created"}`}
		store := opensearch.NewAuditStore(rt, "Audit_Node1", opensearch.WithRefresh("wait_for"))
		assert.Equal(t, "audit_node1", store.Index())

		doc := &audit.Document{
			ID:           "parent-1",
			DocumentType: audit.TypeParent,
			Children:     []*audit.Document{audit.NewDocument(audit.TypeRequest, "Ping", "hello")},
		}
		require.NoError(t, store.Persist(context.Background(), doc))

		require.Len(t, rt.requests, 1)
		req := rt.requests[0]
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, "/audit_node1/_doc/parent-1", req.URL.Path)
		assert.Equal(t, "wait_for", req.URL.Query().Get("refresh"))

		var got audit.Document
		require.NoError(t, json.Unmarshal([]byte(rt.payloads[0]), &got))
		assert.Equal(t, audit.TypeParent, got.DocumentType)
		require.Len(t, got.Children, 1)
		assert.Equal(t, "Ping", got.Children[0].Name)
	})

	t.Run("error status", func(t *testing.T) {
		t.Parallel()

		rt := &recordingTransport{status: http.StatusBadRequest, body: `{"error":"mapper_parsing_exception"}`}
		store := opensearch.NewAuditStore(rt, "audit")

		err := store.Persist(context.Background(), &audit.Document{ID: "parent-2"})
		require.ErrorIs(t, err, opensearch.ErrIndexFailed)
		assert.Contains(t, err.Error(), "mapper_parsing_exception")
	})

	t.Run("nil document", func(t *testing.T) {
		t.Parallel()

		store := opensearch.NewAuditStore(&recordingTransport{}, "audit")
		assert.ErrorIs(t, store.Persist(context.Background(), nil), opensearch.ErrDocumentNil)
	})
}
