package mongo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/commander/core/audit"
	"github.com/dmitrymomot/commander/core/execctx"
	"github.com/dmitrymomot/commander/integration/database/mongo"
)

type mockCollection struct {
	mock.Mock
}

func (m *mockCollection) InsertOne(ctx context.Context, document any, _ ...options.Lister[options.InsertOneOptions]) (*mongod.InsertOneResult, error) {
	args := m.Called(ctx, document)
	if res := args.Get(0); res != nil {
		return res.(*mongod.InsertOneResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAuditStore_Persist(t *testing.T) {
	t.Parallel()

	t.Run("inserts the document tree", func(t *testing.T) {
		t.Parallel()

		coll := &mockCollection{}
		store := mongo.NewAuditStore(coll)

		snap := execctx.New("alice", "Editor").Snapshot()
		child := audit.NewDocument(audit.TypeRequest, "SaveContact", map[string]string{"email": "a@example.com"})
		child.Context = &snap
		doc := &audit.Document{
			ID:           "parent-1",
			DocumentType: audit.TypeParent,
			Children:     []*audit.Document{child},
		}

		coll.On("InsertOne", mock.Anything, mock.MatchedBy(func(d any) bool {
			got, ok := d.(*audit.Document)
			return ok && got.ID == "parent-1" && len(got.Children) == 1
		})).Return(&mongod.InsertOneResult{InsertedID: "parent-1"}, nil).Once()

		require.NoError(t, store.Persist(context.Background(), doc))
		coll.AssertExpectations(t)
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		t.Parallel()

		coll := &mockCollection{}
		store := mongo.NewAuditStore(coll)
		boom := errors.New("not primary")

		coll.On("InsertOne", mock.Anything, mock.Anything).Return(nil, boom).Once()

		err := store.Persist(context.Background(), &audit.Document{ID: "parent-2"})
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "parent-2")
	})

	t.Run("nil document", func(t *testing.T) {
		t.Parallel()

		store := mongo.NewAuditStore(&mockCollection{})
		assert.ErrorIs(t, store.Persist(context.Background(), nil), mongo.ErrDocumentNil)
	})
}

func TestNew_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := mongo.New(context.Background(), mongo.Config{})
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}
