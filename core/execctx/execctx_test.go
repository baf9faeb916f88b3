package execctx_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/commander/core/execctx"
)

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("anonymous by default", func(t *testing.T) {
		t.Parallel()

		ec := execctx.FromContext(context.Background())
		assert.False(t, ec.IsAuthenticated())
		assert.Empty(t, ec.Username())
		assert.Empty(t, ec.Roles())

		_, ok := execctx.Lookup(context.Background())
		assert.False(t, ok)
	})

	t.Run("roles are copied on construction", func(t *testing.T) {
		t.Parallel()

		roles := []string{"Admin"}
		ec := execctx.New("bob", roles...)
		roles[0] = "Guest"

		assert.True(t, ec.HasRole("Admin"))
		assert.False(t, ec.HasRole("Guest"))

		got := ec.Roles()
		got[0] = "Mutated"
		assert.True(t, ec.HasRole("Admin"))
	})

	t.Run("round trip through context", func(t *testing.T) {
		t.Parallel()

		ctx := execctx.WithContext(context.Background(), execctx.New("alice", "Editor"))
		ec, ok := execctx.Lookup(ctx)
		require.True(t, ok)
		assert.Equal(t, "alice", ec.Username())
		assert.True(t, ec.HasRole("Editor"))
		assert.False(t, ec.IsLocal())
	})

	t.Run("system context is local", func(t *testing.T) {
		t.Parallel()

		ec := execctx.System("Admin")
		assert.True(t, ec.IsLocal())
		assert.True(t, ec.IsAuthenticated())
	})
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	ec := execctx.System("worker", "Admin", "Ops")

	data, err := json.Marshal(ec.Snapshot())
	require.NoError(t, err)

	var snap execctx.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored := snap.Restore()
	assert.Equal(t, "worker", restored.Username())
	assert.Equal(t, []string{"Admin", "Ops"}, restored.Roles())
	assert.True(t, restored.IsLocal())
}
