package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cogmap/application/ports"
	"cogmap/domain/core/aggregates"
)

func openTestStore(t *testing.T) (*SnapshotStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cogmap.db")
	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestSnapshotStore_Empty(t *testing.T) {
	store, _ := openTestStore(t)

	_, ok, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	tree, err := aggregates.NewTree("A", "ROOT 问题")
	require.NoError(t, err)
	_, err = tree.Insert("B", "child", "A")
	require.NoError(t, err)
	_, err = tree.Insert("C", "grandchild", "B")
	require.NoError(t, err)

	savedAt := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, ports.Snapshot{Records: tree.Records(), CurrentID: "C", SavedAt: savedAt}))

	snap, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tree.Records(), snap.Records)
	assert.Equal(t, "C", snap.CurrentID)
	assert.True(t, savedAt.Equal(snap.SavedAt))

	rebuilt, err := aggregates.RebuildTree(snap.Records)
	require.NoError(t, err)
	assert.Equal(t, 3, rebuilt.Len())
}

func TestSnapshotStore_SaveReplaces(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()

	first := []aggregates.NodeRecord{{ID: "A", Label: "root"}, {ID: "B", Label: "b", ParentID: "A"}}
	require.NoError(t, store.Save(ctx, ports.Snapshot{Records: first, CurrentID: "B", SavedAt: time.Now()}))

	second := []aggregates.NodeRecord{{ID: "A", Label: "root"}}
	require.NoError(t, store.Save(ctx, ports.Snapshot{Records: second, CurrentID: "A", SavedAt: time.Now()}))
	require.NoError(t, store.Close())

	// Survives a reopen.
	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	snap, ok, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, snap.Records)
	assert.Equal(t, "A", snap.CurrentID)
}
