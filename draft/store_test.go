package draft

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]SlotStore {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "files"))
	require.NoError(t, err)

	sqliteStore, err := OpenSQLite(filepath.Join(dir, "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]SlotStore{
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func TestSlotStores(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Read(ctx, "missing")
			assert.ErrorIs(t, err, ErrNoDraft)

			require.NoError(t, store.Write(ctx, "note-1", "# Draft\n\nfirst"))
			slot, err := store.Read(ctx, "note-1")
			require.NoError(t, err)
			assert.Equal(t, "note-1", slot.NoteID)
			assert.Equal(t, "# Draft\n\nfirst", slot.Content)
			assert.False(t, slot.UpdatedAt.IsZero())

			// overwritten in place
			require.NoError(t, store.Write(ctx, "note-1", "second"))
			slot, err = store.Read(ctx, "note-1")
			require.NoError(t, err)
			assert.Equal(t, "second", slot.Content)

			// ids are opaque
			odd := "user:1/../note%2F"
			require.NoError(t, store.Write(ctx, odd, "odd"))
			slot, err = store.Read(ctx, odd)
			require.NoError(t, err)
			assert.Equal(t, "odd", slot.Content)

			require.NoError(t, store.Write(ctx, "empty", ""))
			slot, err = store.Read(ctx, "empty")
			require.NoError(t, err)
			assert.Equal(t, "", slot.Content)

			slots, err := store.List(ctx)
			require.NoError(t, err)
			ids := make([]string, 0, len(slots))
			for _, s := range slots {
				ids = append(ids, s.NoteID)
			}
			assert.ElementsMatch(t, []string{"note-1", odd, "empty"}, ids)
		})
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Write(context.Background(), "n", strings.Repeat("x", i)))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "n.md", entries[0].Name())
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Write(ctx, "n", "x"), context.Canceled)
}

func TestSQLiteStoreListsNewestFirst(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		store.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		require.NoError(t, store.Write(ctx, id, id))
	}

	slots, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "c", slots[0].NoteID)
	assert.Equal(t, "a", slots[2].NoteID)
	assert.True(t, slots[0].UpdatedAt.Equal(base.Add(2*time.Minute)))
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.db")
	ctx := context.Background()

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, "n", "kept"))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	slot, err := reopened.Read(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "kept", slot.Content)
}
