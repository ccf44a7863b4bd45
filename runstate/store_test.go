package runstate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, found := store.Get("/work/project")
	assert.False(t, found)

	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(Entry{Root: "/work/project/", FinishedAt: finished, ExitCode: 2, Failed: true, Files: 3}))

	entry, found := store.Get("/work/project")
	require.True(t, found)
	assert.Equal(t, "/work/project", entry.Root)
	assert.True(t, entry.FinishedAt.Equal(finished))
	assert.Equal(t, 2, entry.ExitCode)
	assert.True(t, entry.Failed)
	assert.Equal(t, 3, entry.Files)

	_, found = store.Get("/work/other")
	assert.False(t, found)
}

func TestStore_CorruptEntryIsMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.path("/work/project"), []byte("not gob"), 0644))
	_, found := store.Get("/work/project")
	assert.False(t, found)
}

func TestStore_WithinCooldown(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)
	require.NoError(t, store.Set(Entry{Root: "/p", FinishedAt: now.Add(-3 * time.Second)}))

	recent, age := store.WithinCooldown("/p", 5*time.Second, now)
	assert.True(t, recent)
	assert.Equal(t, 3*time.Second, age)

	recent, _ = store.WithinCooldown("/p", 2*time.Second, now)
	assert.False(t, recent)

	recent, _ = store.WithinCooldown("/p", 0, now)
	assert.False(t, recent)

	recent, _ = store.WithinCooldown("/unknown", 5*time.Second, now)
	assert.False(t, recent)
}

func TestStore_ClearPruneStats(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, store.Set(Entry{Root: "/old", FinishedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.Set(Entry{Root: "/new", FinishedAt: now}))
	// Unrelated files in the directory are left alone.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0644))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Positive(t, stats.TotalBytes)
	assert.Equal(t, dir, stats.Dir)

	pruned, err := store.Prune(24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	_, found := store.Get("/new")
	assert.True(t, found)

	cleared, err := store.Clear()
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)
	_, err = os.Stat(filepath.Join(dir, "README"))
	assert.NoError(t, err)

	require.NoError(t, store.Delete("/new"))
}
