package ownership

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modloader/internal/store"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "store.db"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	tr, err := New(s, nil)
	require.NoError(t, err)
	return tr
}

func TestConflicts_DisjointSets(t *testing.T) {
	tr := newTestTracker(t)

	p1 := []string{"a/x.txt", "a/y.txt"}
	p2 := []string{"b/x.txt", "b/z.txt"}
	require.NoError(t, tr.Insert(2, p2))

	conflicts, err := tr.Conflicts(p1)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestConflicts_AfterInsert(t *testing.T) {
	tr := newTestTracker(t)

	p1 := []string{"a/x.txt", "a/y.txt"}
	require.NoError(t, tr.Insert(7, p1))

	conflicts, err := tr.Conflicts(p1)
	require.NoError(t, err)
	assert.Equal(t, []Owner{{ModID: 7, Path: "a/x.txt"}, {ModID: 7, Path: "a/y.txt"}}, conflicts)
}

func TestConflicts_CaseSensitive(t *testing.T) {
	tr := newTestTracker(t)

	require.NoError(t, tr.Insert(1, []string{"a/x.txt"}))

	conflicts, err := tr.Conflicts([]string{"A/X.txt"})
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestRemove_TwiceIsNoop(t *testing.T) {
	tr := newTestTracker(t)

	paths := []string{"a/x.txt", "a/y.txt"}
	require.NoError(t, tr.Insert(1, paths))

	require.NoError(t, tr.Remove(paths))
	require.NoError(t, tr.Remove(paths))

	n, err := tr.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInsert_OverwritesOnMisuse(t *testing.T) {
	tr := newTestTracker(t)

	require.NoError(t, tr.Insert(1, []string{"a/x.txt"}))
	require.NoError(t, tr.Insert(2, []string{"a/x.txt"}))

	conflicts, err := tr.Conflicts([]string{"a/x.txt"})
	require.NoError(t, err)
	assert.Equal(t, []Owner{{ModID: 2, Path: "a/x.txt"}}, conflicts)
}

func TestOwnedPaths(t *testing.T) {
	tr := newTestTracker(t)

	require.NoError(t, tr.Insert(1, []string{"a/y.txt", "a/x.txt"}))
	require.NoError(t, tr.Insert(2, []string{"b/z.txt"}))

	paths, err := tr.OwnedPaths(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/x.txt", "a/y.txt"}, paths)

	paths, err = tr.OwnedPaths(3)
	require.NoError(t, err)
	assert.Empty(t, paths)
}
