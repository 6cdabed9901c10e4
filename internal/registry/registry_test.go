package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modloader/internal/events"
	"github.com/roach88/modloader/internal/mod"
	"github.com/roach88/modloader/internal/store"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.events = append(p.events, e)
}

func newTestRegistry(t *testing.T) (*Registry, *recordingPublisher, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "store.db"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pub := &recordingPublisher{}
	archiveDir := filepath.Join(dir, "registry")
	r, err := New(s, Options{ArchiveDir: archiveDir, Publisher: pub})
	require.NoError(t, err)
	return r, pub, archiveDir
}

func strPtr(s string) *string { return &s }

func TestCreate_FreshInactiveRecord(t *testing.T) {
	r, pub, _ := newTestRegistry(t)

	rec, err := r.Create("Lore", mod.InjectionLocalization, "zip")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), rec.ID)
	assert.Equal(t, "Lore", rec.Name)
	assert.Equal(t, "zip", rec.ArchiveExtension)
	assert.False(t, rec.Active)
	assert.Nil(t, rec.Version)
	assert.Nil(t, rec.Author)
	assert.Nil(t, rec.Description)

	// Create does not persist.
	_, err = r.Get(rec.ID)
	assert.True(t, mod.Is(err, mod.CodeModNotExisting))
	assert.Empty(t, pub.events)
}

func TestCreateFromManifest(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	rec, err := r.CreateFromManifest(&mod.Manifest{
		Name:        "Lore",
		Author:      "ann",
		Version:     "1.2.0",
		Description: "more lore",
		Injection:   "localization",
	}, "zip")
	require.NoError(t, err)
	require.NotNil(t, rec.Version)
	assert.Equal(t, "1.2.0", rec.Version.String())
	assert.Equal(t, "ann", *rec.Author)

	_, err = r.CreateFromManifest(&mod.Manifest{Name: "Bad", Version: "one", Injection: "localization"}, "zip")
	assert.True(t, mod.Is(err, mod.CodeInvalidModInfo))
}

func TestPutGet_FieldForField(t *testing.T) {
	r, pub, _ := newTestRegistry(t)

	v := mod.MustParseVersion("1.0.0-beta.2+build.7")
	want := mod.Record{
		ID:               9,
		Name:             "Lore",
		ArchiveExtension: "tar",
		Author:           strPtr("ann"),
		Version:          &v,
		Description:      strPtr("desc"),
		Injection:        mod.InjectionLocalization,
		Active:           true,
	}
	require.NoError(t, r.Put(want))

	got, err := r.Get(9)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.KindInsertUpdate, pub.events[0].Kind)
	assert.Equal(t, want, *pub.events[0].Record)
}

func TestGetDelete_NotExisting(t *testing.T) {
	r, pub, _ := newTestRegistry(t)

	_, err := r.Get(77)
	assert.True(t, mod.Is(err, mod.CodeModNotExisting))

	err = r.Delete(77)
	assert.True(t, mod.Is(err, mod.CodeModNotExisting))
	assert.Empty(t, pub.events)
}

func TestDelete_PublishesDelete(t *testing.T) {
	r, pub, _ := newTestRegistry(t)

	require.NoError(t, r.Put(mod.Record{ID: 3, Name: "A", ArchiveExtension: "zip", Injection: mod.InjectionLocalization}))
	require.NoError(t, r.Delete(3))

	_, err := r.Get(3)
	assert.True(t, mod.Is(err, mod.CodeModNotExisting))
	require.Len(t, pub.events, 2)
	assert.Equal(t, events.Event{Kind: events.KindDelete, ID: 3}, pub.events[1])
}

func TestSetActive(t *testing.T) {
	r, pub, _ := newTestRegistry(t)

	require.NoError(t, r.Put(mod.Record{ID: 1, Name: "A", ArchiveExtension: "zip", Injection: mod.InjectionLocalization}))

	rec, err := r.SetActive(1, true)
	require.NoError(t, err)
	assert.True(t, rec.Active)

	got, err := r.Get(1)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Len(t, pub.events, 2)

	_, err = r.SetActive(2, true)
	assert.True(t, mod.Is(err, mod.CodeModNotExisting))
}

func TestFindByName(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	require.NoError(t, r.Put(mod.Record{ID: 1, Name: "A", ArchiveExtension: "zip", Injection: mod.InjectionLocalization}))
	require.NoError(t, r.Put(mod.Record{ID: 2, Name: "B", ArchiveExtension: "zip", Injection: mod.InjectionLocalization}))

	got, found, err := r.FindByName("B")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(2), got.ID)

	_, found, err = r.FindByName("b")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestList_NumericOrder(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	for _, id := range []uint64{10, 2, 1} {
		require.NoError(t, r.Put(mod.Record{ID: id, Name: "m", ArchiveExtension: "zip", Injection: mod.InjectionLocalization}))
	}

	list, err := r.List()
	require.NoError(t, err)
	var ids []uint64
	for _, rec := range list {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []uint64{1, 2, 10}, ids)
}

func TestArchiveCopy(t *testing.T) {
	r, _, archiveDir := newTestRegistry(t)

	src := filepath.Join(t.TempDir(), "Lore.zip")
	require.NoError(t, os.WriteFile(src, []byte("archive bytes"), 0o644))

	rec := mod.Record{ID: 5, ArchiveExtension: "zip"}
	require.NoError(t, r.SaveArchive(rec, src))

	assert.Equal(t, filepath.Join(archiveDir, "5.zip"), r.ArchivePath(rec))
	data, err := os.ReadFile(r.ArchivePath(rec))
	require.NoError(t, err)
	assert.Equal(t, "archive bytes", string(data))

	require.NoError(t, r.RemoveArchive(rec))
	require.NoError(t, r.RemoveArchive(rec))
	_, err = os.Stat(r.ArchivePath(rec))
	assert.True(t, os.IsNotExist(err))
}
