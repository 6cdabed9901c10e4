package manager

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modloader/internal/events"
	"github.com/roach88/modloader/internal/journal"
	"github.com/roach88/modloader/internal/mod"
	"github.com/roach88/modloader/internal/ownership"
	"github.com/roach88/modloader/internal/registry"
	"github.com/roach88/modloader/internal/store"
	"github.com/roach88/modloader/internal/testutil"
	"github.com/roach88/modloader/internal/workpool"
)

type memDestination struct {
	root, lang string
	sets       int
}

func (d *memDestination) DestinationRoot() (string, bool)     { return d.root, d.root != "" }
func (d *memDestination) DestinationLanguage() (string, bool) { return d.lang, d.lang != "" }

func (d *memDestination) SetDestination(root, language string) (bool, error) {
	d.sets++
	changed := root != d.root || language != d.lang
	d.root, d.lang = root, language
	return changed, nil
}

type harness struct {
	m       *Manager
	reg     *registry.Registry
	tracker *ownership.Tracker
	journal *journal.Journal
	dest    *memDestination
	asked   *atomic.Int32
	answer  *atomic.Bool
	srcDir  string
}

func (h harness) base() string {
	return filepath.Join(h.dest.root, "Localization", h.dest.lang)
}

func newHarness(t *testing.T) harness {
	t.Helper()
	dir := t.TempDir()

	s, err := store.Open(filepath.Join(dir, "store.db"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	reg, err := registry.New(s, registry.Options{ArchiveDir: filepath.Join(dir, "registry")})
	require.NoError(t, err)
	tr, err := ownership.New(s, nil)
	require.NoError(t, err)

	j, err := journal.Open(filepath.Join(dir, "journal.db"), journal.Options{
		IDs: testutil.NewSequentialIDs("op"),
		Now: testutil.NewDeterministicClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Second).Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	asked := &atomic.Int32{}
	answer := &atomic.Bool{}
	confirm := events.ConfirmFunc(func(context.Context, string) (bool, error) {
		asked.Add(1)
		return answer.Load(), nil
	})

	dest := &memDestination{root: gameRoot(t), lang: "English"}
	m, err := New(Deps{
		Registry:      reg,
		Tracker:       tr,
		Journal:       j,
		Destination:   dest,
		Confirmer:     confirm,
		Pool:          workpool.New(2),
		RemoveWorkers: 2,
	})
	require.NoError(t, err)

	return harness{
		m:       m,
		reg:     reg,
		tracker: tr,
		journal: j,
		dest:    dest,
		asked:   asked,
		answer:  answer,
		srcDir:  t.TempDir(),
	}
}

func gameRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "Localization"), 0o755))
	return root
}

func (h harness) add(t *testing.T, fileName string, entries ...testutil.Entry) AddResult {
	t.Helper()
	dir := t.TempDir()
	res, err := h.m.Add(context.Background(), testutil.WriteArchive(t, dir, fileName, entries...))
	require.NoError(t, err)
	return res
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)
}

func TestAdd_NewModWithoutManifest(t *testing.T) {
	h := newHarness(t)

	res := h.add(t, "Lore.zip", testutil.Dir("a"), testutil.File("a/x.txt", "x"))

	assert.Equal(t, OutcomeAdded, res.Outcome)
	assert.Equal(t, "Lore", res.Record.Name)
	assert.Equal(t, "zip", res.Record.ArchiveExtension)
	assert.False(t, res.Record.Active)
	assert.Nil(t, res.Record.Version)
	assert.FileExists(t, h.reg.ArchivePath(res.Record))
	assert.Zero(t, h.asked.Load())

	got, err := h.reg.Get(res.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Record, got)
}

func TestAdd_InvalidArchive(t *testing.T) {
	h := newHarness(t)

	_, err := h.m.Add(context.Background(), filepath.Join(t.TempDir(), "missing.zip"))
	require.Error(t, err)
	assert.True(t, mod.Is(err, mod.CodeInvalidArchive))
}

func TestAdd_NewerVersionOverwritesAndKeepsID(t *testing.T) {
	h := newHarness(t)

	first := h.add(t, "lore-1.zip", testutil.Manifest("Lore", "1.0.0"), testutil.File("a/x.txt", "old"))
	second := h.add(t, "lore-2.tgz", testutil.Manifest("Lore", "2.0.0"), testutil.File("a/x.txt", "new"))

	assert.Equal(t, OutcomeOverwritten, second.Outcome)
	assert.Equal(t, first.Record.ID, second.Record.ID)
	assert.Equal(t, "2.0.0", second.Record.VersionString())
	assert.Equal(t, "tgz", second.Record.ArchiveExtension)
	assert.Zero(t, h.asked.Load())

	// The stale copy with the old extension is removed.
	assert.NoFileExists(t, h.reg.ArchivePath(first.Record))
	assert.FileExists(t, h.reg.ArchivePath(second.Record))

	all, err := h.m.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAdd_OlderVersionRejected(t *testing.T) {
	h := newHarness(t)

	h.add(t, "lore.zip", testutil.Manifest("Lore", "2.0.0"))

	path := testutil.WriteArchive(t, t.TempDir(), "lore.zip", testutil.Manifest("Lore", "1.9.9"))
	_, err := h.m.Add(context.Background(), path)
	require.Error(t, err)

	var me *mod.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, mod.CodeModVersionMismatch, me.Code)
	assert.Equal(t, &mod.VersionMismatch{Candidate: "1.9.9", Existing: "2.0.0"}, me.Mismatch)
}

func TestAdd_EqualVersionRejected(t *testing.T) {
	h := newHarness(t)

	h.add(t, "lore.zip", testutil.Manifest("Lore", "1.0.0"))

	path := testutil.WriteArchive(t, t.TempDir(), "lore.zip", testutil.Manifest("Lore", "1.0.0"))
	_, err := h.m.Add(context.Background(), path)
	assert.True(t, mod.Is(err, mod.CodeModVersionMismatch))
}

func TestAdd_UnknownVersionAsksOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.add(t, "Lore.zip", testutil.File("a/x.txt", "x"))

	// Declined: nothing changes.
	res := h.add(t, "Lore.zip", testutil.File("a/y.txt", "y"))
	assert.Equal(t, OutcomeDeclined, res.Outcome)
	assert.Equal(t, first.Record, res.Record)
	assert.Equal(t, int32(1), h.asked.Load())

	// Accepted: overwritten in place.
	h.answer.Store(true)
	res = h.add(t, "Lore.zip", testutil.File("a/y.txt", "y"))
	assert.Equal(t, OutcomeOverwritten, res.Outcome)
	assert.Equal(t, first.Record.ID, res.Record.ID)
	assert.Equal(t, int32(2), h.asked.Load())

	entries, err := h.m.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, journal.StatusOK, entries[0].Outcome.Status)
	assert.Equal(t, journal.StatusDeclined, entries[1].Outcome.Status)
}

func TestActivate_InjectsFilesAndRecordsOwnership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.add(t, "Lore.zip", testutil.Dir("a"), testutil.File("a/x.txt", "x"), testutil.File("a/b/y.txt", "y"))

	rec, err := h.m.Activate(ctx, res.Record.ID)
	require.NoError(t, err)
	assert.True(t, rec.Active)

	body, err := os.ReadFile(filepath.Join(h.base(), "a", "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(body))
	assert.FileExists(t, filepath.Join(h.base(), "a", "b", "y.txt"))

	owned, err := h.tracker.OwnedPaths(rec.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/x.txt", "a/b/y.txt"}, owned)

	_, err = h.m.Activate(ctx, rec.ID)
	assert.True(t, mod.Is(err, mod.CodeModAlreadyActive))

	report, err := h.m.Doctor(ctx)
	require.NoError(t, err)
	assert.True(t, report.Healthy())
	assert.Equal(t, 2, report.Ownership)
}

func TestActivate_UnknownMod(t *testing.T) {
	h := newHarness(t)

	_, err := h.m.Activate(context.Background(), 42)
	assert.True(t, mod.Is(err, mod.CodeModNotExisting))
}

func TestActivate_RequiresDestination(t *testing.T) {
	h := newHarness(t)
	res := h.add(t, "Lore.zip", testutil.File("a/x.txt", "x"))

	h.dest.lang = ""
	_, err := h.m.Activate(context.Background(), res.Record.ID)
	assert.True(t, mod.Is(err, mod.CodeAppNotInitialized))

	rec, err := h.reg.Get(res.Record.ID)
	require.NoError(t, err)
	assert.False(t, rec.Active)
}

func TestActivate_ConflictWritesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.add(t, "A.zip", testutil.File("a/x.txt", "from A"))
	b := h.add(t, "B.zip", testutil.File("a/x.txt", "from B"), testutil.File("a/z.txt", "z"))

	_, err := h.m.Activate(ctx, a.Record.ID)
	require.NoError(t, err)

	_, err = h.m.Activate(ctx, b.Record.ID)
	var me *mod.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, mod.CodeModConflict, me.Code)
	assert.Equal(t, []mod.Conflict{{ModName: "A", Path: "a/x.txt"}}, me.Conflicts)

	body, err := os.ReadFile(filepath.Join(h.base(), "a", "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "from A", string(body))
	assert.NoFileExists(t, filepath.Join(h.base(), "a", "z.txt"))

	rec, err := h.reg.Get(b.Record.ID)
	require.NoError(t, err)
	assert.False(t, rec.Active)

	entries, err := h.m.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, journal.StatusFailed, entries[0].Outcome.Status)
	assert.Equal(t, string(mod.CodeModConflict), entries[0].Outcome.Code)
}

func TestDeactivate_RemovesFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.add(t, "Lore.zip", testutil.File("a/x.txt", "x"))
	_, err := h.m.Activate(ctx, res.Record.ID)
	require.NoError(t, err)

	rec, err := h.m.Deactivate(ctx, res.Record.ID)
	require.NoError(t, err)
	assert.False(t, rec.Active)
	assert.NoFileExists(t, filepath.Join(h.base(), "a", "x.txt"))

	count, err := h.tracker.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = h.m.Deactivate(ctx, res.Record.ID)
	assert.True(t, mod.Is(err, mod.CodeModAlreadyDeactivated))
}

func TestDeactivate_ToleratesMissingFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.add(t, "Lore.zip", testutil.File("a/x.txt", "x"), testutil.File("a/y.txt", "y"))
	_, err := h.m.Activate(ctx, res.Record.ID)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(h.base(), "a", "x.txt")))

	_, err = h.m.Deactivate(ctx, res.Record.ID)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(h.base(), "a", "y.txt"))
}

func TestAdd_OverwriteEjectsActiveMod(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.add(t, "lore.zip", testutil.Manifest("Lore", "1.0.0"), testutil.File("a/old.txt", "old"))
	_, err := h.m.Activate(ctx, first.Record.ID)
	require.NoError(t, err)

	second := h.add(t, "lore.zip", testutil.Manifest("Lore", "1.1.0"), testutil.File("a/new.txt", "new"))
	assert.Equal(t, OutcomeOverwritten, second.Outcome)
	assert.False(t, second.Record.Active)
	assert.NoFileExists(t, filepath.Join(h.base(), "a", "old.txt"))

	owned, err := h.tracker.OwnedPaths(first.Record.ID)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestDelete_ActiveModIsEjectedAndIDNotReused(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.add(t, "Lore.zip", testutil.File("a/x.txt", "x"))
	_, err := h.m.Activate(ctx, res.Record.ID)
	require.NoError(t, err)

	require.NoError(t, h.m.Delete(ctx, res.Record.ID))
	assert.NoFileExists(t, filepath.Join(h.base(), "a", "x.txt"))
	assert.NoFileExists(t, h.reg.ArchivePath(res.Record))

	_, err = h.reg.Get(res.Record.ID)
	assert.True(t, mod.Is(err, mod.CodeModNotExisting))

	err = h.m.Delete(ctx, res.Record.ID)
	assert.True(t, mod.Is(err, mod.CodeModNotExisting))

	next := h.add(t, "Other.zip", testutil.File("b/y.txt", "y"))
	assert.Greater(t, next.Record.ID, res.Record.ID)
}

func TestDelete_MissingArchiveCopy(t *testing.T) {
	h := newHarness(t)

	res := h.add(t, "Lore.zip", testutil.File("a/x.txt", "x"))
	require.NoError(t, os.Remove(h.reg.ArchivePath(res.Record)))

	require.NoError(t, h.m.Delete(context.Background(), res.Record.ID))
}

func TestDeactivateAll(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	one := h.add(t, "One.zip", testutil.File("one/x.txt", "1"))
	two := h.add(t, "Two.zip", testutil.File("two/x.txt", "2"))
	three := h.add(t, "Three.zip", testutil.File("three/x.txt", "3"))

	_, err := h.m.Activate(ctx, one.Record.ID)
	require.NoError(t, err)
	_, err = h.m.Activate(ctx, three.Record.ID)
	require.NoError(t, err)

	ids, err := h.m.DeactivateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{one.Record.ID, three.Record.ID}, ids)

	all, err := h.m.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, rec := range all {
		assert.False(t, rec.Active, "mod %d still active", rec.ID)
	}
	assert.Equal(t, two.Record.ID, all[1].ID)

	count, err := h.tracker.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	ids, err = h.m.DeactivateAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeactivateAll_StopsAtFirstFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	one := h.add(t, "One.zip", testutil.File("one/x.txt", "1"))
	two := h.add(t, "Two.zip", testutil.File("two/x.txt", "2"))
	three := h.add(t, "Three.zip", testutil.File("three/x.txt", "3"))
	for _, id := range []uint64{one.Record.ID, two.Record.ID, three.Record.ID} {
		_, err := h.m.Activate(ctx, id)
		require.NoError(t, err)
	}

	// A non-empty directory in place of an owned file cannot be removed.
	blocked := filepath.Join(h.base(), "two", "x.txt")
	require.NoError(t, os.Remove(blocked))
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "keep"), 0o755))

	ids, err := h.m.DeactivateAll(ctx)
	require.Error(t, err)
	assert.True(t, mod.Is(err, mod.CodeIO), "got %v", err)
	assert.Equal(t, []uint64{one.Record.ID}, ids)

	rec, err := h.reg.Get(one.Record.ID)
	require.NoError(t, err)
	assert.False(t, rec.Active)

	rec, err = h.reg.Get(two.Record.ID)
	require.NoError(t, err)
	assert.True(t, rec.Active)

	rec, err = h.reg.Get(three.Record.ID)
	require.NoError(t, err)
	assert.True(t, rec.Active)
	owned, err := h.tracker.OwnedPaths(three.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"three/x.txt"}, owned)
	assert.FileExists(t, filepath.Join(h.base(), "three", "x.txt"))

	entries, err := h.m.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, journal.KindDeactivateAll, entries[0].Operation.Kind)
	require.NotNil(t, entries[0].Outcome)
	assert.Equal(t, journal.StatusFailed, entries[0].Outcome.Status)
	assert.Equal(t, string(mod.CodeIO), entries[0].Outcome.Code)
}

func TestList_Empty(t *testing.T) {
	h := newHarness(t)

	all, err := h.m.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestSetDestination_DeactivatesOnChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.add(t, "Lore.zip", testutil.File("a/x.txt", "x"))
	_, err := h.m.Activate(ctx, res.Record.ID)
	require.NoError(t, err)
	oldBase := h.base()

	changed, err := h.m.SetDestination(ctx, h.dest.root, "en")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Zero(t, h.dest.sets)

	newRoot := gameRoot(t)
	changed, err = h.m.SetDestination(ctx, newRoot, "fr")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, newRoot, h.dest.root)
	assert.Equal(t, "French", h.dest.lang)
	assert.NoFileExists(t, filepath.Join(oldBase, "a", "x.txt"))

	rec, err := h.reg.Get(res.Record.ID)
	require.NoError(t, err)
	assert.False(t, rec.Active)
}

func TestSetDestination_RejectsInvalidInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.m.SetDestination(ctx, t.TempDir(), "en")
	assert.True(t, mod.Is(err, mod.CodeConfig))

	_, err = h.m.SetDestination(ctx, h.dest.root, "klingon")
	assert.True(t, mod.Is(err, mod.CodeConfig))
	assert.Zero(t, h.dest.sets)
}

func TestDoctor_ReportsUnconfirmedInjection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.add(t, "Lore.zip", testutil.File("a/x.txt", "x"))

	// Simulate a crash between extraction and ownership recording.
	op, err := h.journal.Begin(ctx, journal.KindActivate, res.Record.ID, "")
	require.NoError(t, err)
	require.NoError(t, h.journal.RecordPending(ctx, op, res.Record.ID, []string{"a/x.txt"}))
	require.NoError(t, os.MkdirAll(filepath.Join(h.base(), "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(h.base(), "a", "x.txt"), []byte("x"), 0o644))

	report, err := h.m.Doctor(ctx)
	require.NoError(t, err)
	require.Len(t, report.Orphans, 1)

	o := report.Orphans[0]
	assert.Equal(t, op.ID, o.OperationID)
	assert.Equal(t, res.Record.ID, o.ModID)
	assert.Equal(t, "Lore", o.ModName)
	assert.Equal(t, "a/x.txt", o.Path)
	assert.Zero(t, o.OwnerID)
	require.NotNil(t, o.OnDisk)
	assert.True(t, *o.OnDisk)
	assert.False(t, report.Healthy())

	// Without a destination the disk check is skipped.
	h.dest.root = ""
	report, err = h.m.Doctor(ctx)
	require.NoError(t, err)
	assert.Nil(t, report.Orphans[0].OnDisk)
}

func TestActivate_RetryAfterFailureLeavesDoctorHealthy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.add(t, "Lore.zip", testutil.File("a/x.txt", "x"), testutil.File("a/y.txt", "y"))

	// A directory where a/y.txt belongs makes extraction fail.
	blocked := filepath.Join(h.base(), "a", "y.txt")
	require.NoError(t, os.MkdirAll(blocked, 0o755))

	_, err := h.m.Activate(ctx, res.Record.ID)
	require.True(t, mod.Is(err, mod.CodeIO), "got %v", err)

	report, err := h.m.Doctor(ctx)
	require.NoError(t, err)
	assert.False(t, report.Healthy())

	require.NoError(t, os.Remove(blocked))
	_, err = h.m.Activate(ctx, res.Record.ID)
	require.NoError(t, err)

	report, err = h.m.Doctor(ctx)
	require.NoError(t, err)
	assert.True(t, report.Healthy(), "orphans: %+v", report.Orphans)
	assert.Equal(t, 2, report.Ownership)

	pending, err := h.journal.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDoctor_SkipsSettledRows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	owned := h.add(t, "Lore.zip", testutil.File("a/x.txt", "x"))
	_, err := h.m.Activate(ctx, owned.Record.ID)
	require.NoError(t, err)

	gone := h.add(t, "Gone.zip", testutil.File("g/x.txt", "g"))
	left := h.add(t, "Left.zip", testutil.File("l/x.txt", "l"))

	// Rows that outlived their operation: one for a path its mod now owns,
	// one for a deleted mod whose file never landed, one for a deleted mod
	// whose file is still on disk.
	op, err := h.journal.Begin(ctx, journal.KindActivate, 0, "")
	require.NoError(t, err)
	require.NoError(t, h.journal.RecordPending(ctx, op, owned.Record.ID, []string{"a/x.txt"}))
	require.NoError(t, h.journal.RecordPending(ctx, op, gone.Record.ID, []string{"g/x.txt"}))
	require.NoError(t, h.journal.RecordPending(ctx, op, left.Record.ID, []string{"l/x.txt"}))
	require.NoError(t, os.MkdirAll(filepath.Join(h.base(), "l"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(h.base(), "l", "x.txt"), []byte("l"), 0o644))

	require.NoError(t, h.m.Delete(ctx, gone.Record.ID))
	require.NoError(t, h.m.Delete(ctx, left.Record.ID))

	report, err := h.m.Doctor(ctx)
	require.NoError(t, err)
	require.Len(t, report.Orphans, 1, "orphans: %+v", report.Orphans)

	o := report.Orphans[0]
	assert.Equal(t, left.Record.ID, o.ModID)
	assert.Empty(t, o.ModName)
	assert.Equal(t, "l/x.txt", o.Path)
	require.NotNil(t, o.OnDisk)
	assert.True(t, *o.OnDisk)
}

func TestActivate_ConflictWithUnknownOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.add(t, "Lore.zip", testutil.File("a/x.txt", "x"))
	require.NoError(t, h.tracker.Insert(99, []string{"a/x.txt"}))

	_, err := h.m.Activate(ctx, res.Record.ID)
	var me *mod.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, mod.CodeModConflict, me.Code)
	assert.Equal(t, []mod.Conflict{{ModName: "#99", Path: "a/x.txt"}}, me.Conflicts)
	assert.NoFileExists(t, filepath.Join(h.base(), "a", "x.txt"))
}
