package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/roach88/modloader/internal/events"
	"github.com/roach88/modloader/internal/journal"
	"github.com/roach88/modloader/internal/manager"
	"github.com/roach88/modloader/internal/mod"
	"github.com/roach88/modloader/internal/ownership"
	"github.com/roach88/modloader/internal/registry"
	"github.com/roach88/modloader/internal/store"
	"github.com/roach88/modloader/internal/testutil"
	"github.com/roach88/modloader/internal/workpool"
)

// Epoch is the journal clock start for every scenario.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// destination is an in-memory destination configuration.
type destination struct {
	root, lang string
}

func (d *destination) DestinationRoot() (string, bool)     { return d.root, d.lang != "" }
func (d *destination) DestinationLanguage() (string, bool) { return d.lang, d.lang != "" }

func (d *destination) SetDestination(root, language string) (bool, error) {
	changed := root != d.root || language != d.lang
	d.root, d.lang = root, language
	return changed, nil
}

// Harness holds the collaborators of one scenario run.
type Harness struct {
	manager  *manager.Manager
	registry *registry.Registry
	tracker  *ownership.Tracker
	journal  *journal.Journal
	dest     *destination
	archives map[string]string
}

// Run executes a scenario and returns the result.
//
// Each scenario gets fresh store, journal, registry and game directories
// under tb.TempDir. Journal ids and timestamps are deterministic.
// Setup failures are returned as errors; step and assertion mismatches
// are reported in the result.
func Run(tb testing.TB, scenario *Scenario) (*Result, error) {
	tb.Helper()
	ctx := context.Background()

	h, cleanup, err := newHarness(tb, scenario)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result := NewResult()
	for i, step := range scenario.Flow {
		event := h.execute(ctx, i, step)
		result.Trace = append(result.Trace, event)
		if msg := checkStep(i, step, event); msg != "" {
			result.AddError(msg)
		}
	}

	for i, assertion := range scenario.Assertions {
		if err := h.evaluate(ctx, assertion, result.Trace); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return result, nil
}

func newHarness(tb testing.TB, scenario *Scenario) (*Harness, func(), error) {
	dir := tb.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.Open(filepath.Join(dir, "store.db"), store.Options{})
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	j, err := journal.Open(filepath.Join(dir, "journal.db"), journal.Options{
		IDs: testutil.NewSequentialIDs("op"),
		Now: testutil.NewDeterministicClock(Epoch, time.Second).Now,
	})
	if err != nil {
		_ = s.Close()
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	pool := workpool.New(2)
	cleanup := func() {
		pool.Wait()
		_ = j.Close()
		_ = s.Close()
	}

	reg, err := registry.New(s, registry.Options{ArchiveDir: filepath.Join(dir, "registry"), Logger: logger})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open registry: %w", err)
	}
	tr, err := ownership.New(s, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open ownership: %w", err)
	}

	root := filepath.Join(dir, "game")
	if err := os.MkdirAll(filepath.Join(root, mod.InjectionLocalization.String()), 0o755); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create game root: %w", err)
	}
	dest := &destination{root: root, lang: scenario.Language}

	m, err := manager.New(manager.Deps{
		Registry:      reg,
		Tracker:       tr,
		Journal:       j,
		Destination:   dest,
		Confirmer:     events.Always(scenario.Confirm),
		Pool:          pool,
		RemoveWorkers: 2,
		Logger:        logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create manager: %w", err)
	}

	src := filepath.Join(dir, "archives")
	if err := os.Mkdir(src, 0o755); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create archive dir: %w", err)
	}
	archives := make(map[string]string, len(scenario.Archives))
	for _, spec := range scenario.Archives {
		archives[spec.File] = testutil.WriteArchive(tb, src, spec.File, entries(spec)...)
	}

	return &Harness{
		manager:  m,
		registry: reg,
		tracker:  tr,
		journal:  j,
		dest:     dest,
		archives: archives,
	}, cleanup, nil
}

func entries(spec ArchiveSpec) []testutil.Entry {
	var out []testutil.Entry
	if spec.Manifest != nil {
		out = append(out, testutil.Manifest(spec.Manifest.Name, spec.Manifest.Version))
	}
	for _, d := range spec.Dirs {
		out = append(out, testutil.Dir(d))
	}
	for _, f := range spec.Files {
		out = append(out, testutil.File(f, f))
	}
	return out
}

// base is the directory localization mods inject into.
func (h *Harness) base() string {
	return filepath.Join(h.dest.root, mod.InjectionLocalization.String(), h.dest.lang)
}

func (h *Harness) execute(ctx context.Context, index int, step FlowStep) TraceEvent {
	event := TraceEvent{Step: index, Op: step.Op}
	if step.ID != 0 {
		event.Target = "#" + strconv.FormatUint(step.ID, 10)
		event.ModID = step.ID
	}

	var err error
	switch step.Op {
	case OpAdd:
		event.Target = step.Archive
		var res manager.AddResult
		res, err = h.manager.Add(ctx, h.archives[step.Archive])
		if err == nil {
			event.Result = string(res.Outcome)
			event.ModID = res.Record.ID
		}
	case OpDelete:
		err = h.manager.Delete(ctx, step.ID)
	case OpActivate:
		_, err = h.manager.Activate(ctx, step.ID)
	case OpDeactivate:
		_, err = h.manager.Deactivate(ctx, step.ID)
	case OpDeactivateAll:
		var ids []uint64
		ids, err = h.manager.DeactivateAll(ctx)
		event.Deactivated = ids
	case OpSetDestination:
		event.Target = step.Language
		var changed bool
		changed, err = h.manager.SetDestination(ctx, h.dest.root, step.Language)
		if err == nil && !changed {
			event.Result = "unchanged"
		}
	}

	switch {
	case err != nil:
		event.Result = resultCode(err)
		event.conflicts = conflictsOf(err)
	case event.Result == "":
		event.Result = "ok"
	}
	return event
}

func resultCode(err error) string {
	if code := mod.CodeOf(err); code != "" {
		return string(code)
	}
	return "INTERNAL"
}

func conflictsOf(err error) []mod.Conflict {
	var me *mod.Error
	if errors.As(err, &me) {
		return me.Conflicts
	}
	return nil
}

// checkStep compares an executed step against its expect clause.
func checkStep(index int, step FlowStep, event TraceEvent) string {
	want := step.Expect
	if want == nil {
		want = &ExpectClause{}
	}

	wantResult := "ok"
	switch {
	case want.Error != "":
		wantResult = string(want.Error)
	case want.Outcome != "":
		wantResult = want.Outcome
	case step.Op == OpAdd:
		wantResult = ""
	}
	if wantResult == "" {
		if !isAddOutcome(event.Result) {
			return fmt.Sprintf("flow[%d] %s: expected success, got %s", index, step.Op, event.Result)
		}
	} else if event.Result != wantResult && !(wantResult == "ok" && event.Result == "unchanged") {
		return fmt.Sprintf("flow[%d] %s: expected %s, got %s", index, step.Op, wantResult, event.Result)
	}

	if want.ID != 0 && event.ModID != want.ID {
		return fmt.Sprintf("flow[%d] %s: expected mod #%d, got #%d", index, step.Op, want.ID, event.ModID)
	}
	if want.Conflicts != nil && !slices.Equal(want.Conflicts, event.conflicts) {
		return fmt.Sprintf("flow[%d] %s: expected conflicts %v, got %v", index, step.Op, want.Conflicts, event.conflicts)
	}
	if want.Deactivated != nil && !slices.Equal(want.Deactivated, event.Deactivated) {
		return fmt.Sprintf("flow[%d] %s: expected deactivated %v, got %v", index, step.Op, want.Deactivated, event.Deactivated)
	}
	return ""
}

func isAddOutcome(result string) bool {
	switch manager.AddOutcome(result) {
	case manager.OutcomeAdded, manager.OutcomeOverwritten, manager.OutcomeDeclined:
		return true
	}
	return false
}
