package harness

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/modloader/internal/journal"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Step, event.Op, event.Target, event.Result)
		}
	}

	return buf.String()
}

func (h *Harness) evaluate(ctx context.Context, a Assertion, trace []TraceEvent) error {
	switch a.Type {
	case AssertRegistered:
		return h.assertIDs(a, false)
	case AssertActive:
		return h.assertIDs(a, true)
	case AssertFilesPresent:
		return h.assertFiles(a, true)
	case AssertFilesAbsent:
		return h.assertFiles(a, false)
	case AssertOwner:
		return h.assertOwner(a)
	case AssertTraceOrder:
		return assertTraceOrder(trace, a)
	case AssertJournalCount:
		return h.assertJournalCount(ctx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertIDs compares the sorted registry ids, optionally only active ones,
// with the expected set.
func (h *Harness) assertIDs(a Assertion, activeOnly bool) error {
	records, err := h.registry.List()
	if err != nil {
		return err
	}

	actual := []uint64{}
	for _, rec := range records {
		if !activeOnly || rec.Active {
			actual = append(actual, rec.ID)
		}
	}
	expected := slices.Clone(a.IDs)
	slices.Sort(expected)
	if expected == nil {
		expected = []uint64{}
	}

	if !slices.Equal(actual, expected) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("ids %v", expected),
			Actual:   fmt.Sprintf("ids %v", actual),
		}
	}
	return nil
}

func (h *Harness) assertFiles(a Assertion, present bool) error {
	for _, p := range a.Paths {
		_, err := os.Lstat(filepath.Join(h.base(), filepath.FromSlash(p)))
		switch {
		case err == nil && !present:
			return &AssertionError{Type: a.Type, Expected: p + " absent", Actual: "present"}
		case errors.Is(err, fs.ErrNotExist) && present:
			return &AssertionError{Type: a.Type, Expected: p + " present", Actual: "absent"}
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return nil
}

func (h *Harness) assertOwner(a Assertion) error {
	owners, err := h.tracker.Conflicts([]string{a.Path})
	if err != nil {
		return err
	}

	var actual uint64
	if len(owners) > 0 {
		actual = owners[0].ModID
	}
	if actual != a.Mod {
		return &AssertionError{
			Type:     AssertOwner,
			Expected: fmt.Sprintf("%s owned by #%d", a.Path, a.Mod),
			Actual:   fmt.Sprintf("owned by #%d", actual),
		}
	}
	return nil
}

// assertTraceOrder checks that ops occur as a subsequence of the trace.
// Intervening steps are allowed and repeated ops match successive steps.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Ops) && event.Op == a.Ops[next] {
			next++
		}
	}
	if next < len(a.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("ops in order: %v", a.Ops),
			Actual:   fmt.Sprintf("no %s after the first %d matched", a.Ops[next], next),
			Trace:    trace,
		}
	}
	return nil
}

func (h *Harness) assertJournalCount(ctx context.Context, a Assertion) error {
	entries, err := h.journal.History(ctx, 0)
	if err != nil {
		return err
	}

	count := 0
	for _, e := range entries {
		if e.Operation.Kind == journal.Kind(a.Kind) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("%d %s entries", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d entries", count),
		}
	}
	return nil
}
