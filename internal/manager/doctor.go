package manager

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/modloader/internal/injection"
	"github.com/roach88/modloader/internal/journal"
	"github.com/roach88/modloader/internal/mod"
	"github.com/roach88/modloader/internal/workpool"
)

// Orphan is a file an activation announced but never confirmed. The process
// stopped between writing files and recording their ownership, so the file
// may sit at the destination with no mod owning it.
type Orphan struct {
	OperationID string `json:"operation_id" yaml:"operation_id"`
	ModID       uint64 `json:"mod_id" yaml:"mod_id"`
	ModName     string `json:"mod_name,omitempty" yaml:"mod_name,omitempty"`
	Path        string `json:"path" yaml:"path"`

	// OwnerID is the mod that currently owns Path, or zero.
	OwnerID uint64 `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`

	// OnDisk is set only when the destination is configured.
	OnDisk *bool `json:"on_disk,omitempty" yaml:"on_disk,omitempty"`
}

// Report is the result of Doctor.
type Report struct {
	Orphans   []Orphan `json:"orphans" yaml:"orphans"`
	Ownership int      `json:"owned_files" yaml:"owned_files"`
}

// Healthy reports whether no orphans were found.
func (r Report) Healthy() bool {
	return len(r.Orphans) == 0
}

// Doctor inspects the journal for activations that never completed. It
// reads only and repairs nothing.
func (m *Manager) Doctor(ctx context.Context) (Report, error) {
	return workpool.Run(ctx, m.pool, m.doctor)
}

func (m *Manager) doctor(ctx context.Context) (Report, error) {
	pending, err := m.journal.Pending(ctx)
	if err != nil {
		return Report{}, mod.DatabaseError("read pending injections", err)
	}
	count, err := m.tracker.Count()
	if err != nil {
		return Report{}, err
	}

	report := Report{Orphans: []Orphan{}, Ownership: count}
	if len(pending) == 0 {
		return report, nil
	}

	paths := make([]string, len(pending))
	for i, p := range pending {
		paths[i] = p.Path
	}
	owners, err := m.tracker.Conflicts(paths)
	if err != nil {
		return Report{}, err
	}
	ownerOf := make(map[string]uint64, len(owners))
	for _, o := range owners {
		ownerOf[o.Path] = o.ModID
	}

	names := map[uint64]string{}
	deleted := map[uint64]bool{}
	for _, p := range pending {
		// Ownership by the announcing mod means the injection was confirmed.
		if ownerOf[p.Path] == p.ModID {
			continue
		}
		o := Orphan{
			OperationID: p.OperationID,
			ModID:       p.ModID,
			Path:        p.Path,
			OwnerID:     ownerOf[p.Path],
		}
		if name, ok := names[p.ModID]; ok {
			o.ModName = name
		} else if !deleted[p.ModID] {
			rec, err := m.reg.Get(p.ModID)
			switch {
			case err == nil:
				names[p.ModID] = rec.Name
				o.ModName = rec.Name
			case mod.Is(err, mod.CodeModNotExisting):
				deleted[p.ModID] = true
			default:
				return Report{}, err
			}
		}

		if base, ok := m.destinationBase(); ok {
			onDisk, err := exists(filepath.Join(base, filepath.FromSlash(p.Path)))
			if err != nil {
				return Report{}, err
			}
			// Nothing is left to clean up for a deleted mod.
			if !onDisk && deleted[p.ModID] {
				continue
			}
			o.OnDisk = &onDisk
		}
		report.Orphans = append(report.Orphans, o)
	}

	m.log.Info("doctor finished", "orphans", len(report.Orphans), "owned_files", count)
	return report, nil
}

// destinationBase resolves where localization mods inject, if configured.
func (m *Manager) destinationBase() (string, bool) {
	strategy, err := injection.For(mod.DefaultInjectionKind, m.inject)
	if err != nil {
		return "", false
	}
	locator, ok := strategy.(injection.Locator)
	if !ok {
		return "", false
	}
	base, err := locator.Base()
	if err != nil {
		return "", false
	}
	return base, true
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, mod.IOError("stat "+path, err)
	}
}

// History returns up to limit journal entries, newest first. A limit of
// zero returns everything.
func (m *Manager) History(ctx context.Context, limit int) ([]journal.Entry, error) {
	return workpool.Run(ctx, m.pool, func(ctx context.Context) ([]journal.Entry, error) {
		entries, err := m.journal.History(ctx, limit)
		if err != nil {
			return nil, mod.DatabaseError("read history", err)
		}
		return entries, nil
	})
}
