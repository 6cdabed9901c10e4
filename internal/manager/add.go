package manager

import (
	"context"

	"github.com/roach88/modloader/internal/archive"
	"github.com/roach88/modloader/internal/journal"
	"github.com/roach88/modloader/internal/mod"
	"github.com/roach88/modloader/internal/workpool"
)

// AddOutcome reports what Add did.
type AddOutcome string

const (
	// OutcomeAdded means a new record was created.
	OutcomeAdded AddOutcome = "added"

	// OutcomeOverwritten means an existing record with the same name was
	// replaced, keeping its id.
	OutcomeOverwritten AddOutcome = "overwritten"

	// OutcomeDeclined means the user refused to overwrite and nothing changed.
	OutcomeDeclined AddOutcome = "declined"
)

// AddResult is the record Add stored, or for OutcomeDeclined the record
// that was left untouched.
type AddResult struct {
	Record  mod.Record `json:"record" yaml:"record"`
	Outcome AddOutcome `json:"outcome" yaml:"outcome"`
}

// Add registers the archive at path.
//
// An archive whose name matches a registered mod replaces it when its
// version is strictly newer. When either side has no version the user is
// asked once; declining aborts before anything is changed. A known version
// that is not newer fails with ModVersionMismatch. A replaced mod that was
// active is ejected first and its id is reused.
func (m *Manager) Add(ctx context.Context, path string) (AddResult, error) {
	return workpool.Run(ctx, m.pool, func(ctx context.Context) (AddResult, error) {
		op, err := m.begin(ctx, journal.KindAdd, 0, path)
		if err != nil {
			return AddResult{}, err
		}
		res, err := m.add(ctx, path)
		m.finish(ctx, op, res.Record.ID, res.Outcome == OutcomeDeclined, err)
		return res, err
	})
}

func (m *Manager) add(ctx context.Context, path string) (AddResult, error) {
	a, err := archive.Open(path)
	if err != nil {
		return AddResult{}, err
	}
	log := m.log.With("path", a.Path)
	log.Debug("adding mod", "name", a.Name)

	manifest, err := a.Manifest()
	if err != nil {
		return AddResult{}, err
	}

	var candidate mod.Record
	if manifest != nil {
		candidate, err = m.reg.CreateFromManifest(manifest, a.Extension)
	} else {
		candidate, err = m.reg.Create(a.Name, mod.DefaultInjectionKind, a.Extension)
	}
	if err != nil {
		return AddResult{}, err
	}

	existing, found, err := m.reg.FindByName(candidate.Name)
	if err != nil {
		return AddResult{}, err
	}

	outcome := OutcomeAdded
	if found {
		if candidate.Version == nil || existing.Version == nil {
			overwrite, err := m.confirm.ConfirmOverwrite(ctx, candidate.Name)
			if err != nil {
				log.Warn("overwrite confirmation failed, treating as declined", "name", candidate.Name, "error", err)
				overwrite = false
			}
			if !overwrite {
				log.Info("overwrite declined", "mod_id", existing.ID, "name", existing.Name)
				return AddResult{Record: existing, Outcome: OutcomeDeclined}, nil
			}
		} else if !mod.IsNewer(candidate, existing) {
			return AddResult{}, mod.VersionMismatchError(candidate.Version.String(), existing.Version.String())
		}

		if existing.Active {
			strategy, err := m.strategy(existing)
			if err != nil {
				return AddResult{}, err
			}
			if _, err := strategy.Eject(ctx, existing); err != nil {
				return AddResult{}, err
			}
		}
		candidate.ID = existing.ID
		outcome = OutcomeOverwritten
	}

	if err := m.reg.SaveArchive(candidate, a.Path); err != nil {
		return AddResult{}, err
	}
	if found && existing.ArchiveExtension != candidate.ArchiveExtension {
		if err := m.reg.RemoveArchive(existing); err != nil {
			return AddResult{}, err
		}
	}
	if err := m.reg.Put(candidate); err != nil {
		return AddResult{}, err
	}

	log.Info("mod registered", "mod_id", candidate.ID, "name", candidate.Name, "outcome", outcome)
	return AddResult{Record: candidate, Outcome: outcome}, nil
}
