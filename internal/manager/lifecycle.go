package manager

import (
	"context"
	"strconv"

	"github.com/roach88/modloader/internal/archive"
	"github.com/roach88/modloader/internal/config"
	"github.com/roach88/modloader/internal/journal"
	"github.com/roach88/modloader/internal/mod"
	"github.com/roach88/modloader/internal/workpool"
)

// Delete removes a mod, ejecting it first if active. A missing archive copy
// is ignored.
func (m *Manager) Delete(ctx context.Context, id uint64) error {
	return workpool.Do(ctx, m.pool, func(ctx context.Context) error {
		op, err := m.begin(ctx, journal.KindDelete, id, "")
		if err != nil {
			return err
		}
		err = m.delete(ctx, id)
		m.finish(ctx, op, id, false, err)
		return err
	})
}

func (m *Manager) delete(ctx context.Context, id uint64) error {
	rec, err := m.reg.Get(id)
	if err != nil {
		return err
	}

	if rec.Active {
		strategy, err := m.strategy(rec)
		if err != nil {
			return err
		}
		if rec, err = strategy.Eject(ctx, rec); err != nil {
			return err
		}
	}

	if err := m.reg.Delete(id); err != nil {
		return err
	}
	if err := m.reg.RemoveArchive(rec); err != nil {
		return err
	}
	m.log.Info("mod deleted", "mod_id", id, "name", rec.Name)
	return nil
}

// Activate injects a registered, inactive mod. It fails with ModConflict,
// naming every (owner, path) pair, if any of its files is owned by another
// mod; nothing is written in that case.
func (m *Manager) Activate(ctx context.Context, id uint64) (mod.Record, error) {
	return workpool.Run(ctx, m.pool, func(ctx context.Context) (mod.Record, error) {
		op, err := m.begin(ctx, journal.KindActivate, id, "")
		if err != nil {
			return mod.Record{}, err
		}
		rec, err := m.activate(ctx, op, id)
		m.finish(ctx, op, id, false, err)
		return rec, err
	})
}

func (m *Manager) activate(ctx context.Context, op journal.Operation, id uint64) (mod.Record, error) {
	rec, err := m.reg.Get(id)
	if err != nil {
		return mod.Record{}, err
	}
	if rec.Active {
		return rec, mod.AlreadyActiveError(id)
	}
	if err := m.requireDestination(); err != nil {
		return rec, err
	}

	a, err := archive.Open(m.reg.ArchivePath(rec))
	if err != nil {
		return rec, err
	}
	dirs, files, err := a.DirsAndFiles()
	if err != nil {
		return rec, err
	}

	owners, err := m.tracker.Conflicts(files)
	if err != nil {
		return rec, err
	}
	if len(owners) > 0 {
		conflicts := make([]mod.Conflict, 0, len(owners))
		for _, o := range owners {
			name := "#" + strconv.FormatUint(o.ModID, 10)
			owner, err := m.reg.Get(o.ModID)
			switch {
			case err == nil:
				name = owner.Name
			case mod.Is(err, mod.CodeModNotExisting):
				m.log.Warn("file owned by unknown mod", "path", o.Path, "owner_id", o.ModID)
			default:
				return rec, err
			}
			conflicts = append(conflicts, mod.Conflict{ModName: name, Path: o.Path})
		}
		return rec, mod.ConflictError(conflicts)
	}

	strategy, err := m.strategy(rec)
	if err != nil {
		return rec, err
	}

	if err := m.journal.RecordPending(ctx, op, rec.ID, files); err != nil {
		return rec, mod.DatabaseError("journal pending files", err)
	}
	rec, err = strategy.Inject(ctx, rec, a, dirs, files)
	if err != nil {
		return rec, err
	}
	if err := m.journal.ClearPendingForMod(context.WithoutCancel(ctx), rec.ID); err != nil {
		m.log.Error("failed to clear pending files", "op", op.ID, "mod_id", rec.ID, "error", err)
	}
	return rec, nil
}

// Deactivate ejects an active mod.
func (m *Manager) Deactivate(ctx context.Context, id uint64) (mod.Record, error) {
	return workpool.Run(ctx, m.pool, func(ctx context.Context) (mod.Record, error) {
		op, err := m.begin(ctx, journal.KindDeactivate, id, "")
		if err != nil {
			return mod.Record{}, err
		}
		rec, err := m.deactivate(ctx, id)
		m.finish(ctx, op, id, false, err)
		return rec, err
	})
}

func (m *Manager) deactivate(ctx context.Context, id uint64) (mod.Record, error) {
	rec, err := m.reg.Get(id)
	if err != nil {
		return mod.Record{}, err
	}
	if !rec.Active {
		return rec, mod.AlreadyDeactivatedError(id)
	}

	strategy, err := m.strategy(rec)
	if err != nil {
		return rec, err
	}
	return strategy.Eject(ctx, rec)
}

// DeactivateAll deactivates every active mod in id order and returns the
// ids it deactivated. It stops at the first failure; mods already handled
// stay deactivated.
func (m *Manager) DeactivateAll(ctx context.Context) ([]uint64, error) {
	return workpool.Run(ctx, m.pool, func(ctx context.Context) ([]uint64, error) {
		op, err := m.begin(ctx, journal.KindDeactivateAll, 0, "")
		if err != nil {
			return nil, err
		}
		ids, err := m.deactivateAll(ctx)
		m.finish(ctx, op, 0, false, err)
		return ids, err
	})
}

func (m *Manager) deactivateAll(ctx context.Context) ([]uint64, error) {
	records, err := m.reg.List()
	if err != nil {
		return nil, err
	}

	done := []uint64{}
	for _, rec := range records {
		if !rec.Active {
			continue
		}
		if _, err := m.deactivate(ctx, rec.ID); err != nil {
			return done, err
		}
		done = append(done, rec.ID)
	}
	return done, nil
}

// List returns every registered mod ordered by id.
func (m *Manager) List(ctx context.Context) ([]mod.Record, error) {
	return workpool.Run(ctx, m.pool, func(context.Context) ([]mod.Record, error) {
		records, err := m.reg.List()
		if records == nil && err == nil {
			records = []mod.Record{}
		}
		return records, err
	})
}

// SetDestination validates and stores a new destination. When it differs
// from the current one, every active mod is deactivated first so its files
// are removed from the old location.
func (m *Manager) SetDestination(ctx context.Context, root, language string) (bool, error) {
	return workpool.Run(ctx, m.pool, func(ctx context.Context) (bool, error) {
		op, err := m.begin(ctx, journal.KindSetDestination, 0, root+" ("+language+")")
		if err != nil {
			return false, err
		}
		changed, err := m.setDestination(ctx, root, language)
		m.finish(ctx, op, 0, false, err)
		return changed, err
	})
}

func (m *Manager) setDestination(ctx context.Context, root, language string) (bool, error) {
	abs, err := config.ValidateRoot(root)
	if err != nil {
		return false, err
	}
	lang, err := config.ParseLanguage(language)
	if err != nil {
		return false, err
	}
	curRoot, _ := m.dest.DestinationRoot()
	curLang, _ := m.dest.DestinationLanguage()
	if abs == curRoot && lang == curLang {
		return false, nil
	}

	if _, err := m.deactivateAll(ctx); err != nil {
		return false, err
	}
	changed, err := m.dest.SetDestination(abs, lang)
	if err != nil {
		return false, err
	}
	m.log.Info("destination changed", "path", abs, "language", lang)
	return changed, nil
}
