// Package ownership tracks which mod owns each materialized destination file.
//
// Keys are destination-relative paths compared byte for byte; values are
// owning mod ids. Presence means some active mod claims the file.
package ownership

import (
	"log/slog"

	"github.com/roach88/modloader/internal/mod"
	"github.com/roach88/modloader/internal/store"
)

// PartitionName is the store partition holding ownership rows.
const PartitionName = "file ownership"

// Owner pairs a contested path with the id of the mod that owns it.
type Owner struct {
	ModID uint64
	Path  string
}

// Tracker is a logical view over the file ownership partition.
type Tracker struct {
	table *store.Table[uint64]
	log   *slog.Logger
}

// New opens the tracker over s.
func New(s *store.Store, logger *slog.Logger) (*Tracker, error) {
	part, err := s.Partition(PartitionName)
	if err != nil {
		return nil, mod.DatabaseError("open file ownership", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{table: store.NewTable[uint64](part), log: logger}, nil
}

// Conflicts returns, in input order, every path already owned by some mod.
// All lookups share one read transaction.
func (t *Tracker) Conflicts(paths []string) ([]Owner, error) {
	var owners []Owner
	err := t.table.View(func(tx *store.TableTxn[uint64]) error {
		for _, p := range paths {
			if id, found := tx.Get([]byte(p)); found {
				owners = append(owners, Owner{ModID: id, Path: p})
			}
		}
		return nil
	})
	if err != nil {
		return nil, mod.DatabaseError("check file ownership", err)
	}
	return owners, nil
}

// Insert records modID as the owner of every path in one transaction.
//
// Insert does not check for existing owners and overwrites them; callers
// must run Conflicts first.
func (t *Tracker) Insert(modID uint64, paths []string) error {
	err := t.table.Update(func(tx *store.TableTxn[uint64]) error {
		for _, p := range paths {
			if err := tx.Put([]byte(p), modID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mod.DatabaseError("record file ownership", err)
	}
	t.log.Debug("file ownership recorded", "mod_id", modID, "files", len(paths))
	return nil
}

// Remove drops the rows for paths in one transaction. Absent paths are
// ignored.
func (t *Tracker) Remove(paths []string) error {
	err := t.table.Update(func(tx *store.TableTxn[uint64]) error {
		for _, p := range paths {
			if err := tx.Delete([]byte(p)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mod.DatabaseError("remove file ownership", err)
	}
	t.log.Debug("file ownership removed", "files", len(paths))
	return nil
}

// OwnedPaths returns every path owned by modID in key order, scanning the
// whole partition.
func (t *Tracker) OwnedPaths(modID uint64) ([]string, error) {
	var paths []string
	err := t.table.View(func(tx *store.TableTxn[uint64]) error {
		return tx.ForEach(func(key []byte, owner uint64) error {
			if owner == modID {
				paths = append(paths, string(key))
			}
			return nil
		})
	})
	if err != nil {
		return nil, mod.DatabaseError("list owned files", err)
	}
	return paths, nil
}

// Count returns the number of tracked paths.
func (t *Tracker) Count() (int, error) {
	n := 0
	err := t.table.View(func(tx *store.TableTxn[uint64]) error {
		return tx.ForEach(func([]byte, uint64) error {
			n++
			return nil
		})
	})
	if err != nil {
		return 0, mod.DatabaseError("count owned files", err)
	}
	return n, nil
}
