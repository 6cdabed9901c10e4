// Package registry is the durable set of known mods.
//
// Records live in the "mod records" partition keyed by the decimal form of
// their id. Each registered mod also has a copy of its archive stored as
// <id>.<extension> in the registry directory. Every mutation publishes an
// event after it commits.
package registry

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/roach88/modloader/internal/events"
	"github.com/roach88/modloader/internal/mod"
	"github.com/roach88/modloader/internal/store"
)

// PartitionName is the store partition holding mod records.
const PartitionName = "mod records"

// Options configures New.
type Options struct {
	// ArchiveDir holds the stored archive copies. Created if missing.
	ArchiveDir string

	// Publisher receives one event per committed mutation. Nil discards.
	Publisher events.Publisher

	Logger *slog.Logger
}

// Registry is a logical view over the mod records partition.
type Registry struct {
	ids   idSource
	table *store.Table[recordRow]
	dir   string
	pub   events.Publisher
	log   *slog.Logger
}

type idSource interface {
	NextID() (uint64, error)
}

// New opens the registry over s.
func New(s *store.Store, opts Options) (*Registry, error) {
	if opts.ArchiveDir == "" {
		return nil, fmt.Errorf("registry archive directory is required")
	}
	if err := os.MkdirAll(opts.ArchiveDir, 0o755); err != nil {
		return nil, mod.IOError("create registry directory", err)
	}

	part, err := s.Partition(PartitionName)
	if err != nil {
		return nil, mod.DatabaseError("open mod records", err)
	}

	pub := opts.Publisher
	if pub == nil {
		pub = events.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		ids:   s,
		table: store.NewTable[recordRow](part),
		dir:   opts.ArchiveDir,
		pub:   pub,
		log:   logger,
	}, nil
}

// Create returns a fresh, unpersisted, inactive record with a new id and no
// version, author or description.
func (r *Registry) Create(name string, kind mod.InjectionKind, ext string) (mod.Record, error) {
	id, err := r.ids.NextID()
	if err != nil {
		return mod.Record{}, mod.DatabaseError("generate mod id", err)
	}
	return mod.Record{
		ID:               id,
		Name:             name,
		ArchiveExtension: ext,
		Injection:        kind,
	}, nil
}

// CreateFromManifest returns a fresh, unpersisted record populated from m.
// It fails with InvalidModInfo when the version is not semver.
func (r *Registry) CreateFromManifest(m *mod.Manifest, ext string) (mod.Record, error) {
	if _, err := mod.ParseVersion(m.Version); err != nil {
		return mod.Record{}, mod.InvalidModInfoError(err)
	}
	id, err := r.ids.NextID()
	if err != nil {
		return mod.Record{}, mod.DatabaseError("generate mod id", err)
	}
	return m.NewRecord(id, ext)
}

// FindByName returns the first record named name, scanning the partition.
func (r *Registry) FindByName(name string) (mod.Record, bool, error) {
	var (
		found mod.Record
		ok    bool
	)
	err := r.table.View(func(tx *store.TableTxn[recordRow]) error {
		return tx.ForEach(func(_ []byte, row recordRow) error {
			if !ok && row.Name == name {
				found, ok = row.record(), true
			}
			return nil
		})
	})
	if err != nil {
		return mod.Record{}, false, mod.DatabaseError("scan mod records", err)
	}
	return found, ok, nil
}

// Get returns the record with id or ModNotExisting.
func (r *Registry) Get(id uint64) (mod.Record, error) {
	row, found, err := r.table.Get(recordKey(id))
	if err != nil {
		return mod.Record{}, mod.DatabaseError("read mod record", err)
	}
	if !found {
		return mod.Record{}, mod.NotExistingError(id)
	}
	return row.record(), nil
}

// Put inserts or replaces rec.
func (r *Registry) Put(rec mod.Record) error {
	err := r.table.Update(func(tx *store.TableTxn[recordRow]) error {
		return tx.Put(recordKey(rec.ID), newRecordRow(rec))
	})
	if err != nil {
		return mod.DatabaseError("write mod record", err)
	}
	r.log.Debug("mod record written", "mod_id", rec.ID, "name", rec.Name, "active", rec.Active)
	r.pub.Publish(events.InsertUpdate(rec))
	return nil
}

// SetActive persists the active flag of an existing record.
func (r *Registry) SetActive(id uint64, active bool) (mod.Record, error) {
	var rec mod.Record
	err := r.table.Update(func(tx *store.TableTxn[recordRow]) error {
		row, found := tx.Get(recordKey(id))
		if !found {
			return mod.NotExistingError(id)
		}
		row.Active = active
		rec = row.record()
		return tx.Put(recordKey(id), row)
	})
	if err != nil {
		if mod.Is(err, mod.CodeModNotExisting) {
			return mod.Record{}, err
		}
		return mod.Record{}, mod.DatabaseError("update mod record", err)
	}
	r.log.Debug("mod activation changed", "mod_id", id, "active", active)
	r.pub.Publish(events.InsertUpdate(rec))
	return rec, nil
}

// Delete removes the record with id, failing with ModNotExisting if absent.
// The stored archive copy is left alone; see RemoveArchive.
func (r *Registry) Delete(id uint64) error {
	err := r.table.Update(func(tx *store.TableTxn[recordRow]) error {
		if _, found := tx.Get(recordKey(id)); !found {
			return mod.NotExistingError(id)
		}
		return tx.Delete(recordKey(id))
	})
	if err != nil {
		if mod.Is(err, mod.CodeModNotExisting) {
			return err
		}
		return mod.DatabaseError("delete mod record", err)
	}
	r.log.Debug("mod record deleted", "mod_id", id)
	r.pub.Publish(events.Delete(id))
	return nil
}

// List returns a snapshot of every record ordered by id.
func (r *Registry) List() ([]mod.Record, error) {
	var out []mod.Record
	err := r.table.View(func(tx *store.TableTxn[recordRow]) error {
		return tx.ForEach(func(_ []byte, row recordRow) error {
			out = append(out, row.record())
			return nil
		})
	})
	if err != nil {
		return nil, mod.DatabaseError("list mod records", err)
	}
	// Keys are decimal strings, so byte order is not numeric order.
	slices.SortFunc(out, func(a, b mod.Record) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

// ArchivePath is where the archive copy for rec lives.
func (r *Registry) ArchivePath(rec mod.Record) string {
	return filepath.Join(r.dir, rec.ArchiveFileName())
}

// SaveArchive copies the archive at src into the registry directory under
// rec's id, replacing any previous copy.
func (r *Registry) SaveArchive(rec mod.Record, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return mod.IOError("open archive", err)
	}
	defer in.Close()

	dst := r.ArchivePath(rec)
	tmp, err := os.CreateTemp(r.dir, ".incoming-*")
	if err != nil {
		return mod.IOError("create archive copy", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return mod.IOError("copy archive", err)
	}
	if err := tmp.Close(); err != nil {
		return mod.IOError("close archive copy", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return mod.IOError("store archive copy", err)
	}
	r.log.Debug("archive stored", "mod_id", rec.ID, "path", dst)
	return nil
}

// RemoveArchive deletes rec's archive copy. A missing copy is not an error.
func (r *Registry) RemoveArchive(rec mod.Record) error {
	err := os.Remove(r.ArchivePath(rec))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return mod.IOError("remove archive copy", err)
	}
	return nil
}

func recordKey(id uint64) []byte {
	return []byte(strconv.FormatUint(id, 10))
}
