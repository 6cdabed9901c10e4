package registry

import "github.com/roach88/modloader/internal/mod"

// recordRow is the stored form of mod.Record. Field order is the wire
// format; append new fields at the end.
type recordRow struct {
	_                struct{} `cbor:",toarray"`
	ID               uint64
	Name             string
	ArchiveExtension string
	Author           *string
	Version          *string
	Description      *string
	Injection        uint8
	Active           bool
}

func newRecordRow(rec mod.Record) recordRow {
	row := recordRow{
		ID:               rec.ID,
		Name:             rec.Name,
		ArchiveExtension: rec.ArchiveExtension,
		Author:           rec.Author,
		Description:      rec.Description,
		Injection:        uint8(rec.Injection),
		Active:           rec.Active,
	}
	if rec.Version != nil {
		v := rec.Version.String()
		row.Version = &v
	}
	return row
}

// record converts back. Versions were validated before they were written,
// so a parse failure means corrupted data and panics.
func (row recordRow) record() mod.Record {
	rec := mod.Record{
		ID:               row.ID,
		Name:             row.Name,
		ArchiveExtension: row.ArchiveExtension,
		Author:           row.Author,
		Description:      row.Description,
		Injection:        mod.InjectionKind(row.Injection),
		Active:           row.Active,
	}
	if row.Version != nil {
		v := mod.MustParseVersion(*row.Version)
		rec.Version = &v
	}
	return rec
}
