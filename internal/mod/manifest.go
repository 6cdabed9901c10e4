package mod

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// ManifestFileName is the conventional in-archive metadata file, matched
// without regard to case.
const ManifestFileName = "modinfo.json"

//go:embed manifest_schema.cue
var manifestSchema string

// Manifest is the author-supplied metadata read from modinfo.json.
type Manifest struct {
	Name        string `json:"name"`
	Author      string `json:"author"`
	Version     string `json:"version"`
	Description string `json:"info"`
	Injection   string `json:"injection"`
}

// IsManifestEntry reports whether an archive entry is the root-level manifest.
func IsManifestEntry(entry string) bool {
	return strings.EqualFold(strings.TrimPrefix(entry, "./"), ManifestFileName)
}

// ParseManifest validates data against the manifest schema and decodes it.
// JSON is a subset of CUE, so the document is compiled directly and unified
// with #Manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(manifestSchema)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", schema.Err())
	}

	doc := ctx.CompileBytes(data, cue.Filename(ManifestFileName))
	if doc.Err() != nil {
		return nil, InvalidModInfoError(formatCUEError(doc.Err()))
	}

	unified := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, InvalidModInfoError(formatCUEError(err))
	}

	var m Manifest
	if err := unified.Decode(&m); err != nil {
		return nil, InvalidModInfoError(formatCUEError(err))
	}
	return &m, nil
}

// NewRecord builds an unregistered record from the manifest.
// The version must be strict semver.
func (m *Manifest) NewRecord(id uint64, archiveExtension string) (Record, error) {
	version, err := ParseVersion(m.Version)
	if err != nil {
		return Record{}, InvalidModInfoError(err)
	}
	kind, err := ParseInjectionKind(m.Injection)
	if err != nil {
		return Record{}, InvalidModInfoError(err)
	}

	author := m.Author
	description := m.Description
	return Record{
		ID:               id,
		Name:             m.Name,
		ArchiveExtension: archiveExtension,
		Author:           &author,
		Version:          &version,
		Description:      &description,
		Injection:        kind,
	}, nil
}

func formatCUEError(err error) error {
	var msgs []string
	for _, e := range errors.Errors(err) {
		msgs = append(msgs, errors.Details(e, nil))
	}
	if len(msgs) == 0 {
		return err
	}
	return fmt.Errorf("%s", strings.TrimSpace(strings.Join(msgs, "; ")))
}
