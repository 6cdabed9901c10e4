// Package archive opens mod archives and reads their entries.
//
// Supported formats are zip, tar and gzip-compressed tar (.tgz, .gz).
// Entry names are reported with forward slashes, without a leading "./",
// in Unicode NFC. Directory entries end with "/".
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/modloader/internal/mod"
)

// Extensions lists the recognised archive extensions, lower case.
var Extensions = []string{"zip", "tar", "tgz", "gz"}

// Archive is an opened, validated mod archive on disk.
type Archive struct {
	// Path is the absolute path with symlinks resolved.
	Path string

	// Name is the file name up to its first '.'.
	Name string

	// Extension is the last extension, lower case, without the dot.
	Extension string

	codec codec
}

// Open validates path and prepares the archive for reading.
//
// It fails with InvalidArchive when the path does not exist, is not a
// regular file, or lacks a recognised extension.
func Open(p string) (*Archive, error) {
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, mod.InvalidArchiveError(mod.PathNotExisting, p)
		}
		return nil, mod.IOError("stat archive", err)
	}
	if !info.Mode().IsRegular() {
		return nil, mod.InvalidArchiveError(mod.PathNotFile, p)
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, mod.IOError("resolve archive path", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, mod.IOError("resolve archive path", err)
	}

	base := filepath.Base(resolved)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	if ext == "" {
		return nil, mod.InvalidArchiveError(mod.NoExtension, p)
	}
	ext = strings.ToLower(ext)

	c, ok := codecFor(ext)
	if !ok {
		return nil, mod.InvalidArchiveError(mod.InvalidExtension, p)
	}

	name, _, _ := strings.Cut(base, ".")
	if name == "" {
		name = "Unknown"
	}

	return &Archive{
		Path:      resolved,
		Name:      name,
		Extension: ext,
		codec:     c,
	}, nil
}

// Entries lists every file and directory entry in archive order.
func (a *Archive) Entries() ([]string, error) {
	var names []string
	err := a.codec.walk(a.Path, func(e entry) (bool, error) {
		names = append(names, e.name)
		return true, nil
	})
	if err != nil {
		return nil, mod.ArchiveError("list archive entries", err)
	}
	return names, nil
}

// ReadEntry returns the content of the file entry called name.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	var (
		data  []byte
		found bool
	)
	err := a.codec.walk(a.Path, func(e entry) (bool, error) {
		if e.dir || e.name != name {
			return true, nil
		}
		b, err := e.read()
		if err != nil {
			return false, err
		}
		data, found = b, true
		return false, nil
	})
	if err != nil {
		return nil, mod.ArchiveError("read archive entry "+name, err)
	}
	if !found {
		return nil, mod.ArchiveError("read archive entry", fmt.Errorf("entry %q not found", name))
	}
	return data, nil
}

// Manifest reads and parses the root-level modinfo.json, matched without
// regard to case. It returns nil, nil when the archive has no manifest.
func (a *Archive) Manifest() (*mod.Manifest, error) {
	entries, err := a.Entries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !mod.IsManifestEntry(e) {
			continue
		}
		data, err := a.ReadEntry(e)
		if err != nil {
			return nil, err
		}
		return mod.ParseManifest(data)
	}
	return nil, nil
}

// DirsAndFiles splits the entries into directories and files, leaving out
// the manifest. Entries that would escape the destination root fail with
// ArchiveHandling.
func (a *Archive) DirsAndFiles() (dirs, files []string, err error) {
	entries, err := a.Entries()
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if err := checkEntry(e); err != nil {
			return nil, nil, err
		}
		switch {
		case strings.HasSuffix(e, "/"):
			dirs = append(dirs, e)
		case mod.IsManifestEntry(e):
		default:
			files = append(files, e)
		}
	}
	return dirs, files, nil
}

// normalizeName converts a raw entry name to the reported form.
func normalizeName(raw string, dir bool) string {
	name := strings.ReplaceAll(raw, "\\", "/")
	for strings.HasPrefix(name, "./") {
		name = strings.TrimPrefix(name, "./")
	}
	name = norm.NFC.String(name)
	if dir && name != "" && !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return name
}

// checkEntry rejects names that are absolute or climb out of the root.
func checkEntry(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return mod.ArchiveError("unsafe archive entry", fmt.Errorf("%q is not a relative path", name))
	}
	for _, part := range strings.Split(strings.TrimSuffix(name, "/"), "/") {
		if part == ".." {
			return mod.ArchiveError("unsafe archive entry", fmt.Errorf("%q escapes the destination", name))
		}
	}
	if path.Clean(name) == "." {
		return mod.ArchiveError("unsafe archive entry", fmt.Errorf("%q names the destination root", name))
	}
	return nil
}
