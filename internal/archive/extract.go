package archive

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/modloader/internal/mod"
)

// ExtractTo writes each listed file entry to root/<entry>, creating parent
// directories as needed and replacing existing files. Every name must be a
// file entry of this archive.
func (a *Archive) ExtractTo(root string, files []string) error {
	if len(files) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(files))
	for _, f := range files {
		if err := checkEntry(f); err != nil {
			return err
		}
		wanted[f] = true
	}

	var ioErr error
	err := a.codec.walk(a.Path, func(e entry) (bool, error) {
		if e.dir || !wanted[e.name] {
			return true, nil
		}
		if err := writeEntry(root, e); err != nil {
			ioErr = err
			return false, nil
		}
		delete(wanted, e.name)
		return len(wanted) > 0, nil
	})
	if ioErr != nil {
		return ioErr
	}
	if err != nil {
		return mod.ArchiveError("extract archive", err)
	}
	if len(wanted) > 0 {
		missing := slices.Sorted(maps.Keys(wanted))
		return mod.ArchiveError("extract archive", fmt.Errorf("entries not found: %q", missing))
	}
	return nil
}

func writeEntry(root string, e entry) error {
	dst := filepath.Join(root, filepath.FromSlash(e.name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return mod.IOError("create directory", err)
	}

	rc, err := e.open()
	if err != nil {
		return mod.ArchiveError("open archive entry "+e.name, err)
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return mod.IOError("create file", err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return mod.ArchiveError("extract archive entry "+e.name, err)
	}
	if err := out.Close(); err != nil {
		return mod.IOError("close file", err)
	}
	return nil
}
