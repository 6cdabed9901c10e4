package injection

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/modloader/internal/archive"
	"github.com/roach88/modloader/internal/mod"
)

// localizationDir is used when the destination has no existing match.
const localizationDir = "localization"

// Localization copies mod files into <root>/localization/<language>.
type Localization struct {
	deps Deps
}

// Base resolves the injection root, failing with AppNotInitialized when
// the destination is not configured.
func (l *Localization) Base() (string, error) {
	root, ok := l.deps.Destination.DestinationRoot()
	if !ok {
		return "", mod.NotInitializedError("destination root")
	}
	lang, ok := l.deps.Destination.DestinationLanguage()
	if !ok {
		return "", mod.NotInitializedError("destination language")
	}
	return filepath.Join(root, findLocalizationDir(root), lang), nil
}

func (l *Localization) Inject(ctx context.Context, rec mod.Record, a *archive.Archive, dirs, files []string) (mod.Record, error) {
	base, err := l.Base()
	if err != nil {
		return rec, err
	}
	log := l.deps.Logger.With("mod_id", rec.ID, "name", rec.Name)

	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(base, filepath.FromSlash(d)), 0o755); err != nil {
			return rec, mod.IOError("create mod directory", err)
		}
	}

	log.Debug("extracting mod files", "path", base, "files", len(files))
	if err := a.ExtractTo(base, files); err != nil {
		return rec, err
	}

	if err := l.deps.Tracker.Insert(rec.ID, files); err != nil {
		return rec, err
	}

	active, err := l.deps.Registry.SetActive(rec.ID, true)
	if err != nil {
		return rec, err
	}
	log.Info("mod injected", "files", len(files))
	return active, nil
}

func (l *Localization) Eject(ctx context.Context, rec mod.Record) (mod.Record, error) {
	base, err := l.Base()
	if err != nil {
		return rec, err
	}

	paths, err := l.deps.Tracker.OwnedPaths(rec.ID)
	if err != nil {
		return rec, err
	}

	// Not cancellable once started: ownership rows must match the files left.
	var g errgroup.Group
	g.SetLimit(l.deps.RemoveWorkers)
	for _, p := range paths {
		g.Go(func() error {
			err := os.Remove(filepath.Join(base, filepath.FromSlash(p)))
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return mod.IOError("remove mod file", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rec, err
	}

	if err := l.deps.Tracker.Remove(paths); err != nil {
		return rec, err
	}

	inactive, err := l.deps.Registry.SetActive(rec.ID, false)
	if err != nil {
		return rec, err
	}
	l.deps.Logger.Info("mod ejected", "mod_id", rec.ID, "name", rec.Name, "files", len(paths))
	return inactive, nil
}

// findLocalizationDir returns the existing child of root named
// "localization" in any case, or the lower-case name if there is none.
func findLocalizationDir(root string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return localizationDir
	}
	for _, e := range entries {
		if e.IsDir() && strings.EqualFold(e.Name(), localizationDir) {
			return e.Name()
		}
	}
	return localizationDir
}
