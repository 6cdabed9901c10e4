// Package injection materializes mod files at their destination and
// removes them again.
//
// Each mod.InjectionKind maps to exactly one Strategy. Strategies assume the
// caller already checked activation state and file conflicts.
package injection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/modloader/internal/archive"
	"github.com/roach88/modloader/internal/mod"
	"github.com/roach88/modloader/internal/ownership"
	"github.com/roach88/modloader/internal/registry"
)

// Destination supplies the target installation settings.
type Destination interface {
	DestinationRoot() (string, bool)
	DestinationLanguage() (string, bool)
}

// Strategy moves a mod between the inactive and active states.
type Strategy interface {
	// Inject creates dirs, extracts files, records ownership for every file
	// and persists rec as active. Ownership is recorded only after all files
	// are written.
	Inject(ctx context.Context, rec mod.Record, a *archive.Archive, dirs, files []string) (mod.Record, error)

	// Eject deletes every file rec owns, tolerating files that are already
	// gone, drops the ownership rows and persists rec as inactive.
	Eject(ctx context.Context, rec mod.Record) (mod.Record, error)
}

// Locator is implemented by strategies that place every file under one
// base directory.
type Locator interface {
	Base() (string, error)
}

// Deps are the collaborators shared by all strategies.
type Deps struct {
	Destination Destination
	Registry    *registry.Registry
	Tracker     *ownership.Tracker

	// RemoveWorkers bounds parallel file removal during Eject.
	RemoveWorkers int

	Logger *slog.Logger
}

// For returns the strategy for kind.
func For(kind mod.InjectionKind, deps Deps) (Strategy, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.RemoveWorkers < 1 {
		deps.RemoveWorkers = 1
	}

	switch kind {
	case mod.InjectionLocalization:
		return &Localization{deps: deps}, nil
	default:
		return nil, mod.InvalidModInfoError(fmt.Errorf("no injection strategy for %s", kind))
	}
}
