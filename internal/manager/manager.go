// Package manager orchestrates the mod lifecycle: add, delete, activate,
// deactivate and the bulk and diagnostic operations built on them.
//
// Every public operation runs on the worker pool and is journaled. The
// manager does not serialize operations. Callers must not run two mutating
// operations against the same registry at once: activation checks for
// conflicts, extracts files and only then records ownership, so concurrent
// activations of overlapping mods could both pass the check.
package manager

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/modloader/internal/events"
	"github.com/roach88/modloader/internal/injection"
	"github.com/roach88/modloader/internal/journal"
	"github.com/roach88/modloader/internal/mod"
	"github.com/roach88/modloader/internal/ownership"
	"github.com/roach88/modloader/internal/registry"
	"github.com/roach88/modloader/internal/workpool"
)

// DestinationConfig reads and replaces the destination settings.
type DestinationConfig interface {
	injection.Destination
	SetDestination(root, language string) (bool, error)
}

// Deps are the manager's collaborators. All fields except Logger and
// RemoveWorkers are required.
type Deps struct {
	Registry    *registry.Registry
	Tracker     *ownership.Tracker
	Journal     *journal.Journal
	Destination DestinationConfig
	Confirmer   events.Confirmer
	Pool        *workpool.Pool

	RemoveWorkers int
	Logger        *slog.Logger
}

// Manager is the mod lifecycle orchestrator. It holds no persistent state
// of its own.
type Manager struct {
	reg     *registry.Registry
	tracker *ownership.Tracker
	journal *journal.Journal
	dest    DestinationConfig
	confirm events.Confirmer
	pool    *workpool.Pool
	inject  injection.Deps
	log     *slog.Logger
}

// New validates deps and builds a Manager.
func New(deps Deps) (*Manager, error) {
	switch {
	case deps.Registry == nil:
		return nil, fmt.Errorf("manager: registry is required")
	case deps.Tracker == nil:
		return nil, fmt.Errorf("manager: tracker is required")
	case deps.Journal == nil:
		return nil, fmt.Errorf("manager: journal is required")
	case deps.Destination == nil:
		return nil, fmt.Errorf("manager: destination config is required")
	case deps.Confirmer == nil:
		return nil, fmt.Errorf("manager: confirmer is required")
	case deps.Pool == nil:
		return nil, fmt.Errorf("manager: worker pool is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		reg:     deps.Registry,
		tracker: deps.Tracker,
		journal: deps.Journal,
		dest:    deps.Destination,
		confirm: deps.Confirmer,
		pool:    deps.Pool,
		inject: injection.Deps{
			Destination:   deps.Destination,
			Registry:      deps.Registry,
			Tracker:       deps.Tracker,
			RemoveWorkers: deps.RemoveWorkers,
			Logger:        logger,
		},
		log: logger,
	}, nil
}

func (m *Manager) strategy(rec mod.Record) (injection.Strategy, error) {
	return injection.For(rec.Injection, m.inject)
}

// requireDestination fails with AppNotInitialized unless both destination
// settings are present.
func (m *Manager) requireDestination() error {
	if _, ok := m.dest.DestinationRoot(); !ok {
		return mod.NotInitializedError("destination root")
	}
	if _, ok := m.dest.DestinationLanguage(); !ok {
		return mod.NotInitializedError("destination language")
	}
	return nil
}

// begin journals the start of an operation. Failing to journal is a
// storage failure and aborts the operation.
func (m *Manager) begin(ctx context.Context, kind journal.Kind, modID uint64, subject string) (journal.Operation, error) {
	op, err := m.journal.Begin(ctx, kind, modID, subject)
	if err != nil {
		return journal.Operation{}, mod.DatabaseError("journal operation", err)
	}
	m.log.Debug("operation started", "op", op.ID, "kind", kind, "mod_id", modID, "path", subject)
	return op, nil
}

// finish journals the outcome. The operation already happened, so a
// journal failure is only logged.
func (m *Manager) finish(ctx context.Context, op journal.Operation, modID uint64, declined bool, opErr error) {
	var err error
	if declined {
		err = m.journal.Decline(context.WithoutCancel(ctx), op, modID)
	} else {
		err = m.journal.Finish(context.WithoutCancel(ctx), op, modID, opErr)
	}
	if err != nil {
		m.log.Error("failed to journal outcome", "op", op.ID, "error", err)
	}

	switch {
	case opErr == nil:
		m.log.Debug("operation finished", "op", op.ID, "kind", op.Kind, "mod_id", modID, "declined", declined)
	case mod.Recoverable(opErr):
		m.log.Info("operation rejected", "op", op.ID, "kind", op.Kind, "mod_id", modID, "error", opErr)
	default:
		m.log.Error("operation failed", "op", op.ID, "kind", op.Kind, "mod_id", modID, "error", opErr)
	}
}
