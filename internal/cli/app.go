package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/roach88/modloader/internal/config"
	"github.com/roach88/modloader/internal/events"
	"github.com/roach88/modloader/internal/journal"
	"github.com/roach88/modloader/internal/manager"
	"github.com/roach88/modloader/internal/mod"
	"github.com/roach88/modloader/internal/ownership"
	"github.com/roach88/modloader/internal/registry"
	"github.com/roach88/modloader/internal/store"
	"github.com/roach88/modloader/internal/workpool"
)

// Files inside the data directory.
const (
	storeFile   = "store.db"
	journalFile = "journal.db"
	registryDir = "registry"
)

// newLogger builds the process logger: slog on top of a charm handler
// writing to w. Verbose lowers the level to debug.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "modloader",
		ReportTimestamp: verbose,
		TimeFormat:      time.TimeOnly,
	})
	return slog.New(handler)
}

// app is the wired component graph for one command invocation.
type app struct {
	config  *config.Provider
	store   *store.Store
	journal *journal.Journal
	hub     *events.Hub
	pool    *workpool.Pool
	manager *manager.Manager
	log     *slog.Logger

	unsubscribe func()
}

// openApp loads config and opens the store and journal. The caller must
// Close the app; Close flushes the store even while a panic unwinds.
func openApp(opts *RootOptions, logger *slog.Logger) (*app, error) {
	provider, err := config.Load(config.LoadOptions{ConfigFile: opts.ConfigFile, DataDir: opts.DataDir})
	if err != nil {
		return nil, err
	}
	cfg := provider.Config()
	logger.Debug("config loaded", "path", provider.Path(), "data_dir", cfg.DataDir)

	a := &app{config: provider, log: logger, unsubscribe: func() {}}

	a.store, err = store.Open(filepath.Join(cfg.DataDir, storeFile), store.Options{
		FlushInterval: cfg.Store.FlushInterval,
		CacheCapacity: cfg.Store.CacheCapacity,
		Logger:        logger,
	})
	if err != nil {
		return nil, mod.DatabaseError("open store", err)
	}

	a.journal, err = journal.Open(filepath.Join(cfg.DataDir, journalFile), journal.Options{})
	if err != nil {
		a.Close()
		return nil, mod.DatabaseError("open journal", err)
	}

	a.hub = events.NewHub(events.HubOptions{ConfirmTimeout: cfg.ConfirmTimeout, Logger: logger})
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		a.unsubscribe = logEvents(a.hub, logger)
	}

	reg, err := registry.New(a.store, registry.Options{
		ArchiveDir: filepath.Join(cfg.DataDir, registryDir),
		Publisher:  a.hub,
		Logger:     logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	tracker, err := ownership.New(a.store, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.pool = workpool.New(cfg.Workers)
	a.manager, err = manager.New(manager.Deps{
		Registry:      reg,
		Tracker:       tracker,
		Journal:       a.journal,
		Destination:   provider,
		Confirmer:     a.hub,
		Pool:          a.pool,
		RemoveWorkers: cfg.Workers,
		Logger:        logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// logEvents mirrors registry changes into the debug log until the returned
// func is called.
func logEvents(hub *events.Hub, logger *slog.Logger) func() {
	ch, cancel := hub.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch {
			logger.Debug("registry event", "kind", e.Kind, "mod_id", e.ID)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Close waits for in-flight work, then releases everything in reverse
// order of opening. The store is closed last so its final flush runs.
func (a *app) Close() error {
	if a.pool != nil {
		a.pool.Wait()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	a.unsubscribe()

	var errs []error
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Error("shutdown failed", "error", err)
		return err
	}
	return nil
}
