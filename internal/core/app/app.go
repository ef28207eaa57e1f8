// # internal/core/app/app.go

// Package app is the composition root. It owns the loaded workspaces,
// the class catalog, the event journal and the file watcher, and exposes
// the engine to session transports through the ports interfaces. Engine
// state is single-threaded; every entry point serializes on one mutex.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"classforge/internal/core/config"
	"classforge/internal/core/ports"
	"classforge/internal/core/watcher"
	"classforge/internal/data/history"
	"classforge/internal/data/markup"
	"classforge/internal/data/store"
	"classforge/internal/engine/index"
	"classforge/internal/engine/oop"
	"classforge/internal/engine/workspace"
	"classforge/internal/shared/observability"
	"classforge/internal/shared/util"
)

const documentCacheSize = 64

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	registry *workspace.Registry
	cache    *markup.DocumentCache

	// mu serializes all engine access: session operations, watcher
	// reloads and catalog syncs.
	mu         sync.Mutex
	workspaces map[string]*workspace.Workspace
	active     string
	recorder   *history.Recorder

	catalog *store.Catalog
	journal *history.Store

	activeWatcher *watcher.Watcher

	updateMu sync.RWMutex
	handlers []func(ports.WatchUpdate)

	startedAt time.Time
}

func New(cfg *config.Config) (*App, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, err
	}

	cache, err := markup.NewDocumentCache(documentCacheSize)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Paths:      paths,
		registry:   oop.NewRegistry(),
		cache:      cache,
		workspaces: make(map[string]*workspace.Workspace),
		startedAt:  time.Now(),
	}

	if err := a.openStores(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) openStores() error {
	if a.Config.Database.Enabled {
		catalog, err := store.OpenCatalog(a.Paths.CatalogPath, a.Config.Database.WorkspaceKey)
		if err != nil {
			return fmt.Errorf("open class catalog: %w", err)
		}
		a.catalog = catalog
	}
	if a.Config.History.IsEnabled() {
		journal, err := history.Open(a.Paths.JournalPath)
		if err != nil {
			return fmt.Errorf("open event journal: %w", err)
		}
		a.journal = journal
	}
	return nil
}

// Close flushes pending journal entries and releases the watcher and
// both stores.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			errs = append(errs, err)
		}
		a.activeWatcher = nil
	}
	a.flushRecorder()
	if a.recorder != nil {
		a.recorder.Detach()
		a.recorder = nil
	}
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			errs = append(errs, err)
		}
		a.catalog = nil
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			errs = append(errs, err)
		}
		a.journal = nil
	}
	return errors.Join(errs...)
}

// workspaceOptions builds the options every workspace in this process
// shares, so a reload cannot change naming semantics mid-session.
func (a *App) workspaceOptions() []workspace.WorkspaceOption {
	var opts []workspace.WorkspaceOption
	if a.Config.Naming.CaseInsensitive {
		opts = append(opts, workspace.WithNameEquals(strings.EqualFold))
	}
	return opts
}

// Active returns the workspace session operations run against. Before
// any file has loaded this is an empty scratch workspace, which keeps
// read operations total. Callers must hold mu.
func (a *App) Active() *workspace.Workspace {
	if ws, ok := a.workspaces[a.active]; ok {
		return ws
	}
	ws := workspace.New(a.registry, a.workspaceOptions()...)
	a.workspaces[a.active] = ws
	return ws
}

// ActivePath reports which file the active workspace came from, empty
// for the scratch workspace.
func (a *App) ActivePath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

func (a *App) setActive(path string) {
	a.active = path
	a.attachRecorder()
}

// attachRecorder points the journal recorder at the active workspace.
// Attachment happens after a load completes, so block-building events
// from restoring a file never show up as user edits. A previous
// recorder is flushed before it detaches.
func (a *App) attachRecorder() {
	if a.journal == nil {
		return
	}
	if a.recorder != nil {
		a.flushRecorder()
		a.recorder.Detach()
	}
	a.recorder = history.Record(a.Active(), a.Config.Database.WorkspaceKey, "session")
}

func (a *App) flushRecorder() {
	if a.recorder == nil || a.journal == nil {
		return
	}
	if err := a.recorder.Flush(a.journal); err != nil {
		slog.Error("failed to flush journal entries", "error", err)
	}
}

// afterMutation runs the bookkeeping every state-changing operation
// shares: journal flush, catalog sync and gauge refresh.
func (a *App) afterMutation() {
	a.flushRecorder()
	a.syncCatalog()
	a.updateGauges()
}

// syncCatalog pushes the union of every loaded workspace into the class
// catalog. Paths are visited in sorted order, so a class defined in two
// files resolves to the lexically later one.
func (a *App) syncCatalog() {
	if a.catalog == nil {
		return
	}
	var (
		classes []store.ClassRow
		sites   []store.SiteRow
	)
	for _, path := range util.SortedStringKeys(a.workspaces) {
		c, s := store.CollectRows(a.workspaces[path])
		classes = append(classes, c...)
		sites = append(sites, s...)
	}
	if err := a.catalog.SyncWorkspace(classes, sites); err != nil {
		slog.Error("catalog sync failed", "error", err)
	}
}

func (a *App) updateGauges() {
	blocks, classes, dangling := 0, 0, 0
	for _, ws := range a.workspaces {
		for _, b := range ws.AllBlocks(false) {
			blocks++
			if _, ok := b.(workspace.ClassDefiner); ok {
				classes++
			}
			if sr, ok := b.(index.SiteReporter); ok {
				if snap := sr.BindingSnapshot(); snap.BoundClass != "" && !snap.Finalized {
					dangling++
				}
			}
		}
	}
	observability.WorkspaceBlocks.Set(float64(blocks))
	observability.WorkspaceClasses.Set(float64(classes))
	observability.DanglingSites.Set(float64(dangling))
}

func classCount(ws *workspace.Workspace) int {
	n := 0
	for _, b := range ws.AllBlocks(false) {
		if _, ok := b.(workspace.ClassDefiner); ok {
			n++
		}
	}
	return n
}

// AddUpdateHandler registers a push subscriber. Handlers run outside the
// engine mutex and may call back into the service.
func (a *App) AddUpdateHandler(handler func(ports.WatchUpdate)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.handlers = append(a.handlers, handler)
}

func (a *App) emitUpdate(update ports.WatchUpdate) {
	a.updateMu.RLock()
	handlers := append([]func(ports.WatchUpdate){}, a.handlers...)
	a.updateMu.RUnlock()
	for _, handler := range handlers {
		handler(update)
	}
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}
