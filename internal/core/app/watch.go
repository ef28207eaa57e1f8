// # internal/core/app/watch.go
package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"classforge/internal/core/ports"
	"classforge/internal/core/watcher"
	"classforge/internal/shared/util"
)

// StartWatcher begins watching the workspace roots for markup changes.
func (a *App) StartWatcher() error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	w.SetFilters(a.Config.Watch.Extensions, a.Config.Watch.IgnoreSuffixes)

	a.mu.Lock()
	a.activeWatcher = w
	a.mu.Unlock()
	return w.Watch(a.Paths.WorkspacePaths)
}

// HandleChanges reloads every changed workspace file in one batch. A
// deleted file drops its workspace and reports zero counts; a file that
// fails to parse keeps its previous workspace. Push updates go out after
// the engine lock is released, so a subscriber may call straight back
// into the service.
func (a *App) HandleChanges(paths []string) {
	start := time.Now()
	a.mu.Lock()

	var updates []ports.WatchUpdate
	activeReloaded := false

	for _, path := range paths {
		if !a.hasWatchedExtension(path) {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			if _, ok := a.workspaces[path]; !ok {
				continue
			}
			delete(a.workspaces, path)
			a.cache.Forget(path)
			slog.Info("workspace file removed", "path", path)
			updates = append(updates, ports.WatchUpdate{Path: path})
			continue
		}

		outcome, err := a.loadFile(path)
		if err != nil {
			slog.Warn("failed to reload workspace file", "path", path, "error", err)
			continue
		}
		if path == a.active {
			activeReloaded = true
		}
		updates = append(updates, ports.WatchUpdate{
			Path:    path,
			Blocks:  outcome.ws.BlockCount(),
			Classes: classCount(outcome.ws),
		})
	}

	_, activeLoaded := a.workspaces[a.active]
	if !activeLoaded || a.active == "" {
		a.activateFallback()
	} else if activeReloaded {
		// The active workspace was rebuilt; the recorder still listens
		// on the discarded instance.
		a.attachRecorder()
	}

	a.syncCatalog()
	a.updateGauges()
	a.mu.Unlock()

	for _, update := range updates {
		a.emitUpdate(update)
	}
	slog.Info("workspace reload complete", "files", len(paths), "duration", time.Since(start))
}

// activateFallback switches to the lexically first loaded workspace, or
// to the scratch workspace when none is left. No-op when that is already
// the active one.
func (a *App) activateFallback() {
	next := ""
	for _, path := range util.SortedStringKeys(a.workspaces) {
		if path != "" {
			next = path
			break
		}
	}
	if next == a.active {
		return
	}
	a.setActive(next)
}

type watchService struct {
	app *App
}

var _ ports.WatchService = (*watchService)(nil)

func (a *App) WatchService() ports.WatchService {
	return &watchService{app: a}
}

func (s *watchService) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.app.StartWatcher()
}

func (s *watchService) Subscribe(handler func(ports.WatchUpdate)) {
	s.app.AddUpdateHandler(handler)
}

func (s *watchService) Close() error {
	s.app.mu.Lock()
	defer s.app.mu.Unlock()
	if s.app.activeWatcher == nil {
		return nil
	}
	err := s.app.activeWatcher.Close()
	s.app.activeWatcher = nil
	return err
}
