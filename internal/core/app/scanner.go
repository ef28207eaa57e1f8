// # internal/core/app/scanner.go
package app

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"classforge/internal/data/markup"
	"classforge/internal/engine/propagate"
	"classforge/internal/engine/workspace"
	"classforge/internal/shared/observability"
)

// DiscoverFiles walks the configured workspace roots and returns every
// workspace file with a watched extension, honoring the exclude
// patterns. Roots are deduplicated and visited in sorted order, so the
// result is stable across runs.
func (a *App) DiscoverFiles() ([]string, error) {
	dirGlobs, err := compileGlobs(a.Config.Exclude.Dirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(a.Config.Exclude.Files, "exclude file")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, root := range uniqueScanRoots(a.Paths.WorkspacePaths) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if !a.hasWatchedExtension(path) {
				return nil
			}
			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}

			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func (a *App) hasWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, watched := range a.Config.Watch.Extensions {
		if ext == watched {
			return true
		}
	}
	return false
}

func uniqueScanRoots(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized := filepath.Clean(p)
		if abs, err := filepath.Abs(normalized); err == nil {
			normalized = filepath.Clean(abs)
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		roots = append(roots, normalized)
	}
	sort.Strings(roots)
	return roots
}

type loadOutcome struct {
	ws        *workspace.Workspace
	refreshed int
	fromCache bool
}

// loadFile parses one workspace file into a fresh workspace, runs the
// post-load refresh pass and swaps the result into the set. A failed
// read or parse leaves the previous workspace for the path in place.
// Callers must hold mu.
func (a *App) loadFile(path string) (loadOutcome, error) {
	start := time.Now()

	content, err := os.ReadFile(path)
	if err != nil {
		return loadOutcome{}, err
	}
	doc, fromCache, err := a.cache.Load(path, content)
	if err != nil {
		observability.ReloadDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return loadOutcome{}, err
	}

	ws := workspace.New(a.registry, a.workspaceOptions()...)
	if err := markup.Restore(ws, doc); err != nil {
		observability.ReloadDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return loadOutcome{}, err
	}
	refreshed := propagate.RefreshAll(ws)

	a.workspaces[path] = ws
	observability.ReloadDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return loadOutcome{ws: ws, refreshed: refreshed, fromCache: fromCache}, nil
}

// InitialScan loads every discovered workspace file, makes the first
// loadable one active and runs the first catalog sync. The journal
// recorder attaches only after loading, so restore traffic never shows
// up as user edits.
func (a *App) InitialScan() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	files, err := a.DiscoverFiles()
	if err != nil {
		return err
	}

	loaded := 0
	for _, path := range files {
		if _, err := a.loadFile(path); err != nil {
			slog.Warn("failed to load workspace file", "path", path, "error", err)
			continue
		}
		loaded++
	}

	for _, path := range files {
		if _, ok := a.workspaces[path]; ok {
			a.setActive(path)
			break
		}
	}
	if a.recorder == nil {
		a.attachRecorder()
	}

	a.syncCatalog()
	a.updateGauges()
	slog.Info("initial scan complete", "files", loaded, "active", a.active)
	return nil
}
