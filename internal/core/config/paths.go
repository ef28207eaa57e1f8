// # internal/core/config/paths.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvedPaths holds every configured path as an absolute, cleaned
// location. Relative entries resolve against the workspace root, which
// itself resolves against cwd or is detected from markers.
type ResolvedPaths struct {
	WorkspaceRoot  string
	WorkspacePaths []string
	StateDir       string
	DatabaseDir    string
	CatalogPath    string
	JournalPath    string
	OutputRoot     string
	DiagramsDir    string
}

func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	workspaceRoot := strings.TrimSpace(cfg.Paths.WorkspaceRoot)
	if workspaceRoot != "" {
		workspaceRoot = ResolveRelative(cwd, workspaceRoot)
	} else {
		root, err := DetectWorkspaceRoot(append(append([]string(nil), cfg.WorkspacePaths...), cwd))
		if err != nil {
			return ResolvedPaths{}, err
		}
		workspaceRoot = root
	}

	workspacePaths := make([]string, 0, len(cfg.WorkspacePaths))
	for _, p := range cfg.WorkspacePaths {
		workspacePaths = append(workspacePaths, ResolveRelative(workspaceRoot, p))
	}

	stateDir := ResolveRelative(workspaceRoot, cfg.Paths.StateDir)
	databaseDir := ResolveRelative(workspaceRoot, cfg.Paths.DatabaseDir)

	catalogPath := resolveFile(databaseDir, cfg.Database.CatalogPath)
	journalPath := resolveFile(databaseDir, cfg.Database.JournalPath)

	outputRoot := strings.TrimSpace(cfg.Output.Paths.Root)
	if outputRoot == "" {
		outputRoot = workspaceRoot
	} else {
		outputRoot = ResolveRelative(workspaceRoot, outputRoot)
	}
	diagramsDir := ResolveRelative(outputRoot, cfg.Output.Paths.DiagramsDir)

	return ResolvedPaths{
		WorkspaceRoot:  filepath.Clean(workspaceRoot),
		WorkspacePaths: workspacePaths,
		StateDir:       filepath.Clean(stateDir),
		DatabaseDir:    filepath.Clean(databaseDir),
		CatalogPath:    filepath.Clean(catalogPath),
		JournalPath:    filepath.Clean(journalPath),
		OutputRoot:     filepath.Clean(outputRoot),
		DiagramsDir:    filepath.Clean(diagramsDir),
	}, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

func resolveFile(dir, value string) string {
	raw := strings.TrimSpace(value)
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(dir, raw))
}

// DetectWorkspaceRoot walks upward from each candidate until a marker
// file appears. Falls back to cwd when nothing matches.
func DetectWorkspaceRoot(candidates []string) (string, error) {
	markers := []string{
		"classforge.toml",
		"data/config/classforge.toml",
		".git",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
