// # internal/core/config/validator.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 2 {
		return fmt.Errorf("unsupported config version %d; supported versions are 1 and 2", cfg.Version)
	}
	return nil
}

// validateWorkspacePaths rejects duplicate or nested roots. A workspace
// file under two roots would be loaded twice and its blocks registered
// twice, so overlap is a configuration error rather than a warning.
func validateWorkspacePaths(cfg *Config) error {
	if len(cfg.WorkspacePaths) == 0 {
		return fmt.Errorf("workspace_paths must not be empty")
	}

	cleaned := make([]string, 0, len(cfg.WorkspacePaths))
	for i, raw := range cfg.WorkspacePaths {
		path := filepath.Clean(strings.TrimSpace(raw))
		if path == "" {
			return fmt.Errorf("workspace_paths[%d] must not be empty", i)
		}
		for _, existing := range cleaned {
			if isPathOverlap(existing, path) {
				return fmt.Errorf("workspace path %q overlaps with %q", path, existing)
			}
		}
		cleaned = append(cleaned, path)
	}
	return nil
}

// validateExclude compiles every pattern once so a typo fails the load
// instead of surfacing later from inside the file watcher.
func validateExclude(cfg *Config) error {
	for i, pattern := range cfg.Exclude.Dirs {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("exclude.dirs[%d] must not be empty", i)
		}
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.dirs[%d]: invalid pattern %q: %w", i, pattern, err)
		}
	}
	for i, pattern := range cfg.Exclude.Files {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("exclude.files[%d] must not be empty", i)
		}
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.files[%d]: invalid pattern %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if strings.TrimSpace(cfg.Output.Paths.DiagramsDir) == "" {
		return fmt.Errorf("output.paths.diagrams_dir must not be empty")
	}
	names := map[string]string{
		"output.mermaid": cfg.Output.Mermaid,
		"output.dot":     cfg.Output.DOT,
		"output.tsv":     cfg.Output.TSV,
	}
	seen := make(map[string]string, len(names))
	for _, key := range []string{"output.dot", "output.mermaid", "output.tsv"} {
		name := strings.TrimSpace(names[key])
		if name == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
		if prior, ok := seen[name]; ok {
			return fmt.Errorf("%s and %s both write to %q", prior, key, name)
		}
		seen[name] = key
	}
	return nil
}

func isPathOverlap(a, b string) bool {
	if a == b {
		return true
	}
	if strings.HasPrefix(a, b+string(os.PathSeparator)) {
		return true
	}
	if strings.HasPrefix(b, a+string(os.PathSeparator)) {
		return true
	}
	return false
}
