// # internal/core/config/loader.go
package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists: current
// directory as the only workspace path, everything else at defaults.
// Environment overrides still apply.
func Default() (*Config, error) {
	cfg := &Config{}
	ApplyEnvOverrides(cfg)
	applyDefaults(cfg)
	normalize(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateWorkspacePaths(cfg); err != nil {
		return err
	}
	if err := validateExclude(cfg); err != nil {
		return err
	}
	if err := cfg.Watch.Validate(); err != nil {
		return err
	}
	if err := cfg.Database.Validate(); err != nil {
		return err
	}
	if err := cfg.History.Validate(); err != nil {
		return err
	}
	if err := cfg.Session.Validate(); err != nil {
		return err
	}
	if err := cfg.Observability.Validate(); err != nil {
		return err
	}
	return validateOutput(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.WorkspacePaths) == 0 {
		cfg.WorkspacePaths = []string{"."}
	}

	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = "data/state"
	}
	if strings.TrimSpace(cfg.Paths.DatabaseDir) == "" {
		cfg.Paths.DatabaseDir = "data/database"
	}

	if !cfg.Database.Enabled && cfg.Version <= 1 {
		// Keep v1 compatibility where the database block did not exist.
		cfg.Database.Enabled = true
	}
	if strings.TrimSpace(cfg.Database.CatalogPath) == "" {
		cfg.Database.CatalogPath = "catalog.db"
	}
	if strings.TrimSpace(cfg.Database.JournalPath) == "" {
		cfg.Database.JournalPath = "journal.db"
	}
	if strings.TrimSpace(cfg.Database.WorkspaceKey) == "" {
		cfg.Database.WorkspaceKey = "default"
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = []string{".cfw"}
	}
	if len(cfg.Watch.IgnoreSuffixes) == 0 {
		cfg.Watch.IgnoreSuffixes = []string{".bak", ".tmp", "~"}
	}

	if strings.TrimSpace(cfg.Session.Transport) == "" {
		cfg.Session.Transport = TransportStdio
	}
	if strings.TrimSpace(cfg.Session.Address) == "" {
		cfg.Session.Address = "127.0.0.1:8765"
	}
	if cfg.Session.MaxResponseItems == 0 {
		cfg.Session.MaxResponseItems = 500
	}
	if cfg.Session.RequestTimeout <= 0 {
		cfg.Session.RequestTimeout = 30 * time.Second
	}
	if cfg.Session.RateLimit.PerSecond <= 0 {
		cfg.Session.RateLimit.PerSecond = 10
	}
	if cfg.Session.RateLimit.Burst <= 0 {
		cfg.Session.RateLimit.Burst = 20
	}

	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		cfg.Observability.OTLPEndpoint = "localhost:4317"
	}

	if strings.TrimSpace(cfg.Output.Mermaid) == "" {
		cfg.Output.Mermaid = "classes.mmd"
	}
	if strings.TrimSpace(cfg.Output.DOT) == "" {
		cfg.Output.DOT = "classes.dot"
	}
	if strings.TrimSpace(cfg.Output.TSV) == "" {
		cfg.Output.TSV = "classes.tsv"
	}
	if strings.TrimSpace(cfg.Output.Paths.DiagramsDir) == "" {
		cfg.Output.Paths.DiagramsDir = "docs/diagrams"
	}
}

// normalize trims whitespace and expands $VAR references in every path
// carrying field, so "$HOME/projects" works in the file and in env
// overrides alike.
func normalize(cfg *Config) {
	paths := cfg.WorkspacePaths[:0]
	for _, p := range cfg.WorkspacePaths {
		p = expandPath(p)
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	cfg.WorkspacePaths = paths

	cfg.Paths.WorkspaceRoot = expandPath(cfg.Paths.WorkspaceRoot)
	cfg.Paths.StateDir = expandPath(cfg.Paths.StateDir)
	cfg.Paths.DatabaseDir = expandPath(cfg.Paths.DatabaseDir)
	cfg.Database.CatalogPath = expandPath(cfg.Database.CatalogPath)
	cfg.Database.JournalPath = expandPath(cfg.Database.JournalPath)
	cfg.Database.WorkspaceKey = strings.TrimSpace(cfg.Database.WorkspaceKey)
	cfg.Output.Paths.Root = expandPath(cfg.Output.Paths.Root)
	cfg.Output.Paths.DiagramsDir = expandPath(cfg.Output.Paths.DiagramsDir)

	cfg.Session.Transport = strings.ToLower(strings.TrimSpace(cfg.Session.Transport))
	cfg.Session.Address = strings.TrimSpace(cfg.Session.Address)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)

	exts := cfg.Watch.Extensions[:0]
	for _, ext := range cfg.Watch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		exts = append(exts, ext)
	}
	cfg.Watch.Extensions = exts
}

func expandPath(value string) string {
	return strings.TrimSpace(os.ExpandEnv(value))
}
