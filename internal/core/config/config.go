// # internal/core/config/config.go

// Package config loads, validates and watches the classforge
// configuration file. Defaults are applied before validation, so a
// minimal file with nothing but workspace_paths is a valid config.
package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Session transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type Config struct {
	Version        int           `toml:"version"`
	WorkspacePaths []string      `toml:"workspace_paths"`
	Paths          Paths         `toml:"paths"`
	Naming         Naming        `toml:"naming"`
	Exclude        Exclude       `toml:"exclude"`
	Watch          Watch         `toml:"watch"`
	Database       Database      `toml:"database"`
	History        History       `toml:"history"`
	Session        Session       `toml:"session"`
	Observability  Observability `toml:"observability"`
	Output         Output        `toml:"output"`
}

type Paths struct {
	WorkspaceRoot string `toml:"workspace_root"`
	StateDir      string `toml:"state_dir"`
	DatabaseDir   string `toml:"database_dir"`
}

// Naming controls how the engine compares identifiers. With
// case_insensitive = true, "Car" and "car" collide and rename fan-out
// catches sites that differ only in case.
type Naming struct {
	CaseInsensitive bool `toml:"case_insensitive"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce       time.Duration `toml:"debounce"`
	Extensions     []string      `toml:"extensions"`
	IgnoreSuffixes []string      `toml:"ignore_suffixes"`
}

// Validate checks the watch block after defaults are in place.
func (c *Watch) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required, validation.Min(10*time.Millisecond), validation.Max(10*time.Second)),
	); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("watch.extensions entry %q must start with a dot", ext)
		}
	}
	return nil
}

type Database struct {
	Enabled      bool   `toml:"enabled"`
	CatalogPath  string `toml:"catalog_path"`
	JournalPath  string `toml:"journal_path"`
	WorkspaceKey string `toml:"workspace_key"`
}

// Validate checks the database block. A disabled block is not inspected
// further, so stale paths in it cannot fail a load.
func (c *Database) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.CatalogPath, validation.Required),
		validation.Field(&c.JournalPath, validation.Required),
		validation.Field(&c.WorkspaceKey, validation.Required, validation.Length(1, 128)),
	); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

type History struct {
	Enabled   *bool         `toml:"enabled"`
	Retention time.Duration `toml:"retention"`
}

// IsEnabled defaults to true when the block is absent.
func (c History) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// Validate checks the history block. Retention zero keeps every entry.
func (c *History) Validate() error {
	if c.Retention < 0 {
		return fmt.Errorf("history.retention must not be negative, got %v", c.Retention)
	}
	return nil
}

type Session struct {
	Enabled          bool          `toml:"enabled"`
	Transport        string        `toml:"transport"`
	Address          string        `toml:"address"`
	MaxResponseItems int           `toml:"max_response_items"`
	RequestTimeout   time.Duration `toml:"request_timeout"`
	RateLimit        RateLimit     `toml:"rate_limit"`
}

type RateLimit struct {
	PerSecond float64 `toml:"per_second"`
	Burst     int     `toml:"burst"`
}

// Validate checks the session block after defaults are in place.
func (c *Session) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Transport, validation.Required, validation.In(TransportStdio, TransportHTTP)),
		validation.Field(&c.MaxResponseItems, validation.Required, validation.Min(1), validation.Max(5000)),
		validation.Field(&c.RequestTimeout, validation.Required, validation.Min(time.Second), validation.Max(2*time.Minute)),
	); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if c.Transport == TransportHTTP && strings.TrimSpace(c.Address) == "" {
		return fmt.Errorf("session.address must not be empty when session.transport=http")
	}
	if c.RateLimit.PerSecond <= 0 {
		return fmt.Errorf("session.rate_limit.per_second must be positive, got %v", c.RateLimit.PerSecond)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("session.rate_limit.burst must be >= 1, got %d", c.RateLimit.Burst)
	}
	return nil
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
	EnableMetrics bool   `toml:"enable_metrics"`
}

// Validate checks the observability block.
func (c *Observability) Validate() error {
	if c.EnableTracing && strings.TrimSpace(c.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint must not be empty when tracing is enabled")
	}
	return nil
}

type Output struct {
	Mermaid string      `toml:"mermaid"`
	DOT     string      `toml:"dot"`
	TSV     string      `toml:"tsv"`
	Paths   OutputPaths `toml:"paths"`
}

type OutputPaths struct {
	Root        string `toml:"root"`
	DiagramsDir string `toml:"diagrams_dir"`
}
