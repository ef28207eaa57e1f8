// # internal/core/ports/ports.go

// Package ports declares the seams between the composition root and its
// adapters: the session-facing engine surface, the persistence stores,
// and the watch lifecycle. Transports depend on these interfaces, never
// on the app package.
package ports

import (
	"context"
	"time"

	"classforge/internal/data/history"
	"classforge/internal/data/store"
	"classforge/internal/engine/index"
	"classforge/internal/engine/palette"
	"classforge/internal/engine/workspace"
)

// LegalNameRequest asks what a proposed definition name becomes once
// uniqueness rules run. Kind is "class" or "method". BlockID optionally
// names the renaming site, which is then excluded from the collision
// scan so a block may keep its own name.
type LegalNameRequest struct {
	Proposed string
	Kind     string
	BlockID  string
}

// MethodLookup pairs a method definition with the class that owns it.
type MethodLookup struct {
	Class  string
	Method workspace.MethodDefinition
}

// RenameRequest renames the definition currently holding OldName.
type RenameRequest struct {
	OldName string
	NewName string
}

// RenameResult reports the name the definition actually received, which
// differs from the request when uniqueness bumped a suffix, and how many
// reference sites were rewritten.
type RenameResult struct {
	LegalName    string
	SitesUpdated int
}

// LoadRequest reads a workspace markup file into the live workspace.
type LoadRequest struct {
	Path string
}

// LoadResult summarizes one load: block and class counts after the
// post-load refresh, and whether the parsed document came from cache.
type LoadResult struct {
	Path      string
	Blocks    int
	Classes   int
	Refreshed int
	FromCache bool
}

// SaveRequest writes the live workspace to a markup file.
type SaveRequest struct {
	Path string
}

// SaveResult reports where the workspace was written and how many bytes.
type SaveResult struct {
	Path  string
	Bytes int
}

// HistoryRequest selects journal entries. GroupID takes precedence over
// Since; Limit zero means the session default cap.
type HistoryRequest struct {
	Since   time.Time
	GroupID string
	Limit   int
}

// HealthReport is the system.health payload.
type HealthReport struct {
	Status      string
	Version     string
	Blocks      int
	Classes     int
	HeapAllocMB uint64
	Uptime      time.Duration
}

// EngineService is the operation surface the session transports drive.
// Implementations serialize access to the single-threaded core.
type EngineService interface {
	ListClasses(ctx context.Context) ([]workspace.ClassDefinition, error)
	LookupClass(ctx context.Context, name string) (workspace.ClassDefinition, error)
	LookupMethod(ctx context.Context, name string) (MethodLookup, error)
	LegalName(ctx context.Context, req LegalNameRequest) (string, error)
	FindReferences(ctx context.Context, className string) ([]workspace.ReferenceSite, error)
	FindMembers(ctx context.Context, className string) ([]index.Member, error)
	FindConstructor(ctx context.Context, className string) (workspace.ConstructorSignature, bool, error)
	RenameClass(ctx context.Context, req RenameRequest) (RenameResult, error)
	RenameMethod(ctx context.Context, req RenameRequest) (RenameResult, error)
	MutateCallers(ctx context.Context, className string) (int, error)
	BuildPalette(ctx context.Context) ([]palette.Template, error)
	LoadWorkspace(ctx context.Context, req LoadRequest) (LoadResult, error)
	SaveWorkspace(ctx context.Context, req SaveRequest) (SaveResult, error)
	History(ctx context.Context, req HistoryRequest) ([]history.Entry, error)
	Health(ctx context.Context) (HealthReport, error)
}

// DefinitionStore abstracts the class catalog used for cross-run and
// cross-file lookups.
type DefinitionStore interface {
	SyncWorkspace(classes []store.ClassRow, sites []store.SiteRow) error
	Class(name string) (store.ClassRow, bool)
	ClassNames() []string
	MethodOwners(method string) []string
	SitesForClass(name string) []store.SiteRow
	Close() error
}

// HistoryStore abstracts the append-only event journal.
type HistoryStore interface {
	Append(workspaceKey string, entries []history.Entry) error
	LoadSince(workspaceKey string, since time.Time) ([]history.Entry, error)
	LoadGroup(workspaceKey, groupID string) ([]history.Entry, error)
	Prune(workspaceKey string, before time.Time) (int64, error)
	Close() error
}

// WatchUpdate is emitted after a changed file has been reloaded and the
// refresh pass has run.
type WatchUpdate struct {
	Path    string
	Blocks  int
	Classes int
}

// WatchService exposes the file-watch lifecycle for driving adapters.
type WatchService interface {
	Start(ctx context.Context) error
	Subscribe(handler func(WatchUpdate))
	Close() error
}
