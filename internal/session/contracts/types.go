// # internal/session/contracts/types.go

// Package contracts declares the wire-level operation surface of the
// session service: operation IDs, input/output payloads and the error
// envelope. Every transport speaks these types; engine types never cross
// the session boundary directly.
package contracts

const (
	ServiceName     = "classforge"
	ContractVersion = "v1"
)

type OperationID string

const (
	OperationClassList     OperationID = "class.list"
	OperationClassLookup   OperationID = "class.lookup"
	OperationMethodLookup  OperationID = "method.lookup"
	OperationNameLegal     OperationID = "name.legal"
	OperationRefsFind      OperationID = "refs.find"
	OperationMembersFind   OperationID = "members.find"
	OperationCtorFind      OperationID = "ctor.find"
	OperationClassRename   OperationID = "class.rename"
	OperationMethodRename  OperationID = "method.rename"
	OperationCallersMutate OperationID = "callers.mutate"
	OperationPaletteBuild  OperationID = "palette.build"
	OperationWorkspaceLoad OperationID = "workspace.load"
	OperationWorkspaceSave OperationID = "workspace.save"
	OperationHistoryList   OperationID = "history.list"
	OperationSystemHealth  OperationID = "system.health"
)

// MethodSnapshot mirrors one method definition.
type MethodSnapshot struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters,omitempty"`
	HasReturn  bool     `json:"has_return"`
}

// ClassSnapshot mirrors one class definition as clients see it.
type ClassSnapshot struct {
	Name        string           `json:"name"`
	Constructor []string         `json:"constructor,omitempty"`
	Attributes  []string         `json:"attributes,omitempty"`
	Methods     []MethodSnapshot `json:"methods,omitempty"`
	Colour      int              `json:"colour"`
}

// SiteSnapshot is the read-only view of one reference site.
type SiteSnapshot struct {
	BlockID     string `json:"block_id"`
	BlockType   string `json:"block_type"`
	BoundClass  string `json:"bound_class,omitempty"`
	BoundMember string `json:"bound_member,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Finalized   bool   `json:"finalized"`
}

// MemberSnapshot is one selectable member of a class, attribute or
// method, in dropdown order.
type MemberSnapshot struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	HasReturn  bool     `json:"has_return,omitempty"`
	Parameters []string `json:"parameters,omitempty"`
}

// TemplateSnapshot is one flyout palette entry.
type TemplateSnapshot struct {
	Type   string            `json:"type"`
	Fields map[string]string `json:"fields,omitempty"`
	Tag    string            `json:"tag,omitempty"`
}

// HistoryEntry is one journaled workspace event.
type HistoryEntry struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	BlockID   string `json:"block_id,omitempty"`
	Field     string `json:"field,omitempty"`
	Old       string `json:"old,omitempty"`
	New       string `json:"new,omitempty"`
	GroupID   string `json:"group_id,omitempty"`
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp"`
}

type ClassListInput struct{}

type ClassListOutput struct {
	Classes []ClassSnapshot `json:"classes"`
}

type ClassLookupInput struct {
	Name string `json:"name"`
}

type ClassLookupOutput struct {
	Class ClassSnapshot `json:"class"`
}

type MethodLookupInput struct {
	Name string `json:"name"`
}

type MethodLookupOutput struct {
	Class  string         `json:"class,omitempty"`
	Method MethodSnapshot `json:"method"`
}

// NameLegalInput asks what a proposed name becomes after uniqueness
// rules. BlockID optionally names the renaming site, which is then
// excluded from the collision scan.
type NameLegalInput struct {
	Proposed string `json:"proposed"`
	Kind     string `json:"kind"`
	BlockID  string `json:"block_id,omitempty"`
}

type NameLegalOutput struct {
	LegalName string `json:"legal_name"`
}

type RefsFindInput struct {
	Class string `json:"class"`
}

type RefsFindOutput struct {
	Sites []SiteSnapshot `json:"sites"`
}

type MembersFindInput struct {
	Class string `json:"class"`
}

type MembersFindOutput struct {
	Members []MemberSnapshot `json:"members"`
}

type CtorFindInput struct {
	Class string `json:"class"`
}

type CtorFindOutput struct {
	Found      bool     `json:"found"`
	Parameters []string `json:"parameters,omitempty"`
}

// RenameInput renames the definition currently holding OldName. The
// response carries the name the definition actually received, which may
// differ from NewName when uniqueness bumped a suffix.
type RenameInput struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

type RenameOutput struct {
	LegalName    string `json:"legal_name"`
	SitesUpdated int    `json:"sites_updated"`
}

type CallersMutateInput struct {
	Class string `json:"class"`
}

type CallersMutateOutput struct {
	SitesRefreshed int `json:"sites_refreshed"`
}

type PaletteBuildInput struct{}

type PaletteBuildOutput struct {
	Templates []TemplateSnapshot `json:"templates"`
}

type WorkspaceLoadInput struct {
	Path string `json:"path"`
}

type WorkspaceLoadOutput struct {
	Path      string `json:"path"`
	Blocks    int    `json:"blocks"`
	Classes   int    `json:"classes"`
	Refreshed int    `json:"refreshed"`
	FromCache bool   `json:"from_cache"`
}

type WorkspaceSaveInput struct {
	Path string `json:"path,omitempty"`
}

type WorkspaceSaveOutput struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// HistoryListInput selects journal entries. GroupID takes precedence
// over Since; Since is RFC3339.
type HistoryListInput struct {
	Since   string `json:"since,omitempty"`
	GroupID string `json:"group_id,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

type HistoryListOutput struct {
	EntryCount int            `json:"entry_count"`
	Entries    []HistoryEntry `json:"entries"`
}

type SystemHealthInput struct{}

type SystemHealthOutput struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Blocks        int    `json:"blocks"`
	Classes       int    `json:"classes"`
	HeapAllocMB   uint64 `json:"heap_alloc_mb"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// OperationDescriptor is the machine-readable listing entry a transport
// hands to clients discovering the surface.
type OperationDescriptor struct {
	ID      OperationID `json:"id"`
	Summary string      `json:"summary"`
}

// Descriptors lists every operation in a fixed order.
func Descriptors() []OperationDescriptor {
	return []OperationDescriptor{
		{ID: OperationClassList, Summary: "List class definitions in the active workspace"},
		{ID: OperationClassLookup, Summary: "Look up one class definition by name"},
		{ID: OperationMethodLookup, Summary: "Look up one method definition and its owning class"},
		{ID: OperationNameLegal, Summary: "Resolve a proposed definition name to its collision-free form"},
		{ID: OperationRefsFind, Summary: "Find every reference site bound to a class"},
		{ID: OperationMembersFind, Summary: "List the selectable members of a class"},
		{ID: OperationCtorFind, Summary: "Look up a class constructor signature"},
		{ID: OperationClassRename, Summary: "Rename a class and cascade to all reference sites"},
		{ID: OperationMethodRename, Summary: "Rename a method and cascade to all call sites"},
		{ID: OperationCallersMutate, Summary: "Refresh every caller after a signature change"},
		{ID: OperationPaletteBuild, Summary: "Build the flyout palette for the active workspace"},
		{ID: OperationWorkspaceLoad, Summary: "Load a workspace markup file"},
		{ID: OperationWorkspaceSave, Summary: "Save the active workspace to a markup file"},
		{ID: OperationHistoryList, Summary: "List journaled workspace events"},
		{ID: OperationSystemHealth, Summary: "Report engine health and workspace counts"},
	}
}

// OpError is the error envelope every transport serializes. It doubles
// as a Go error so handlers can return it directly.
type OpError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e OpError) Error() string {
	return e.Message
}

const (
	ErrorInvalidArgument = "invalid_argument"
	ErrorNotFound        = "not_found"
	ErrorConflict        = "conflict"
	ErrorUnavailable     = "unavailable"
	ErrorInternal        = "internal"
)
