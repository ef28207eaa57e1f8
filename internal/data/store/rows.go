// # internal/data/store/rows.go
package store

import (
	"classforge/internal/engine/index"
	"classforge/internal/engine/workspace"
)

// MethodRow is one persisted method signature.
type MethodRow struct {
	Name       string
	Parameters []string
	HasReturn  bool
}

// ClassRow is one persisted class definition.
type ClassRow struct {
	Name        string
	Colour      int
	Constructor []string
	Attributes  []string
	Methods     []MethodRow
}

// SiteRow is one persisted reference site.
type SiteRow struct {
	BlockID   string
	BlockType string
	Class     string
	Member    string
	Kind      string
	Finalized bool
}

// CollectRows walks a live workspace and produces the rows a sync writes.
// Classes come out in traversal order with their methods in declaration
// order; sites come out in traversal order. Unnamed classes are skipped,
// they collide on the catalog's primary key.
func CollectRows(ws *workspace.Workspace) ([]ClassRow, []SiteRow) {
	var (
		classes []ClassRow
		sites   []SiteRow
	)
	for _, b := range ws.AllBlocks(false) {
		if cd, ok := b.(workspace.ClassDefiner); ok {
			def := cd.Definition()
			if def.Name == "" {
				continue
			}
			row := ClassRow{
				Name:        def.Name,
				Colour:      def.Colour,
				Constructor: def.Constructor.Parameters,
				Attributes:  def.Attributes,
			}
			for _, m := range def.Methods {
				row.Methods = append(row.Methods, MethodRow{
					Name:       m.Name,
					Parameters: m.Parameters,
					HasReturn:  m.HasReturn,
				})
			}
			classes = append(classes, row)
			continue
		}
		if sr, ok := b.(index.SiteReporter); ok {
			snap := sr.BindingSnapshot()
			sites = append(sites, SiteRow{
				BlockID:   snap.BlockID,
				BlockType: snap.BlockType,
				Class:     snap.BoundClass,
				Member:    snap.BoundMember,
				Kind:      string(snap.Kind),
				Finalized: snap.Finalized,
			})
		}
	}
	return classes, sites
}
