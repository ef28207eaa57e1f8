// # internal/output/output.go

// Package output renders the class inventory into exportable formats: a
// mermaid class diagram, a Graphviz digraph and a flat TSV listing.
// Generators work on catalog rows, so an export looks the same whether it
// came from a live workspace or from the persisted catalog.
package output

import (
	"sort"
	"strings"

	"classforge/internal/data/store"
	"classforge/internal/engine/oop"
	"classforge/internal/engine/workspace"
)

// Inventory is the snapshot every generator renders.
type Inventory struct {
	Classes []store.ClassRow
	Sites   []store.SiteRow
}

// NewInventory builds the render model from collected rows. Duplicate
// class names keep the last occurrence, matching how the catalog sync
// resolves a class defined in two files.
func NewInventory(classes []store.ClassRow, sites []store.SiteRow) Inventory {
	byName := make(map[string]int, len(classes))
	var deduped []store.ClassRow
	for _, c := range classes {
		if i, ok := byName[c.Name]; ok {
			deduped[i] = c
			continue
		}
		byName[c.Name] = len(deduped)
		deduped = append(deduped, c)
	}
	return Inventory{Classes: deduped, Sites: sites}
}

// Usage aggregates the reference sites bound to one class.
type Usage struct {
	Instantiations int
	MethodCalls    int
	AttributeReads int
}

func (u Usage) Total() int {
	return u.Instantiations + u.MethodCalls + u.AttributeReads
}

// usageByClass counts bound sites per class. Sites that have not picked a
// class yet carry no class name and are skipped; unboundSites counts those.
func usageByClass(sites []store.SiteRow) map[string]Usage {
	usage := make(map[string]Usage)
	for _, s := range sites {
		if s.Class == "" {
			continue
		}
		u := usage[s.Class]
		switch s.BlockType {
		case oop.TypeNewInstance:
			u.Instantiations++
		case oop.TypeInstanceGet:
			u.AttributeReads++
		case oop.TypeMemberCall:
			if s.Kind == string(workspace.MemberAttribute) {
				u.AttributeReads++
			} else {
				u.MethodCalls++
			}
		}
		usage[s.Class] = u
	}
	return usage
}

func unboundSites(sites []store.SiteRow) int {
	n := 0
	for _, s := range sites {
		if s.Class == "" {
			n++
		}
	}
	return n
}

// sortedClasses orders classes by name so repeated exports produce
// identical files. Member order inside a class is declaration order and
// is kept as is.
func sortedClasses(classes []store.ClassRow) []store.ClassRow {
	out := append([]store.ClassRow{}, classes...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// sortedSites orders sites by class then block ID for stable diffs.
func sortedSites(sites []store.SiteRow) []store.SiteRow {
	out := append([]store.SiteRow{}, sites...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].BlockID < out[j].BlockID
	})
	return out
}

func formatParams(params []string) string {
	return strings.Join(params, ", ")
}
