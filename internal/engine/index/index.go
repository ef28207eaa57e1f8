// # internal/engine/index/index.go

// Package index answers which blocks depend on a class and what the class
// offers them. Like the name registry it holds no state: every query is a
// fresh scan in workspace traversal order, so results can never lag block
// mutations.
package index

import (
	"classforge/internal/engine/names"
	"classforge/internal/engine/workspace"
)

// Member is one selectable member of a class: an attribute or a method.
type Member struct {
	Name       string
	Kind       workspace.MemberKind
	Parameters []string
	HasReturn  bool
}

// YieldsValue reports whether a site bound to this member takes the
// expression shape. Attribute access always yields; methods yield when
// they declare a return value.
func (m Member) YieldsValue() bool {
	return m.Kind == workspace.MemberAttribute || m.HasReturn
}

// FindReferenceSites returns every live block referencing the class, in
// workspace traversal order. The order is stable and deliberately not
// sorted; propagation visits sites exactly in this order. Shadow blocks
// count as sites while they are live in a socket.
func FindReferenceSites(ws *workspace.Workspace, className string) []workspace.Block {
	var out []workspace.Block
	if className == "" {
		return out
	}
	for _, b := range ws.AllBlocks(true) {
		ref, ok := b.(workspace.ClassReferer)
		if !ok {
			continue
		}
		if ws.NameEquals(ref.ReferencedClass(), className) {
			out = append(out, b)
		}
	}
	return out
}

// FindMembers lists the class's members: attributes in declaration order,
// then methods in chain order. A missing class yields an empty non-nil
// slice; a dangling reference is a state sites recover from, not an error.
func FindMembers(ws *workspace.Workspace, className string) []Member {
	out := []Member{}
	if className == "" {
		return out
	}
	def, ok := names.LookupClass(ws, className)
	if !ok {
		return out
	}
	for _, a := range def.Attributes {
		out = append(out, Member{Name: a, Kind: workspace.MemberAttribute})
	}
	for _, m := range def.Methods {
		out = append(out, Member{
			Name:       m.Name,
			Kind:       workspace.MemberMethod,
			Parameters: m.Parameters,
			HasReturn:  m.HasReturn,
		})
	}
	return out
}

// FindMember resolves one member by name under the workspace equality
// rule.
func FindMember(ws *workspace.Workspace, className, memberName string) (Member, bool) {
	for _, m := range FindMembers(ws, className) {
		if ws.NameEquals(m.Name, memberName) {
			return m, true
		}
	}
	return Member{}, false
}

// FindConstructor returns the class's constructor signature. A class
// without an attached constructor block still instantiates, it just takes
// no arguments, so ok tracks the class, not the constructor block.
func FindConstructor(ws *workspace.Workspace, className string) (workspace.ConstructorSignature, bool) {
	if className == "" {
		return workspace.ConstructorSignature{}, false
	}
	def, ok := names.LookupClass(ws, className)
	if !ok {
		return workspace.ConstructorSignature{}, false
	}
	return def.Constructor, true
}

// Snapshots reports the binding state of every reference site of a class,
// for session clients and scan reports.
func Snapshots(ws *workspace.Workspace, className string) []workspace.ReferenceSite {
	sites := FindReferenceSites(ws, className)
	out := make([]workspace.ReferenceSite, 0, len(sites))
	for _, b := range sites {
		if sr, ok := b.(SiteReporter); ok {
			out = append(out, sr.BindingSnapshot())
			continue
		}
		out = append(out, workspace.ReferenceSite{
			BlockID:    b.ID(),
			BlockType:  b.Type(),
			BoundClass: className,
		})
	}
	return out
}

// SiteReporter is implemented by blocks that track a member binding and
// can report it as a snapshot.
type SiteReporter interface {
	BindingSnapshot() workspace.ReferenceSite
}
