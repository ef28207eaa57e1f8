// # internal/engine/names/registry.go

// Package names answers which class and method definitions exist and
// produces collision-free names for new or renamed definitions. Lookups
// are pure full scans over the live workspace; there is no cached symbol
// table to fall out of sync with block state.
package names

import "classforge/internal/engine/workspace"

// LookupClass returns the first class definition matching name under the
// workspace equality rule, in traversal order.
func LookupClass(ws *workspace.Workspace, name string) (workspace.ClassDefinition, bool) {
	for _, b := range ws.AllBlocks(false) {
		cd, ok := b.(workspace.ClassDefiner)
		if !ok {
			continue
		}
		if ws.NameEquals(cd.ClassName(), name) {
			return cd.Definition(), true
		}
	}
	return workspace.ClassDefinition{}, false
}

// LookupClassBlock returns the defining block itself rather than a
// snapshot; rename cascades need the live block.
func LookupClassBlock(ws *workspace.Workspace, name string) (workspace.ClassDefiner, bool) {
	for _, b := range ws.AllBlocks(false) {
		cd, ok := b.(workspace.ClassDefiner)
		if !ok {
			continue
		}
		if ws.NameEquals(cd.ClassName(), name) {
			return cd, true
		}
	}
	return nil, false
}

// LookupMethod returns the first method definition matching name. Method
// names are workspace-unique, so the class is not part of the key.
func LookupMethod(ws *workspace.Workspace, name string) (workspace.MethodDefinition, bool) {
	for _, b := range ws.AllBlocks(false) {
		md, ok := b.(workspace.MethodDefiner)
		if !ok {
			continue
		}
		if ws.NameEquals(md.MethodName(), name) {
			return md.MethodDefinition(), true
		}
	}
	return workspace.MethodDefinition{}, false
}

// LookupMethodBlock returns the live defining block for a method name.
func LookupMethodBlock(ws *workspace.Workspace, name string) (workspace.MethodDefiner, bool) {
	for _, b := range ws.AllBlocks(false) {
		md, ok := b.(workspace.MethodDefiner)
		if !ok {
			continue
		}
		if ws.NameEquals(md.MethodName(), name) {
			return md, true
		}
	}
	return nil, false
}

// AllClassNames lists every class name in workspace traversal order.
// Duplicates, should they ever exist, are preserved as encountered.
func AllClassNames(ws *workspace.Workspace) []string {
	var out []string
	for _, b := range ws.AllBlocks(false) {
		if cd, ok := b.(workspace.ClassDefiner); ok {
			out = append(out, cd.ClassName())
		}
	}
	return out
}

// AllMethodNames lists every method name in workspace traversal order.
func AllMethodNames(ws *workspace.Workspace) []string {
	var out []string
	for _, b := range ws.AllBlocks(false) {
		if md, ok := b.(workspace.MethodDefiner); ok {
			out = append(out, md.MethodName())
		}
	}
	return out
}
