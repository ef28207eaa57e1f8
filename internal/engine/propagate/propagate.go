// # internal/engine/propagate/propagate.go

// Package propagate runs the synchronous cascades that keep every
// reference site consistent when a definition changes. A rename resolves
// to a legal name first, then fans out to each capable block in workspace
// traversal order; the cascade is complete when the call returns. Nothing
// here is asynchronous and nothing is retried: the workspace is
// single-threaded by contract.
package propagate

import (
	"classforge/internal/engine/index"
	"classforge/internal/engine/names"
	"classforge/internal/engine/workspace"
	"classforge/internal/shared/observability"
)

// RenameClass renames a class definition to the legal form of proposed
// and carries the change to every reference site and every instance
// variable typed by the class. Returns the name the definition now holds.
//
// Renaming to the current name, or to a proposal that legalizes back to
// the current name, is a complete no-op: no events, no site churn.
func RenameClass(def workspace.ClassDefiner, proposed string) string {
	ws := def.Workspace()
	current := def.ClassName()
	legal := names.FindLegalName(proposed, def, names.KindClass)
	if legal == current {
		return current
	}

	ws.Events().Group(func() {
		blocks := ws.AllBlocks(true)
		// An empty current name is a christening, not a rename: nothing
		// can be bound to it, so there is nothing to carry over.
		cascade := current != "" && current != proposed && current != legal

		if cascade {
			for _, b := range blocks {
				if rec, ok := b.(workspace.OldNameRecorder); ok {
					rec.SetOldName(current)
				}
			}
		}

		def.SetClassName(legal)
		ws.Events().Fire(workspace.Event{
			Kind:    workspace.EventClassRename,
			BlockID: def.ID(),
			Old:     current,
			New:     legal,
		})

		if cascade {
			visited := 0
			for _, b := range blocks {
				if r, ok := b.(workspace.ClassRenamer); ok {
					r.RenameClass(current, legal)
					visited++
				}
			}
			visited += ws.Variables().RenameType(current, legal)
			observability.RenameCascadeBlocks.Observe(float64(visited))
		}
	})
	observability.RenamesTotal.WithLabelValues("class").Inc()
	return legal
}

// RenameMethod renames a method definition and carries the change to
// every member reference site, translating bound selections through the
// old/new pair. Same no-op contract as RenameClass.
func RenameMethod(def workspace.MethodDefiner, proposed string) string {
	ws := def.Workspace()
	current := def.MethodName()
	legal := names.FindLegalName(proposed, def, names.KindMethod)
	if legal == current {
		return current
	}

	ws.Events().Group(func() {
		blocks := ws.AllBlocks(true)
		cascade := current != "" && current != proposed && current != legal

		if cascade {
			for _, b := range blocks {
				if rec, ok := b.(workspace.OldNameRecorder); ok {
					rec.SetOldName(current)
				}
			}
		}

		def.SetMethodName(legal)
		ws.Events().Fire(workspace.Event{
			Kind:    workspace.EventMethodRename,
			BlockID: def.ID(),
			Old:     current,
			New:     legal,
		})

		if cascade {
			visited := 0
			for _, b := range blocks {
				if r, ok := b.(workspace.MethodRenamer); ok {
					r.RenameMethod(current, legal)
					visited++
				}
			}
			observability.RenameCascadeBlocks.Observe(float64(visited))
		}
	})
	observability.RenamesTotal.WithLabelValues("method").Inc()
	return legal
}

// MutateCallers notifies every finalized reference site of a class that a
// signature changed shape: constructor or method parameters, or a return
// toggle. Sites receive a same-name update and re-derive their sockets and
// shape; no name resolution happens here.
func MutateCallers(ws *workspace.Workspace, className string) int {
	notified := 0
	for _, b := range index.FindReferenceSites(ws, className) {
		up, ok := b.(workspace.Updatable)
		if !ok {
			continue
		}
		if sr, ok := b.(index.SiteReporter); ok && !sr.BindingSnapshot().Finalized {
			continue
		}
		up.Update(className, className)
		notified++
	}
	return notified
}

// RefreshAll sends a same-name update to every updatable block, bound or
// not. Loading a workspace and structural edits that bypass MutateCallers
// both end with this pass so unresolved sites get a chance to re-check.
func RefreshAll(ws *workspace.Workspace) int {
	refreshed := 0
	for _, b := range ws.AllBlocks(true) {
		if up, ok := b.(workspace.Updatable); ok {
			up.Update("", "")
			refreshed++
		}
	}
	return refreshed
}
