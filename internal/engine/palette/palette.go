// # internal/engine/palette/palette.go

// Package palette produces the flyout contents: the fixed system
// construct templates followed by one instantiation and one member access
// template per user class, each tagged with the class name. Spawning a
// template into a real workspace runs the name through legal-name
// resolution; spawning into a flyout keeps template names verbatim.
package palette

import (
	"fmt"

	"classforge/internal/engine/names"
	"classforge/internal/engine/oop"
	"classforge/internal/engine/propagate"
	"classforge/internal/engine/workspace"
)

// Template describes one flyout entry. Tag carries the class a
// per-class template is bound to; system templates have no tag.
type Template struct {
	Type   string
	Fields map[string]string
	Tag    string
}

// Build lists the flyout for the workspace's current classes. System
// templates first, then per-class entries in class declaration order.
func Build(ws *workspace.Workspace) []Template {
	out := []Template{
		{Type: oop.TypeClassDef, Fields: map[string]string{"NAME": "Class"}},
		{Type: oop.TypeMethodDef, Fields: map[string]string{"NAME": "method"}},
		{Type: oop.TypeConstructorDef},
		{Type: oop.TypeInstanceGet},
	}
	for _, name := range names.AllClassNames(ws) {
		if name == "" {
			continue
		}
		out = append(out,
			Template{Type: oop.TypeNewInstance, Tag: name},
			Template{Type: oop.TypeMemberCall, Tag: name},
		)
	}
	return out
}

// Spawn materializes a template in the given workspace. Definition names
// go through the legal-name resolver, which is how three spawns of a
// "Dog" class template become Dog, Dog2 and Dog3. Tagged templates bind
// to their class and build their sockets immediately.
func Spawn(ws *workspace.Workspace, t Template) (workspace.Block, error) {
	b, err := ws.NewBlock(t.Type)
	if err != nil {
		return nil, fmt.Errorf("spawn template: %w", err)
	}

	name := ""
	for k, v := range t.Fields {
		if k == "NAME" {
			name = v
			continue
		}
		b.SetField(k, v)
	}

	switch blk := b.(type) {
	case *oop.ClassBlock:
		if name != "" {
			propagate.RenameClass(blk, name)
		}
	case *oop.MethodBlock:
		if name != "" {
			propagate.RenameMethod(blk, name)
		}
	case *oop.NewInstanceBlock:
		if t.Tag != "" {
			blk.BindClass(t.Tag)
		}
	case *oop.MemberCallBlock:
		if t.Tag != "" {
			blk.BindClass(t.Tag)
		}
	default:
		if name != "" {
			b.SetField("NAME", name)
		}
	}
	return b, nil
}
