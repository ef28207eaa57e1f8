// # internal/engine/workspace/registry.go
package workspace

import (
	"fmt"
	"sort"
)

// Factory builds one block instance bound to the given workspace. The
// workspace registers the result; factories only construct.
type Factory func(ws *Workspace) Block

// Registry maps block type names to factories. A registry is assembled
// once at startup and shared read-only by every workspace.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a block type. Registering the same type twice is a
// programming error and panics early rather than shadowing silently.
func (r *Registry) Register(typeName string, f Factory) {
	if _, dup := r.factories[typeName]; dup {
		panic(fmt.Sprintf("block type %q registered twice", typeName))
	}
	r.factories[typeName] = f
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether a type is registered.
func (r *Registry) Has(typeName string) bool {
	_, ok := r.factories[typeName]
	return ok
}

func (r *Registry) build(ws *Workspace, typeName string) (Block, error) {
	f, ok := r.factories[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown block type %q", typeName)
	}
	return f(ws), nil
}
