// # internal/engine/workspace/variables.go
package workspace

import "github.com/google/uuid"

// Variable is a typed workspace variable. For instance variables the type
// is the class name, which is how class renames reach variable-backed
// reference sites.
type Variable struct {
	ID   string
	Name string
	Type string
}

// VariableMap holds the workspace's variables in creation order.
type VariableMap struct {
	ws   *Workspace
	vars []*Variable
}

func newVariableMap(ws *Workspace) *VariableMap {
	return &VariableMap{ws: ws}
}

// Create adds a variable. Names are not deduplicated here; variable naming
// policy belongs to the editor, not the engine.
func (m *VariableMap) Create(name, typ string) *Variable {
	v := &Variable{ID: uuid.NewString(), Name: name, Type: typ}
	m.vars = append(m.vars, v)
	return v
}

// CreateWithID restores a variable with a known ID, used by markup loading.
func (m *VariableMap) CreateWithID(id, name, typ string) *Variable {
	v := &Variable{ID: id, Name: name, Type: typ}
	m.vars = append(m.vars, v)
	return v
}

func (m *VariableMap) ByID(id string) (*Variable, bool) {
	for _, v := range m.vars {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

// ByName returns the first variable with the given name under the
// workspace equality rule.
func (m *VariableMap) ByName(name string) (*Variable, bool) {
	for _, v := range m.vars {
		if m.ws.NameEquals(v.Name, name) {
			return v, true
		}
	}
	return nil, false
}

// All returns a snapshot of the variables in creation order.
func (m *VariableMap) All() []Variable {
	out := make([]Variable, len(m.vars))
	for i, v := range m.vars {
		out[i] = *v
	}
	return out
}

// OfType returns the variables whose type matches under the workspace
// equality rule.
func (m *VariableMap) OfType(typ string) []Variable {
	var out []Variable
	for _, v := range m.vars {
		if m.ws.NameEquals(v.Type, typ) {
			out = append(out, *v)
		}
	}
	return out
}

// RenameType retypes every variable whose type matches old and returns how
// many changed. Fired as one retype event per variable so history can
// reconstruct the cascade.
func (m *VariableMap) RenameType(old, new string) int {
	n := 0
	for _, v := range m.vars {
		if !m.ws.NameEquals(v.Type, old) {
			continue
		}
		v.Type = new
		n++
		m.ws.events.Fire(Event{Kind: EventVarRetype, BlockID: v.ID, Old: old, New: new})
	}
	return n
}

// Remove drops a variable by ID.
func (m *VariableMap) Remove(id string) {
	for i, v := range m.vars {
		if v.ID == id {
			m.vars = append(m.vars[:i], m.vars[i+1:]...)
			return
		}
	}
}
