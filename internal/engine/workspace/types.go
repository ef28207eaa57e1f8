// # internal/engine/workspace/types.go
package workspace

// MemberKind distinguishes what a reference site is bound to.
type MemberKind string

const (
	MemberUnset     MemberKind = ""
	MemberMethod    MemberKind = "method"
	MemberAttribute MemberKind = "attribute"
)

// ConstructorSignature is the parameter list a class is instantiated with.
type ConstructorSignature struct {
	Parameters []string
}

// MethodDefinition describes one method. Method names are unique per
// workspace, not per class; reference sites bind members by bare name and
// the whole rename path is keyed on that.
type MethodDefinition struct {
	Name       string
	Parameters []string
	HasReturn  bool
}

// ClassDefinition is a snapshot of one class definition block. Name is
// unique per workspace. Colour is assigned at creation and stable for the
// lifetime of the class.
type ClassDefinition struct {
	Name        string
	Constructor ConstructorSignature
	Methods     []MethodDefinition
	Attributes  []string
	Colour      int
}

// ReferenceSite is a read-only snapshot of one block that references a
// class, as reported to session clients. The live binding state lives on
// the block itself.
type ReferenceSite struct {
	BlockID     string
	BlockType   string
	BoundClass  string
	BoundMember string
	Kind        MemberKind
	Finalized   bool
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Clone returns a deep copy so callers can hold definition snapshots
// without aliasing live block state.
func (d ClassDefinition) Clone() ClassDefinition {
	out := d
	out.Attributes = cloneStrings(d.Attributes)
	out.Constructor.Parameters = cloneStrings(d.Constructor.Parameters)
	if d.Methods != nil {
		out.Methods = make([]MethodDefinition, len(d.Methods))
		for i, m := range d.Methods {
			out.Methods[i] = m.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the method definition.
func (m MethodDefinition) Clone() MethodDefinition {
	out := m
	out.Parameters = cloneStrings(m.Parameters)
	return out
}
