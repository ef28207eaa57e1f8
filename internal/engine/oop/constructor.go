// # internal/engine/oop/constructor.go
package oop

import (
	"fmt"

	"classforge/internal/engine/workspace"
)

// ConstructorBlock declares the parameter list a class is instantiated
// with. It lives in a class block's CTOR socket.
type ConstructorBlock struct {
	workspace.Base
	paramCount int
}

func newConstructorBlock(ws *workspace.Workspace) workspace.Block {
	b := &ConstructorBlock{}
	b.Base = workspace.NewBase(ws, b, TypeConstructorDef)
	_ = b.SetPreviousNext(true)
	return b
}

// AddParameter appends one constructor parameter slot.
func (b *ConstructorBlock) AddParameter(name string) {
	b.SetField(fmt.Sprintf("%s%d", paramPrefix, b.paramCount), name)
	b.paramCount++
}

// SetParameters replaces the whole parameter list.
func (b *ConstructorBlock) SetParameters(names []string) {
	for i := len(names); i < b.paramCount; i++ {
		b.RemoveField(fmt.Sprintf("%s%d", paramPrefix, i))
	}
	for i, n := range names {
		b.SetField(fmt.Sprintf("%s%d", paramPrefix, i), n)
	}
	b.paramCount = len(names)
}

// Parameters returns parameter names in declaration order.
func (b *ConstructorBlock) Parameters() []string {
	out := make([]string, 0, b.paramCount)
	for i := 0; i < b.paramCount; i++ {
		out = append(out, b.FieldValue(fmt.Sprintf("%s%d", paramPrefix, i)))
	}
	return out
}

// ExtraState is nil; everything the block knows lives in its fields.
func (b *ConstructorBlock) ExtraState() map[string]string { return nil }

// ApplyExtraState recounts the PARAM fields the loader wrote raw.
func (b *ConstructorBlock) ApplyExtraState(map[string]string) {
	b.paramCount = countPrefixed(b.FieldNames(), paramPrefix)
}

// Signature snapshots the constructor.
func (b *ConstructorBlock) Signature() workspace.ConstructorSignature {
	return workspace.ConstructorSignature{Parameters: b.Parameters()}
}
