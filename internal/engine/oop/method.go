// # internal/engine/oop/method.go
package oop

import (
	"fmt"

	"classforge/internal/engine/workspace"
)

// MethodBlock defines one method: a name, ordered parameter names and a
// return-value flag that decides which shape bound call sites take.
type MethodBlock struct {
	workspace.Base
	paramCount int
	oldName    string
}

func newMethodBlock(ws *workspace.Workspace) workspace.Block {
	b := &MethodBlock{}
	b.Base = workspace.NewBase(ws, b, TypeMethodDef)
	_ = b.SetPreviousNext(true)
	b.SetField(fieldName, "")
	b.SetField(fieldHasReturn, "FALSE")
	return b
}

func (b *MethodBlock) MethodName() string        { return b.FieldValue(fieldName) }
func (b *MethodBlock) SetMethodName(name string) { b.SetField(fieldName, name) }
func (b *MethodBlock) OldName() string           { return b.oldName }
func (b *MethodBlock) SetOldName(n string)       { b.oldName = n }

func (b *MethodBlock) HasReturn() bool {
	return b.FieldValue(fieldHasReturn) == "TRUE"
}

// SetHasReturn toggles whether the method yields a value. Callers bound to
// the method keep their shape until the next refresh pass.
func (b *MethodBlock) SetHasReturn(has bool) {
	v := "FALSE"
	if has {
		v = "TRUE"
	}
	b.SetField(fieldHasReturn, v)
}

// AddParameter appends one parameter slot.
func (b *MethodBlock) AddParameter(name string) {
	b.SetField(fmt.Sprintf("%s%d", paramPrefix, b.paramCount), name)
	b.paramCount++
}

// SetParameters replaces the whole parameter list.
func (b *MethodBlock) SetParameters(names []string) {
	for i := len(names); i < b.paramCount; i++ {
		b.RemoveField(fmt.Sprintf("%s%d", paramPrefix, i))
	}
	for i, n := range names {
		b.SetField(fmt.Sprintf("%s%d", paramPrefix, i), n)
	}
	b.paramCount = len(names)
}

// Parameters returns parameter names in declaration order.
func (b *MethodBlock) Parameters() []string {
	out := make([]string, 0, b.paramCount)
	for i := 0; i < b.paramCount; i++ {
		out = append(out, b.FieldValue(fmt.Sprintf("%s%d", paramPrefix, i)))
	}
	return out
}

// ExtraState is nil; everything the block knows lives in its fields.
func (b *MethodBlock) ExtraState() map[string]string { return nil }

// ApplyExtraState recounts the PARAM fields the loader wrote raw.
func (b *MethodBlock) ApplyExtraState(map[string]string) {
	b.paramCount = countPrefixed(b.FieldNames(), paramPrefix)
}

// MethodDefinition snapshots the method signature.
func (b *MethodBlock) MethodDefinition() workspace.MethodDefinition {
	return workspace.MethodDefinition{
		Name:       b.MethodName(),
		Parameters: b.Parameters(),
		HasReturn:  b.HasReturn(),
	}.Clone()
}
