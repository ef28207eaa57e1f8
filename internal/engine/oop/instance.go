// # internal/engine/oop/instance.go
package oop

import (
	"classforge/internal/engine/index"
	"classforge/internal/engine/tracker"
	"classforge/internal/engine/workspace"
)

const (
	fieldClass = "CLASS"
	fieldVar   = "VAR"
)

// NewInstanceBlock instantiates a class: one argument socket per
// constructor parameter and an output carrying the new instance.
type NewInstanceBlock struct {
	workspace.Base
	oldName string
}

func newNewInstanceBlock(ws *workspace.Workspace) workspace.Block {
	b := &NewInstanceBlock{}
	b.Base = workspace.NewBase(ws, b, TypeNewInstance)
	_ = b.SetOutput(true)
	b.SetField(fieldClass, "")
	return b
}

func (b *NewInstanceBlock) ReferencedClass() string { return b.FieldValue(fieldClass) }
func (b *NewInstanceBlock) OldName() string         { return b.oldName }
func (b *NewInstanceBlock) SetOldName(n string)     { b.oldName = n }

// BindClass points the block at a class and builds its argument sockets
// from the current constructor signature.
func (b *NewInstanceBlock) BindClass(name string) {
	b.SetField(fieldClass, name)
	b.Update(name, name)
}

// RenameClass swaps the recorded class name when it matches old. Pure
// bookkeeping; the constructor signature did not change.
func (b *NewInstanceBlock) RenameClass(old, new string) {
	if b.Workspace().NameEquals(b.FieldValue(fieldClass), old) {
		b.SetField(fieldClass, new)
	}
}

// Update reconciles the argument sockets against the constructor. Called
// with equal names after a signature change, and by BindClass.
func (b *NewInstanceBlock) Update(old, new string) {
	sig, ok := index.FindConstructor(b.Workspace(), b.FieldValue(fieldClass))
	if !ok {
		// Class is gone; keep the sockets so reconnecting the class later
		// loses nothing.
		return
	}
	tracker.ReconcileArgs(b, sig.Parameters)
}

// BindingSnapshot reports the site for indexes and clients.
func (b *NewInstanceBlock) BindingSnapshot() workspace.ReferenceSite {
	return workspace.ReferenceSite{
		BlockID:    b.ID(),
		BlockType:  b.Type(),
		BoundClass: b.FieldValue(fieldClass),
		Finalized:  true,
	}
}

// InstanceGetBlock reads an instance variable. Its class binding lives on
// the variable's type, which is how variable retyping during a class
// rename reaches these sites without touching the block itself.
type InstanceGetBlock struct {
	workspace.Base
}

func newInstanceGetBlock(ws *workspace.Workspace) workspace.Block {
	b := &InstanceGetBlock{}
	b.Base = workspace.NewBase(ws, b, TypeInstanceGet)
	_ = b.SetOutput(true)
	b.SetField(fieldVar, "")
	return b
}

// BindVariable points the block at a workspace variable by name.
func (b *InstanceGetBlock) BindVariable(name string) {
	b.SetField(fieldVar, name)
}

func (b *InstanceGetBlock) VariableName() string { return b.FieldValue(fieldVar) }

// ReferencedClass reports the type of the bound variable, empty when the
// variable is missing or untyped.
func (b *InstanceGetBlock) ReferencedClass() string {
	v, ok := b.Workspace().Variables().ByName(b.FieldValue(fieldVar))
	if !ok {
		return ""
	}
	return v.Type
}

// BindingSnapshot reports the site for indexes and clients.
func (b *InstanceGetBlock) BindingSnapshot() workspace.ReferenceSite {
	return workspace.ReferenceSite{
		BlockID:    b.ID(),
		BlockType:  b.Type(),
		BoundClass: b.ReferencedClass(),
		Finalized:  true,
	}
}
