// # internal/engine/oop/call.go
package oop

import (
	"strconv"

	"classforge/internal/engine/tracker"
	"classforge/internal/engine/workspace"
)

const (
	fieldMember   = "MEMBER"
	inputInstance = "INSTANCE"
)

// MemberCallBlock accesses one member of a class instance: attribute reads
// and method calls share the block, distinguished by the bound member's
// kind. The block hosts the signature tracker state and flips between
// expression and statement shape depending on whether the member yields a
// value. It starts as a statement.
type MemberCallBlock struct {
	workspace.Base
	state       tracker.State
	kind        workspace.MemberKind
	finalized   bool
	oldName     string
	attrCount   int
	methodCount int
}

func newMemberCallBlock(ws *workspace.Workspace) workspace.Block {
	b := &MemberCallBlock{}
	b.Base = workspace.NewBase(ws, b, TypeMemberCall)
	_ = b.SetPreviousNext(true)
	b.SetField(fieldClass, "")
	b.SetField(fieldMember, "")
	b.AppendValueInput(inputInstance)
	return b
}

func (b *MemberCallBlock) ReferencedClass() string { return b.FieldValue(fieldClass) }
func (b *MemberCallBlock) OldName() string         { return b.oldName }
func (b *MemberCallBlock) SetOldName(n string)     { b.oldName = n }

// BindClass points the block at a class and refreshes the dropdown.
func (b *MemberCallBlock) BindClass(name string) {
	b.SetField(fieldClass, name)
	tracker.Refresh(b, "", "")
}

// SelectMember commits a member choice. This is the transition that
// finalizes the binding; from here on the block receives targeted updates.
func (b *MemberCallBlock) SelectMember(name string) {
	b.SetField(fieldMember, name)
	b.finalized = true
	if b.state == tracker.Unbound {
		b.state = tracker.BoundUnresolved
	}
	tracker.Refresh(b, "", "")
}

// RenameClass swaps the recorded class name when it matches old. Member
// names are untouched by a class rename, so no refresh is needed.
func (b *MemberCallBlock) RenameClass(old, new string) {
	if b.Workspace().NameEquals(b.FieldValue(fieldClass), old) {
		b.SetField(fieldClass, new)
	}
}

// RenameMethod carries a method rename through the dropdown. The refresh
// translates a matching selection and rebuilds the options.
func (b *MemberCallBlock) RenameMethod(old, new string) {
	tracker.Refresh(b, old, new)
}

// Update is the targeted notification for signature changes.
func (b *MemberCallBlock) Update(old, new string) {
	tracker.Refresh(b, old, new)
}

// tracker.Site surface. The block owns the state; the tracker drives it.

func (b *MemberCallBlock) BoundClassName() string { return b.FieldValue(fieldClass) }
func (b *MemberCallBlock) MemberValue() string    { return b.FieldValue(fieldMember) }
func (b *MemberCallBlock) SetMemberValue(v string) {
	b.SetField(fieldMember, v)
}

func (b *MemberCallBlock) SetMemberOptions(opts []workspace.Option) {
	if f, ok := b.Field(fieldMember); ok {
		f.SetOptions(opts)
	}
}

// MemberOptions exposes the current dropdown contents.
func (b *MemberCallBlock) MemberOptions() []workspace.Option {
	if f, ok := b.Field(fieldMember); ok {
		return f.Options()
	}
	return nil
}

func (b *MemberCallBlock) BoundKind() workspace.MemberKind        { return b.kind }
func (b *MemberCallBlock) SetBoundKind(kind workspace.MemberKind) { b.kind = kind }
func (b *MemberCallBlock) BindingState() tracker.State            { return b.state }
func (b *MemberCallBlock) SetBindingState(s tracker.State)        { b.state = s }
func (b *MemberCallBlock) MemberCounts() (int, int)               { return b.attrCount, b.methodCount }

func (b *MemberCallBlock) SetMemberCounts(attrs, methods int) {
	b.attrCount = attrs
	b.methodCount = methods
}

func (b *MemberCallBlock) Finalized() bool { return b.finalized }

// RestoreBinding reinstates persisted tracker state during markup loading.
// The site comes back bound but unresolved; the first refresh validates it
// against live definitions.
func (b *MemberCallBlock) RestoreBinding(member string, kind workspace.MemberKind, finalized bool) {
	b.SetField(fieldMember, member)
	b.kind = kind
	b.finalized = finalized
	if member != "" {
		b.state = tracker.BoundUnresolved
	}
}

// ExtraState persists the binding and shape alongside the fields. Shape
// matters for disconnected blocks, which have no socket to infer it from.
func (b *MemberCallBlock) ExtraState() map[string]string {
	shape := "statement"
	if b.OutputConnection() != nil {
		shape = "expression"
	}
	return map[string]string{
		"kind":      string(b.kind),
		"finalized": strconv.FormatBool(b.finalized),
		"shape":     shape,
	}
}

// ApplyExtraState reinstates the binding from markup. Resolution is never
// trusted from disk; the post-load refresh re-validates it.
func (b *MemberCallBlock) ApplyExtraState(extra map[string]string) {
	finalized, _ := strconv.ParseBool(extra["finalized"])
	b.RestoreBinding(b.MemberValue(), workspace.MemberKind(extra["kind"]), finalized)
	if extra["shape"] == "expression" && b.OutputConnection() == nil {
		_ = b.SetPreviousNext(false)
		_ = b.SetOutput(true)
	}
}

// BindingSnapshot reports the site for indexes and clients.
func (b *MemberCallBlock) BindingSnapshot() workspace.ReferenceSite {
	return workspace.ReferenceSite{
		BlockID:     b.ID(),
		BlockType:   b.Type(),
		BoundClass:  b.FieldValue(fieldClass),
		BoundMember: b.FieldValue(fieldMember),
		Kind:        b.kind,
		Finalized:   b.finalized,
	}
}
