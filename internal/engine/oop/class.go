// # internal/engine/oop/class.go
package oop

import (
	"fmt"
	"strconv"

	"classforge/internal/engine/workspace"
)

const (
	fieldName      = "NAME"
	fieldHasReturn = "HAS_RETURN"
	inputMethods   = "METHODS"
	inputCtor      = "CTOR"
	attrPrefix     = "ATTR"
	paramPrefix    = "PARAM"
)

// ClassBlock defines one class: a name, ordered attributes, a chain of
// method definitions under METHODS and at most one constructor under CTOR.
// The colour is taken from the workspace allocator at creation and stays
// with the class for life.
type ClassBlock struct {
	workspace.Base
	attrCount int
	colour    int
	oldName   string
}

func newClassBlock(ws *workspace.Workspace) workspace.Block {
	b := &ClassBlock{}
	b.Base = workspace.NewBase(ws, b, TypeClassDef)
	b.colour = ws.Colours().Next()
	b.SetField(fieldName, "")
	b.AppendStatementInput(inputMethods)
	b.AppendStatementInput(inputCtor)
	return b
}

func (b *ClassBlock) ClassName() string        { return b.FieldValue(fieldName) }
func (b *ClassBlock) SetClassName(name string) { b.SetField(fieldName, name) }

func (b *ClassBlock) Colour() int         { return b.colour }
func (b *ClassBlock) SetColour(hue int)   { b.colour = hue }
func (b *ClassBlock) OldName() string     { return b.oldName }
func (b *ClassBlock) SetOldName(n string) { b.oldName = n }

// AddAttribute appends an attribute slot at the end of the declaration
// order.
func (b *ClassBlock) AddAttribute(name string) {
	b.SetField(fmt.Sprintf("%s%d", attrPrefix, b.attrCount), name)
	b.attrCount++
}

// SetAttributes replaces the whole attribute list.
func (b *ClassBlock) SetAttributes(names []string) {
	for i := len(names); i < b.attrCount; i++ {
		b.RemoveField(fmt.Sprintf("%s%d", attrPrefix, i))
	}
	for i, n := range names {
		b.SetField(fmt.Sprintf("%s%d", attrPrefix, i), n)
	}
	b.attrCount = len(names)
}

// Attributes returns attribute names in declaration order.
func (b *ClassBlock) Attributes() []string {
	out := make([]string, 0, b.attrCount)
	for i := 0; i < b.attrCount; i++ {
		out = append(out, b.FieldValue(fmt.Sprintf("%s%d", attrPrefix, i)))
	}
	return out
}

// AttachMethod connects a method definition at the end of the METHODS
// chain.
func (b *ClassBlock) AttachMethod(m workspace.Block) error {
	in, ok := b.Input(inputMethods)
	if !ok {
		return fmt.Errorf("class block %q has no METHODS input", b.ID())
	}
	if !in.Connection().IsConnected() {
		return in.Connection().Connect(m.PreviousConnection())
	}
	tail := in.Target()
	for tail.NextConnection() != nil && tail.NextConnection().IsConnected() {
		tail = tail.NextConnection().Target()
	}
	return tail.NextConnection().Connect(m.PreviousConnection())
}

// AttachConstructor places a constructor definition in the CTOR socket.
// A class holds at most one constructor.
func (b *ClassBlock) AttachConstructor(c workspace.Block) error {
	in, ok := b.Input(inputCtor)
	if !ok {
		return fmt.Errorf("class block %q has no CTOR input", b.ID())
	}
	if in.Connection().IsConnected() {
		return fmt.Errorf("class %q already has a constructor", b.ClassName())
	}
	return in.Connection().Connect(c.PreviousConnection())
}

// MethodBlocks walks the METHODS chain in order.
func (b *ClassBlock) MethodBlocks() []workspace.MethodDefiner {
	var out []workspace.MethodDefiner
	in, ok := b.Input(inputMethods)
	if !ok {
		return out
	}
	for cur := in.Target(); cur != nil; {
		if md, ok := cur.(workspace.MethodDefiner); ok {
			out = append(out, md)
		}
		next := cur.NextConnection()
		if next == nil {
			break
		}
		cur = next.Target()
	}
	return out
}

// Constructor returns the constructor signature when a constructor block
// is attached.
func (b *ClassBlock) Constructor() (workspace.ConstructorSignature, bool) {
	in, ok := b.Input(inputCtor)
	if !ok {
		return workspace.ConstructorSignature{}, false
	}
	cb, ok := in.Target().(*ConstructorBlock)
	if !ok {
		return workspace.ConstructorSignature{}, false
	}
	return cb.Signature(), true
}

// ExtraState carries the colour, which is allocator-assigned and not
// recoverable from fields.
func (b *ClassBlock) ExtraState() map[string]string {
	return map[string]string{"colour": strconv.Itoa(b.colour)}
}

// ApplyExtraState restores the colour and recounts the ATTR fields the
// loader wrote raw.
func (b *ClassBlock) ApplyExtraState(extra map[string]string) {
	if hue, err := strconv.Atoi(extra["colour"]); err == nil {
		b.colour = hue
	}
	b.attrCount = countPrefixed(b.FieldNames(), attrPrefix)
}

// Definition assembles a snapshot of the class.
func (b *ClassBlock) Definition() workspace.ClassDefinition {
	def := workspace.ClassDefinition{
		Name:       b.ClassName(),
		Attributes: b.Attributes(),
		Colour:     b.colour,
	}
	if sig, ok := b.Constructor(); ok {
		def.Constructor = sig
	}
	for _, m := range b.MethodBlocks() {
		def.Methods = append(def.Methods, m.MethodDefinition())
	}
	return def.Clone()
}
