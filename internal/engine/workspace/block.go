// # internal/engine/workspace/block.go
package workspace

import (
	"fmt"

	"github.com/google/uuid"
)

// Block is the behavior shared by every block in a workspace. Concrete
// block types embed Base and add capability methods on top; engine code
// discovers those capabilities by type assertion, never by reflection.
type Block interface {
	ID() string
	Type() string
	Workspace() *Workspace
	IsShadow() bool
	InFlyout() bool

	Field(name string) (*Field, bool)
	FieldValue(name string) string
	SetField(name, value string)
	FieldNames() []string

	Input(name string) (*Input, bool)
	Inputs() []*Input
	AppendValueInput(name string) *Input
	AppendStatementInput(name string) *Input
	RemoveInput(name string) error

	OutputConnection() *Connection
	PreviousConnection() *Connection
	NextConnection() *Connection
	SetOutput(enabled bool) error
	SetPreviousNext(enabled bool) error

	Parent() Block
	Children() []Block
	Dispose()
}

// Base carries the plumbing every block type shares. Concrete types embed
// it by value and initialize it with NewBase, passing themselves as self so
// traversal hands out the full block, not the embedded Base.
type Base struct {
	id         string
	typeName   string
	ws         *Workspace
	self       Block
	fields     map[string]*Field
	fieldOrder []string
	inputs     []*Input
	output     *Connection
	previous   *Connection
	next       *Connection
	shadow     bool
}

func NewBase(ws *Workspace, self Block, typeName string) Base {
	return Base{
		id:       uuid.NewString(),
		typeName: typeName,
		ws:       ws,
		self:     self,
		fields:   make(map[string]*Field),
	}
}

func (b *Base) ID() string            { return b.id }
func (b *Base) Type() string          { return b.typeName }
func (b *Base) Workspace() *Workspace { return b.ws }
func (b *Base) IsShadow() bool        { return b.shadow }

// InFlyout reports whether the owning workspace is a flyout. Flyout blocks
// are palette templates: they keep their names verbatim and never join
// legal-name arbitration.
func (b *Base) InFlyout() bool {
	return b.ws.IsFlyout()
}

func (b *Base) markShadow()     { b.shadow = true }
func (b *Base) setID(id string) { b.id = id }

func (b *Base) Field(name string) (*Field, bool) {
	f, ok := b.fields[name]
	return f, ok
}

// FieldValue returns the field's value, empty string when the field does
// not exist.
func (b *Base) FieldValue(name string) string {
	if f, ok := b.fields[name]; ok {
		return f.value
	}
	return ""
}

// SetField sets a field value, creating the field when absent. A change
// event fires only when the value actually changes.
func (b *Base) SetField(name, value string) {
	f, ok := b.fields[name]
	if !ok {
		f = &Field{name: name}
		b.fields[name] = f
		b.fieldOrder = append(b.fieldOrder, name)
	}
	if f.value == value {
		return
	}
	old := f.value
	f.value = value
	b.ws.events.Fire(Event{Kind: EventChange, BlockID: b.id, Field: name, Old: old, New: value})
}

// RemoveField drops a field entirely. Used when trailing parameter or
// attribute slots shrink.
func (b *Base) RemoveField(name string) {
	if _, ok := b.fields[name]; !ok {
		return
	}
	delete(b.fields, name)
	for i, n := range b.fieldOrder {
		if n == name {
			b.fieldOrder = append(b.fieldOrder[:i], b.fieldOrder[i+1:]...)
			break
		}
	}
}

// FieldNames returns field names in creation order.
func (b *Base) FieldNames() []string {
	out := make([]string, len(b.fieldOrder))
	copy(out, b.fieldOrder)
	return out
}

func (b *Base) Input(name string) (*Input, bool) {
	for _, in := range b.inputs {
		if in.name == name {
			return in, true
		}
	}
	return nil, false
}

// Inputs returns the inputs in append order. The slice is shared; callers
// must not mutate it.
func (b *Base) Inputs() []*Input {
	return b.inputs
}

func (b *Base) AppendValueInput(name string) *Input {
	in := &Input{name: name, kind: InputValue}
	in.conn = newConnection(ConnInputValue, b.self)
	b.inputs = append(b.inputs, in)
	return in
}

func (b *Base) AppendStatementInput(name string) *Input {
	in := &Input{name: name, kind: InputStatement}
	in.conn = newConnection(ConnInputStatement, b.self)
	b.inputs = append(b.inputs, in)
	return in
}

// RemoveInput drops an input. A connected real child is disconnected and
// becomes top-level; a connected shadow child is disposed with the socket.
func (b *Base) RemoveInput(name string) error {
	for i, in := range b.inputs {
		if in.name != name {
			continue
		}
		if in.conn != nil && in.conn.IsConnected() {
			child := in.conn.Target()
			if child.IsShadow() {
				child.Dispose()
			} else {
				in.conn.Disconnect()
			}
		}
		b.inputs = append(b.inputs[:i], b.inputs[i+1:]...)
		return nil
	}
	return fmt.Errorf("block %q has no input %q", b.id, name)
}

func (b *Base) OutputConnection() *Connection   { return b.output }
func (b *Base) PreviousConnection() *Connection { return b.previous }
func (b *Base) NextConnection() *Connection     { return b.next }

// SetOutput adds or removes the output connection. A block cannot hold an
// output alongside previous/next; callers reshaping a block must remove
// the other pair first, and must disconnect before removing.
func (b *Base) SetOutput(enabled bool) error {
	if enabled {
		if b.previous != nil || b.next != nil {
			return fmt.Errorf("block %q: cannot enable output while previous/next exist", b.id)
		}
		if b.output == nil {
			b.output = newConnection(ConnOutput, b.self)
		}
		return nil
	}
	if b.output == nil {
		return nil
	}
	if b.output.IsConnected() {
		return fmt.Errorf("block %q: output is connected, disconnect before reshaping", b.id)
	}
	b.output = nil
	return nil
}

// SetPreviousNext adds or removes the previous/next pair, with the same
// exclusivity and disconnect-first rules as SetOutput.
func (b *Base) SetPreviousNext(enabled bool) error {
	if enabled {
		if b.output != nil {
			return fmt.Errorf("block %q: cannot enable previous/next while output exists", b.id)
		}
		if b.previous == nil {
			b.previous = newConnection(ConnPrevious, b.self)
		}
		if b.next == nil {
			b.next = newConnection(ConnNext, b.self)
		}
		return nil
	}
	if b.previous != nil && b.previous.IsConnected() {
		return fmt.Errorf("block %q: previous is connected, disconnect before reshaping", b.id)
	}
	if b.next != nil && b.next.IsConnected() {
		return fmt.Errorf("block %q: next is connected, disconnect before reshaping", b.id)
	}
	b.previous = nil
	b.next = nil
	return nil
}

// Parent returns the block this one hangs off, nil for top-level blocks.
func (b *Base) Parent() Block {
	if b.output != nil && b.output.IsConnected() {
		return b.output.Target()
	}
	if b.previous != nil && b.previous.IsConnected() {
		return b.previous.Target()
	}
	return nil
}

// Children returns directly attached blocks: input targets in input order,
// then the next block in the chain.
func (b *Base) Children() []Block {
	var out []Block
	for _, in := range b.inputs {
		if t := in.Target(); t != nil {
			out = append(out, t)
		}
	}
	if b.next != nil && b.next.IsConnected() {
		out = append(out, b.next.Target())
	}
	return out
}

// Dispose removes the block and everything under it from the workspace.
// Children go first, then the block severs its remaining connections and
// unregisters.
func (b *Base) Dispose() {
	for _, child := range b.self.Children() {
		child.Dispose()
	}
	for _, in := range b.inputs {
		if in.conn != nil {
			in.conn.Disconnect()
		}
	}
	if b.next != nil {
		b.next.Disconnect()
	}
	if b.output != nil {
		b.output.Disconnect()
	}
	if b.previous != nil {
		b.previous.Disconnect()
	}
	b.ws.unregister(b.self)
	b.ws.events.Fire(Event{Kind: EventDispose, BlockID: b.id})
}
