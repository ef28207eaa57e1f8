// # internal/data/markup/codec.go
package markup

import (
	"fmt"

	"classforge/internal/engine/workspace"
	"classforge/internal/shared/util"
)

// Snapshot serializes a live workspace. Top-level blocks keep their
// creation order, which is the order a restore recreates them in, so a
// save and load round-trip preserves workspace traversal order.
func Snapshot(ws *workspace.Workspace) Document {
	doc := Document{Version: Version}
	for _, v := range ws.Variables().All() {
		doc.Variables = append(doc.Variables, VariableNode{ID: v.ID, Name: v.Name, Type: v.Type})
	}
	for _, b := range ws.TopLevel() {
		doc.Blocks = append(doc.Blocks, *encodeBlock(b))
	}
	return doc
}

func encodeBlock(b workspace.Block) *BlockNode {
	node := &BlockNode{Type: b.Type(), ID: b.ID()}
	for _, name := range b.FieldNames() {
		if node.Fields == nil {
			node.Fields = make(map[string]string)
		}
		node.Fields[name] = b.FieldValue(name)
	}
	if es, ok := b.(workspace.ExtraStater); ok {
		if extra := es.ExtraState(); len(extra) > 0 {
			node.Extra = extra
		}
	}
	// Empty sockets are written too. Argument sockets on a site whose
	// class is gone cannot be rebuilt from definitions, so the file is
	// the only place their count survives.
	for _, in := range b.Inputs() {
		if in.Connection() == nil {
			continue
		}
		entry := InputNode{}
		if child := in.Target(); child != nil {
			if child.IsShadow() {
				entry.Shadow = encodeBlock(child)
			} else {
				entry.Block = encodeBlock(child)
			}
		}
		if node.Inputs == nil {
			node.Inputs = make(map[string]InputNode)
		}
		node.Inputs[in.Name()] = entry
	}
	if next := b.NextConnection(); next != nil && next.IsConnected() {
		node.Next = encodeBlock(next.Target())
	}
	return node
}

// Restore loads a document into a workspace. Variables come first so
// variable-backed blocks resolve their types as they appear. Field values
// are written raw, with no legal-name arbitration; the file is trusted to
// contain what a save wrote. Callers run a refresh pass afterwards to
// re-resolve member bindings, rebuild dropdowns and relabel argument
// sockets, none of which are persisted.
func Restore(ws *workspace.Workspace, doc Document) error {
	if doc.Version > Version {
		return fmt.Errorf("markup version %d is newer than supported version %d", doc.Version, Version)
	}
	for _, v := range doc.Variables {
		if v.ID == "" {
			ws.Variables().Create(v.Name, v.Type)
			continue
		}
		ws.Variables().CreateWithID(v.ID, v.Name, v.Type)
	}
	for i := range doc.Blocks {
		if _, err := restoreBlock(ws, &doc.Blocks[i], false); err != nil {
			return err
		}
	}
	return nil
}

func restoreBlock(ws *workspace.Workspace, node *BlockNode, shadow bool) (workspace.Block, error) {
	var (
		b   workspace.Block
		err error
	)
	if shadow {
		b, err = ws.NewShadowBlockWithID(node.Type, node.ID)
	} else {
		b, err = ws.NewBlockWithID(node.Type, node.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("restore block: %w", err)
	}
	for _, name := range util.SortedStringKeys(node.Fields) {
		b.SetField(name, node.Fields[name])
	}
	// Always applied, even with no extra entry, so blocks rebuild counters
	// derived from the raw fields above.
	if es, ok := b.(workspace.ExtraStater); ok {
		es.ApplyExtraState(node.Extra)
	}
	// Natural key order keeps argument sockets positional: ARG10 must
	// reattach after ARG2, not between ARG1 and ARG2.
	for _, name := range util.SortedKeysNatural(node.Inputs) {
		entry := node.Inputs[name]
		if err := attachInput(ws, b, name, entry); err != nil {
			return nil, err
		}
	}
	if node.Next != nil {
		if err := attachNext(ws, b, node.Next); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func attachInput(ws *workspace.Workspace, parent workspace.Block, name string, entry InputNode) error {
	in, ok := parent.Input(name)
	if !ok {
		// Argument sockets grow at runtime and do not exist on a freshly
		// built block. They are always value inputs.
		in = parent.AppendValueInput(name)
	}
	node, shadow := entry.Block, false
	if node == nil {
		node, shadow = entry.Shadow, true
	}
	if node == nil {
		return nil
	}
	if in.Connection() == nil {
		return fmt.Errorf("restore %s: input %q cannot hold a block", parent.Type(), name)
	}
	child, err := restoreBlock(ws, node, shadow)
	if err != nil {
		return err
	}
	conn, err := childConnectionFor(in.Kind(), child)
	if err != nil {
		return fmt.Errorf("restore %s: input %q: %w", parent.Type(), name, err)
	}
	if err := in.Connection().Connect(conn); err != nil {
		return fmt.Errorf("restore %s: input %q: %w", parent.Type(), name, err)
	}
	return nil
}

func attachNext(ws *workspace.Workspace, b workspace.Block, node *BlockNode) error {
	next, err := restoreBlock(ws, node, false)
	if err != nil {
		return err
	}
	nc := b.NextConnection()
	if nc == nil {
		return fmt.Errorf("restore %s: no next connection for chained %s block", b.Type(), node.Type)
	}
	pc := next.PreviousConnection()
	if pc == nil {
		return fmt.Errorf("restore %s: chained %s block has no previous connection", b.Type(), node.Type)
	}
	if err := nc.Connect(pc); err != nil {
		return fmt.Errorf("restore %s: %w", b.Type(), err)
	}
	return nil
}

// childConnectionFor picks the child-side connection for a socket. A block
// whose saved shape disagrees with its position, which happens in hand
// written files that omit extra state, is reshaped to fit; it is fresh and
// unconnected at this point, so the flip cannot strand neighbours.
func childConnectionFor(kind workspace.InputKind, child workspace.Block) (*workspace.Connection, error) {
	if kind == workspace.InputStatement {
		if child.PreviousConnection() == nil {
			if err := child.SetOutput(false); err != nil {
				return nil, err
			}
			if err := child.SetPreviousNext(true); err != nil {
				return nil, err
			}
		}
		return child.PreviousConnection(), nil
	}
	if child.OutputConnection() == nil {
		if err := child.SetPreviousNext(false); err != nil {
			return nil, err
		}
		if err := child.SetOutput(true); err != nil {
			return nil, err
		}
	}
	return child.OutputConnection(), nil
}
