// # internal/engine/workspace/connection.go
package workspace

import "fmt"

type ConnKind int

const (
	ConnOutput ConnKind = iota
	ConnInputValue
	ConnPrevious
	ConnNext
	ConnInputStatement
)

func (k ConnKind) String() string {
	switch k {
	case ConnOutput:
		return "output"
	case ConnInputValue:
		return "input_value"
	case ConnPrevious:
		return "previous"
	case ConnNext:
		return "next"
	case ConnInputStatement:
		return "input_statement"
	}
	return "unknown"
}

// Connection is one attachment point on a block. Output and previous
// connections sit on the child side; value inputs, statement inputs and
// next connections sit on the parent side.
type Connection struct {
	kind  ConnKind
	owner Block
	peer  *Connection
}

func newConnection(kind ConnKind, owner Block) *Connection {
	return &Connection{kind: kind, owner: owner}
}

func (c *Connection) Kind() ConnKind    { return c.kind }
func (c *Connection) Owner() Block      { return c.owner }
func (c *Connection) IsConnected() bool { return c.peer != nil }

// Target returns the block on the other end, nil when unconnected.
func (c *Connection) Target() Block {
	if c.peer == nil {
		return nil
	}
	return c.peer.owner
}

// Peer returns the connection on the other end, nil when unconnected.
func (c *Connection) Peer() *Connection {
	return c.peer
}

func compatible(a, b ConnKind) bool {
	switch a {
	case ConnOutput:
		return b == ConnInputValue
	case ConnInputValue:
		return b == ConnOutput
	case ConnPrevious:
		return b == ConnNext || b == ConnInputStatement
	case ConnNext, ConnInputStatement:
		return b == ConnPrevious
	}
	return false
}

func isChildSide(k ConnKind) bool {
	return k == ConnOutput || k == ConnPrevious
}

// Connect joins two free connections. Both ends must be unconnected;
// displacement is the caller's job, never implicit.
func (c *Connection) Connect(other *Connection) error {
	if other == nil {
		return fmt.Errorf("connect %s: nil target", c.kind)
	}
	if c.owner == other.owner {
		return fmt.Errorf("connect %s: block %q cannot connect to itself", c.kind, c.owner.ID())
	}
	if !compatible(c.kind, other.kind) {
		return fmt.Errorf("connect: %s is not compatible with %s", c.kind, other.kind)
	}
	if c.peer != nil || other.peer != nil {
		return fmt.Errorf("connect %s: already connected, disconnect first", c.kind)
	}
	c.peer = other
	other.peer = c

	child := c
	if !isChildSide(child.kind) {
		child = other
	}
	ws := child.owner.Workspace()
	ws.demoteFromTopLevel(child.owner)
	ws.events.Fire(Event{Kind: EventMove, BlockID: child.owner.ID()})
	return nil
}

// Disconnect severs the connection. The child side becomes a top-level
// block again. No-op when unconnected.
func (c *Connection) Disconnect() {
	if c.peer == nil {
		return
	}
	other := c.peer
	c.peer = nil
	other.peer = nil

	child := c
	if !isChildSide(child.kind) {
		child = other
	}
	ws := child.owner.Workspace()
	ws.promoteToTopLevel(child.owner)
	ws.events.Fire(Event{Kind: EventMove, BlockID: child.owner.ID()})
}
