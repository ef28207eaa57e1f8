// # internal/engine/workspace/input.go
package workspace

type InputKind int

const (
	InputValue InputKind = iota
	InputStatement
	InputDummy
)

// Input is a named socket on a block. Value and statement inputs carry a
// parent-side connection; dummy inputs only carry a label.
type Input struct {
	name  string
	kind  InputKind
	label string
	conn  *Connection
}

func (in *Input) Name() string    { return in.name }
func (in *Input) Kind() InputKind { return in.kind }
func (in *Input) Label() string   { return in.label }

// SetLabel replaces the display label. Used for in-place parameter renames
// where the socket and its connection must survive.
func (in *Input) SetLabel(label string) {
	in.label = label
}

// Connection returns the parent-side connection, nil for dummy inputs.
func (in *Input) Connection() *Connection {
	return in.conn
}

// Target returns the connected child block, nil when empty.
func (in *Input) Target() Block {
	if in.conn == nil {
		return nil
	}
	return in.conn.Target()
}
