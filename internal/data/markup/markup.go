// # internal/data/markup/markup.go

// Package markup reads and writes workspace files. A file is a JSON
// document of variables and block trees, shaped so that hand edits and
// diffs stay readable: fields and inputs are objects keyed by name,
// children nest under the input that holds them and statement chains
// nest under next.
package markup

import (
	"encoding/json"
	"fmt"
)

// Version is the newest document version this build writes and accepts.
const Version = 1

// Extension is the workspace file suffix.
const Extension = ".cfw"

// Document is one serialized workspace.
type Document struct {
	Version   int            `json:"version"`
	Variables []VariableNode `json:"variables,omitempty"`
	Blocks    []BlockNode    `json:"blocks,omitempty"`
}

// VariableNode is one workspace variable. For instance variables Type
// holds the class name.
type VariableNode struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// BlockNode is one block and everything hanging off it. Extra carries
// block state that lives outside fields, such as a class colour or a
// call binding.
type BlockNode struct {
	Type   string               `json:"type"`
	ID     string               `json:"id,omitempty"`
	Fields map[string]string    `json:"fields,omitempty"`
	Extra  map[string]string    `json:"extra,omitempty"`
	Inputs map[string]InputNode `json:"inputs,omitempty"`
	Next   *BlockNode           `json:"next,omitempty"`
}

// InputNode is the content of one socket: a real block, a shadow
// placeholder, or nothing. When a document carries both, the real block
// wins and the shadow is dropped. An empty object still records that the
// socket exists.
type InputNode struct {
	Block  *BlockNode `json:"block,omitempty"`
	Shadow *BlockNode `json:"shadow,omitempty"`
}

// Encode renders the document as indented JSON with a trailing newline.
// Map keys marshal sorted, so encoding the same workspace twice yields
// identical bytes.
func Encode(doc Document) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode markup: %w", err)
	}
	return append(out, '\n'), nil
}

// Decode parses a document. Version checks happen at restore time, not
// here, so tooling can still inspect files it cannot load.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse markup: %w", err)
	}
	return doc, nil
}
