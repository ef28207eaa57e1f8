// # internal/engine/workspace/workspace.go

// Package workspace holds the block runtime: blocks, connections, fields,
// typed variables and the event bus. It is single-threaded on purpose;
// rename and refresh cascades run synchronously on the calling goroutine
// and concurrency control belongs to the session layer above.
package workspace

import (
	"fmt"
)

// Workspace owns a set of live blocks. Block order is observable: AllBlocks
// walks top-level blocks in creation order, each followed by its subtree
// depth-first, and every index and propagation pass relies on that order
// being stable.
type Workspace struct {
	blocks     map[string]Block
	topLevel   []string
	registry   *Registry
	events     *EventBus
	vars       *VariableMap
	colours    *ColourAllocator
	nameEquals func(a, b string) bool
	flyout     bool
}

type WorkspaceOption func(*Workspace)

// Flyout marks the workspace as a palette flyout. Blocks spawned into it
// are templates and are exempt from legal-name rewriting.
func Flyout() WorkspaceOption {
	return func(ws *Workspace) { ws.flyout = true }
}

// WithNameEquals injects the name equality predicate used by every lookup
// and uniqueness check. Defaults to exact string comparison.
func WithNameEquals(eq func(a, b string) bool) WorkspaceOption {
	return func(ws *Workspace) {
		if eq != nil {
			ws.nameEquals = eq
		}
	}
}

func New(registry *Registry, opts ...WorkspaceOption) *Workspace {
	ws := &Workspace{
		blocks:     make(map[string]Block),
		registry:   registry,
		events:     NewEventBus(),
		colours:    NewColourAllocator(),
		nameEquals: func(a, b string) bool { return a == b },
	}
	ws.vars = newVariableMap(ws)
	for _, opt := range opts {
		opt(ws)
	}
	return ws
}

func (ws *Workspace) IsFlyout() bool          { return ws.flyout }
func (ws *Workspace) Events() *EventBus       { return ws.events }
func (ws *Workspace) Variables() *VariableMap { return ws.vars }

// Colours hands out the hue for each new class. The allocator is owned by
// the workspace so two workspaces never fight over the sequence.
func (ws *Workspace) Colours() *ColourAllocator { return ws.colours }

// NameEquals compares two names under the injected equality rule.
func (ws *Workspace) NameEquals(a, b string) bool {
	return ws.nameEquals(a, b)
}

// NewBlock instantiates a registered block type and adds it as a top-level
// block.
func (ws *Workspace) NewBlock(typeName string) (Block, error) {
	b, err := ws.build(typeName)
	if err != nil {
		return nil, err
	}
	ws.register(b)
	return b, nil
}

// NewShadowBlock instantiates a registered block type as a shadow. Shadows
// are socket placeholders: they live connected under a parent and are
// disposed with the socket that holds them.
func (ws *Workspace) NewShadowBlock(typeName string) (Block, error) {
	b, err := ws.build(typeName)
	if err != nil {
		return nil, err
	}
	markShadow(b)
	ws.register(b)
	return b, nil
}

// NewBlockWithID restores a block under a known ID, used by markup
// loading. An empty ID keeps the generated one.
func (ws *Workspace) NewBlockWithID(typeName, id string) (Block, error) {
	b, err := ws.build(typeName)
	if err != nil {
		return nil, err
	}
	if err := ws.applyID(b, id); err != nil {
		return nil, err
	}
	ws.register(b)
	return b, nil
}

// NewShadowBlockWithID restores a shadow block under a known ID.
func (ws *Workspace) NewShadowBlockWithID(typeName, id string) (Block, error) {
	b, err := ws.build(typeName)
	if err != nil {
		return nil, err
	}
	markShadow(b)
	if err := ws.applyID(b, id); err != nil {
		return nil, err
	}
	ws.register(b)
	return b, nil
}

func markShadow(b Block) {
	type shadower interface{ markShadow() }
	if s, ok := b.(shadower); ok {
		s.markShadow()
	}
}

func (ws *Workspace) applyID(b Block, id string) error {
	if id == "" {
		return nil
	}
	if _, taken := ws.blocks[id]; taken {
		return fmt.Errorf("block id %q already in use", id)
	}
	type identified interface{ setID(string) }
	if s, ok := b.(identified); ok {
		s.setID(id)
	}
	return nil
}

func (ws *Workspace) build(typeName string) (Block, error) {
	if ws.registry == nil {
		return nil, fmt.Errorf("workspace has no block registry")
	}
	return ws.registry.build(ws, typeName)
}

func (ws *Workspace) register(b Block) {
	ws.blocks[b.ID()] = b
	if !b.IsShadow() {
		ws.topLevel = append(ws.topLevel, b.ID())
	}
	ws.events.Fire(Event{Kind: EventCreate, BlockID: b.ID()})
}

func (ws *Workspace) unregister(b Block) {
	delete(ws.blocks, b.ID())
	ws.removeTopLevel(b.ID())
}

func (ws *Workspace) removeTopLevel(id string) {
	for i, v := range ws.topLevel {
		if v == id {
			ws.topLevel = append(ws.topLevel[:i], ws.topLevel[i+1:]...)
			return
		}
	}
}

func (ws *Workspace) demoteFromTopLevel(b Block) {
	ws.removeTopLevel(b.ID())
}

func (ws *Workspace) promoteToTopLevel(b Block) {
	if b.IsShadow() {
		return
	}
	if _, live := ws.blocks[b.ID()]; !live {
		return
	}
	for _, v := range ws.topLevel {
		if v == b.ID() {
			return
		}
	}
	ws.topLevel = append(ws.topLevel, b.ID())
}

// BlockByID returns a live block by ID.
func (ws *Workspace) BlockByID(id string) (Block, bool) {
	b, ok := ws.blocks[id]
	return b, ok
}

// RemoveBlock disposes a block and its subtree. Unknown IDs are ignored.
func (ws *Workspace) RemoveBlock(id string) {
	if b, ok := ws.blocks[id]; ok {
		b.Dispose()
	}
}

// TopLevel returns the top-level blocks in creation order.
func (ws *Workspace) TopLevel() []Block {
	out := make([]Block, 0, len(ws.topLevel))
	for _, id := range ws.topLevel {
		if b, ok := ws.blocks[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// AllBlocks returns every live block in workspace traversal order:
// top-level blocks in creation order, each followed by its descendants
// depth-first. The order is stable for an unchanged workspace and is
// deliberately not sorted. Shadow subtrees are skipped unless
// includeShadow is set.
func (ws *Workspace) AllBlocks(includeShadow bool) []Block {
	var out []Block
	for _, id := range ws.topLevel {
		b, ok := ws.blocks[id]
		if !ok {
			continue
		}
		out = appendSubtree(out, b, includeShadow)
	}
	return out
}

func appendSubtree(out []Block, b Block, includeShadow bool) []Block {
	if b.IsShadow() && !includeShadow {
		return out
	}
	out = append(out, b)
	for _, child := range b.Children() {
		out = appendSubtree(out, child, includeShadow)
	}
	return out
}

// BlockCount reports the number of live blocks, shadows included.
func (ws *Workspace) BlockCount() int {
	return len(ws.blocks)
}
