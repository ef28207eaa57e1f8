// # internal/engine/workspace/events.go
package workspace

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventCreate       EventKind = "create"
	EventDispose      EventKind = "dispose"
	EventChange       EventKind = "change"
	EventMove         EventKind = "move"
	EventClassRename  EventKind = "class_rename"
	EventMethodRename EventKind = "method_rename"
	EventVarRetype    EventKind = "var_retype"
)

// Event describes one observable workspace mutation. Events fired inside a
// Group call share a group ID, which is the undo boundary exposed to callers;
// the engine itself keeps no undo stack.
type Event struct {
	Kind    EventKind
	BlockID string
	Field   string
	Old     string
	New     string
	Group   string
	At      time.Time
}

// EventBus fans events out to listeners synchronously, in registration
// order, on the firing goroutine.
type EventBus struct {
	listeners map[int]func(Event)
	nextID    int
	order     []int
	group     string
}

func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[int]func(Event))}
}

// AddListener registers fn and returns a function that removes it again.
func (b *EventBus) AddListener(fn func(Event)) func() {
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.order = append(b.order, id)
	return func() {
		delete(b.listeners, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Fire stamps the event with the current group and time and delivers it.
func (b *EventBus) Fire(ev Event) {
	ev.Group = b.group
	ev.At = time.Now()
	for _, id := range b.order {
		if fn, ok := b.listeners[id]; ok {
			fn(ev)
		}
	}
}

// Group runs fn with a fresh group ID attached to every event fired inside.
// Nested calls keep the outermost group, so one user gesture stays one
// undo boundary.
func (b *EventBus) Group(fn func()) {
	if b.group != "" {
		fn()
		return
	}
	b.group = uuid.NewString()
	defer func() { b.group = "" }()
	fn()
}

// CurrentGroup reports the active group ID, empty outside Group calls.
func (b *EventBus) CurrentGroup() string {
	return b.group
}
