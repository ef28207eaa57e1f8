// # internal/engine/workspace/events_test.go
package workspace

import "testing"

func TestEventBus_FireOrder(t *testing.T) {
	bus := NewEventBus()
	var seen []string
	bus.AddListener(func(ev Event) { seen = append(seen, "a") })
	bus.AddListener(func(ev Event) { seen = append(seen, "b") })

	bus.Fire(Event{Kind: EventChange})
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("Listeners fired out of order: %v", seen)
	}
}

func TestEventBus_RemoveListener(t *testing.T) {
	bus := NewEventBus()
	count := 0
	remove := bus.AddListener(func(ev Event) { count++ })
	bus.Fire(Event{Kind: EventChange})
	remove()
	bus.Fire(Event{Kind: EventChange})
	if count != 1 {
		t.Errorf("Expected 1 delivery after removal, got %d", count)
	}
}

func TestEventBus_Group(t *testing.T) {
	bus := NewEventBus()
	var groups []string
	bus.AddListener(func(ev Event) { groups = append(groups, ev.Group) })

	bus.Fire(Event{Kind: EventChange})
	bus.Group(func() {
		bus.Fire(Event{Kind: EventClassRename})
		bus.Group(func() {
			bus.Fire(Event{Kind: EventChange})
		})
	})
	bus.Fire(Event{Kind: EventChange})

	if groups[0] != "" {
		t.Error("Event outside Group should have no group ID")
	}
	if groups[1] == "" || groups[1] != groups[2] {
		t.Error("Nested Group must keep the outer group ID")
	}
	if groups[3] != "" {
		t.Error("Group ID must clear after the Group call returns")
	}
}

func TestWorkspace_EventsOnMutation(t *testing.T) {
	ws := New(testRegistry())
	var kinds []EventKind
	ws.Events().AddListener(func(ev Event) { kinds = append(kinds, ev.Kind) })

	b, _ := ws.NewBlock("stub")
	b.SetField("NAME", "Car")
	b.SetField("NAME", "Car") // no-op, no event
	b.Dispose()

	want := []EventKind{EventCreate, EventChange, EventDispose}
	if len(kinds) != len(want) {
		t.Fatalf("Expected %d events, got %d: %v", len(want), len(kinds), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}
