// # internal/engine/oop/rename_test.go
package oop

import (
	"testing"

	"classforge/internal/engine/index"
	"classforge/internal/engine/propagate"
	"classforge/internal/engine/tracker"
	"classforge/internal/engine/workspace"
)

func TestRenameClass_Simple(t *testing.T) {
	ws := newWS()
	car := newClass(t, ws, "Car")
	ni := newInstanceOf(t, ws, "Car")

	got := propagate.RenameClass(car, "Auto")
	if got != "Auto" {
		t.Fatalf("Expected Auto, got %s", got)
	}
	if car.ClassName() != "Auto" {
		t.Errorf("Definition holds %s", car.ClassName())
	}
	if ni.ReferencedClass() != "Auto" {
		t.Errorf("Site still references %s", ni.ReferencedClass())
	}
}

func TestRenameClass_CollisionBumpsPastTaken(t *testing.T) {
	ws := newWS()
	car := newClass(t, ws, "Car")
	newClass(t, ws, "Car2")
	ni := newInstanceOf(t, ws, "Car")

	got := propagate.RenameClass(car, "Car2")
	if got != "Car3" {
		t.Fatalf("Expected Car3, got %s", got)
	}
	if ni.ReferencedClass() != "Car3" {
		t.Errorf("Site should follow to Car3, got %s", ni.ReferencedClass())
	}
}

func TestRenameClass_Idempotent(t *testing.T) {
	ws := newWS()
	car := newClass(t, ws, "Car")
	newInstanceOf(t, ws, "Car")

	events := 0
	ws.Events().AddListener(func(ev workspace.Event) { events++ })

	if got := propagate.RenameClass(car, "Car"); got != "Car" {
		t.Fatalf("Expected Car, got %s", got)
	}
	if events != 0 {
		t.Errorf("Renaming to the current name must fire no events, fired %d", events)
	}
}

func TestRenameClass_TrimmedProposalCollapsesToNoop(t *testing.T) {
	ws := newWS()
	car := newClass(t, ws, "Car")

	events := 0
	ws.Events().AddListener(func(ev workspace.Event) { events++ })

	if got := propagate.RenameClass(car, "  Car "); got != "Car" {
		t.Fatalf("Expected Car, got %q", got)
	}
	if events != 0 {
		t.Errorf("Whitespace-only change must be a no-op, fired %d events", events)
	}
}

func TestRenameClass_AllThreeSiteKindsFollow(t *testing.T) {
	ws := newWS()
	car := newClass(t, ws, "Car")
	car.AddAttribute("engine")

	ni := newInstanceOf(t, ws, "Car")
	mc := newCall(t, ws, "Car")
	mc.SelectMember("engine")
	ws.Variables().Create("myCar", "Car")
	ig := newGetter(t, ws, "myCar")

	if n := len(index.FindReferenceSites(ws, "Car")); n != 3 {
		t.Fatalf("Expected 3 reference sites before rename, got %d", n)
	}

	propagate.RenameClass(car, "Auto")

	if ni.ReferencedClass() != "Auto" {
		t.Errorf("new_instance site: %s", ni.ReferencedClass())
	}
	if mc.ReferencedClass() != "Auto" {
		t.Errorf("member_call site: %s", mc.ReferencedClass())
	}
	if ig.ReferencedClass() != "Auto" {
		t.Errorf("instance_get site (via variable type): %s", ig.ReferencedClass())
	}
	v, _ := ws.Variables().ByName("myCar")
	if v.Type != "Auto" {
		t.Errorf("Variable type: %s", v.Type)
	}
	if n := len(index.FindReferenceSites(ws, "Car")); n != 0 {
		t.Errorf("Expected no sites left on old name, got %d", n)
	}
	if n := len(index.FindReferenceSites(ws, "Auto")); n != 3 {
		t.Errorf("Expected 3 sites on new name, got %d", n)
	}
	// The member binding survives the class rename untouched.
	if mc.MemberValue() != "engine" {
		t.Errorf("Member selection should survive class rename, got %q", mc.MemberValue())
	}
}

func TestRenameClass_EventGrouped(t *testing.T) {
	ws := newWS()
	car := newClass(t, ws, "Car")
	newInstanceOf(t, ws, "Car")

	var groups []string
	ws.Events().AddListener(func(ev workspace.Event) { groups = append(groups, ev.Group) })

	propagate.RenameClass(car, "Auto")
	if len(groups) == 0 {
		t.Fatal("Expected events from rename")
	}
	for i, g := range groups {
		if g == "" || g != groups[0] {
			t.Fatalf("Event %d not in the rename group: %q vs %q", i, g, groups[0])
		}
	}
}

func TestRenameMethod_TranslatesBoundSelection(t *testing.T) {
	ws := newWS()
	car := newClass(t, ws, "Car")
	newMethod(t, ws, car, "start", nil, false)
	newMethod(t, ws, car, "stop", nil, false)

	mc := newCall(t, ws, "Car")
	mc.SelectMember("start")
	if mc.BindingState() != tracker.BoundResolved {
		t.Fatalf("Expected resolved binding, got %v", mc.BindingState())
	}

	startDef, ok := lookupMethodBlock(ws, "start")
	if !ok {
		t.Fatal("start definition not found")
	}
	got := propagate.RenameMethod(startDef, "go")
	if got != "go" {
		t.Fatalf("Expected go, got %s", got)
	}
	if mc.MemberValue() != "go" {
		t.Errorf("Selection should translate to go, got %q", mc.MemberValue())
	}
	if mc.BindingState() != tracker.BoundResolved {
		t.Errorf("Binding should stay resolved, got %v", mc.BindingState())
	}
	found := false
	for _, o := range mc.MemberOptions() {
		if o.Value == "go" && o.Label == "go()" {
			found = true
		}
		if o.Value == "start" {
			t.Error("Stale option start must be gone")
		}
	}
	if !found {
		t.Errorf("Expected go() option, got %v", mc.MemberOptions())
	}
}

func TestRenameMethod_CollisionResolves(t *testing.T) {
	ws := newWS()
	car := newClass(t, ws, "Car")
	newMethod(t, ws, car, "start", nil, false)
	stop := newMethod(t, ws, car, "stop", nil, false)

	mc := newCall(t, ws, "Car")
	mc.SelectMember("stop")

	got := propagate.RenameMethod(stop, "start")
	if got != "start2" {
		t.Fatalf("Expected start2, got %s", got)
	}
	if mc.MemberValue() != "start2" {
		t.Errorf("Bound site should follow to start2, got %q", mc.MemberValue())
	}
}

func TestRenameMethod_UnrelatedSelectionUntouched(t *testing.T) {
	ws := newWS()
	car := newClass(t, ws, "Car")
	start := newMethod(t, ws, car, "start", nil, false)
	newMethod(t, ws, car, "stop", nil, false)

	mc := newCall(t, ws, "Car")
	mc.SelectMember("stop")

	propagate.RenameMethod(start, "go")
	if mc.MemberValue() != "stop" {
		t.Errorf("Unrelated selection must stay stop, got %q", mc.MemberValue())
	}
}

func lookupMethodBlock(ws *workspace.Workspace, name string) (*MethodBlock, bool) {
	for _, b := range ws.AllBlocks(false) {
		if m, ok := b.(*MethodBlock); ok && m.MethodName() == name {
			return m, true
		}
	}
	return nil, false
}
