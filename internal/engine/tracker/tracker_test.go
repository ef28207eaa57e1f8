// # internal/engine/tracker/tracker_test.go
package tracker

import (
	"strings"
	"testing"

	"classforge/internal/engine/index"
	"classforge/internal/engine/workspace"
)

type classStub struct {
	workspace.Base
	attrs   []string
	methods []workspace.MethodDefinition
}

func (c *classStub) ClassName() string     { return c.FieldValue("NAME") }
func (c *classStub) SetClassName(n string) { c.SetField("NAME", n) }
func (c *classStub) Definition() workspace.ClassDefinition {
	return workspace.ClassDefinition{
		Name:       c.ClassName(),
		Attributes: c.attrs,
		Methods:    c.methods,
	}
}

// siteStub carries the full Site surface with plain fields so the tests
// observe exactly what the tracker wrote.
type siteStub struct {
	workspace.Base
	member      string
	options     []workspace.Option
	kind        workspace.MemberKind
	state       State
	attrCount   int
	methodCount int
}

func (s *siteStub) BoundClassName() string                   { return s.FieldValue("CLASS") }
func (s *siteStub) MemberValue() string                      { return s.member }
func (s *siteStub) SetMemberValue(v string)                  { s.member = v }
func (s *siteStub) SetMemberOptions(opts []workspace.Option) { s.options = opts }
func (s *siteStub) BoundKind() workspace.MemberKind          { return s.kind }
func (s *siteStub) SetBoundKind(kind workspace.MemberKind)   { s.kind = kind }
func (s *siteStub) BindingState() State                      { return s.state }
func (s *siteStub) SetBindingState(st State)                 { s.state = st }
func (s *siteStub) MemberCounts() (int, int)                 { return s.attrCount, s.methodCount }

func (s *siteStub) SetMemberCounts(attrs, methods int) {
	s.attrCount = attrs
	s.methodCount = methods
}

func stubRegistry() *workspace.Registry {
	r := workspace.NewRegistry()
	r.Register("class_stub", func(ws *workspace.Workspace) workspace.Block {
		b := &classStub{}
		b.Base = workspace.NewBase(ws, b, "class_stub")
		return b
	})
	r.Register("site_stub", func(ws *workspace.Workspace) workspace.Block {
		b := &siteStub{}
		b.Base = workspace.NewBase(ws, b, "site_stub")
		_ = b.SetPreviousNext(true)
		return b
	})
	return r
}

func addClass(t *testing.T, ws *workspace.Workspace, name string, attrs []string, methods []workspace.MethodDefinition) *classStub {
	t.Helper()
	b, err := ws.NewBlock("class_stub")
	if err != nil {
		t.Fatalf("NewBlock failed: %v", err)
	}
	c := b.(*classStub)
	c.SetClassName(name)
	c.attrs = attrs
	c.methods = methods
	return c
}

func addSite(t *testing.T, ws *workspace.Workspace, className string) *siteStub {
	t.Helper()
	b, err := ws.NewBlock("site_stub")
	if err != nil {
		t.Fatalf("NewBlock failed: %v", err)
	}
	s := b.(*siteStub)
	s.SetField("CLASS", className)
	return s
}

func TestStateStrings(t *testing.T) {
	cases := map[State]string{
		Unbound:         "unbound",
		BoundUnresolved: "bound_unresolved",
		BoundResolved:   "bound_resolved",
	}
	for st, want := range cases {
		if st.String() != want {
			t.Errorf("Expected %s, got %s", want, st.String())
		}
		if ParseState(want) != st {
			t.Errorf("ParseState(%s) did not round-trip", want)
		}
	}
	if ParseState("half_bound") != Unbound {
		t.Error("Unknown state strings must load as unbound")
	}
}

func TestRefresh_BindsAndResolves(t *testing.T) {
	ws := workspace.New(stubRegistry())
	addClass(t, ws, "Car", []string{"engine"}, []workspace.MethodDefinition{
		{Name: "start", Parameters: []string{"key"}},
	})
	site := addSite(t, ws, "Car")
	site.member = "start"

	Refresh(site, "", "")

	if site.state != BoundResolved {
		t.Errorf("Expected bound_resolved, got %v", site.state)
	}
	if site.kind != workspace.MemberMethod {
		t.Errorf("Expected method kind, got %v", site.kind)
	}
	if site.attrCount != 1 || site.methodCount != 1 {
		t.Errorf("Expected counts 1/1, got %d/%d", site.attrCount, site.methodCount)
	}
	if len(ArgInputs(site)) != 1 {
		t.Errorf("Expected 1 argument socket, got %d", len(ArgInputs(site)))
	}
}

func TestRefresh_ShortCircuitSkipsOnlyTheDropdown(t *testing.T) {
	ws := workspace.New(stubRegistry())
	def := addClass(t, ws, "Car", nil, []workspace.MethodDefinition{{Name: "start"}})
	site := addSite(t, ws, "Car")
	site.member = "start"
	Refresh(site, "", "")

	// Count-neutral signature change: the dropdown is untouched but the
	// sockets and shape still reconcile.
	def.methods = []workspace.MethodDefinition{
		{Name: "start", Parameters: []string{"key"}, HasReturn: true},
	}
	stale := []workspace.Option{{Label: "sentinel", Value: "sentinel"}}
	site.options = stale

	Refresh(site, "", "")

	if len(site.options) != 1 || site.options[0].Value != "sentinel" {
		t.Error("Dropdown must not be rebuilt when count and names are stable")
	}
	if len(ArgInputs(site)) != 1 {
		t.Errorf("Sockets must still reconcile, got %d", len(ArgInputs(site)))
	}
	if site.OutputConnection() == nil {
		t.Error("Shape must still reconcile on a return toggle")
	}
}

func TestRefresh_KindSwapRebuildsDropdown(t *testing.T) {
	ws := workspace.New(stubRegistry())
	def := addClass(t, ws, "Car", []string{"engine"}, []workspace.MethodDefinition{{Name: "start"}})
	site := addSite(t, ws, "Car")
	site.member = "start"
	Refresh(site, "", "")

	// One attribute out, one method in: the total stays at two, the
	// composition does not.
	def.attrs = nil
	def.methods = []workspace.MethodDefinition{{Name: "start"}, {Name: "stop"}}

	Refresh(site, "", "")

	if site.attrCount != 0 || site.methodCount != 2 {
		t.Errorf("Expected counts 0/2, got %d/%d", site.attrCount, site.methodCount)
	}
	hasStop := false
	for _, o := range site.options {
		if o.Value == "engine" {
			t.Error("Removed attribute must leave the dropdown")
		}
		if o.Value == "stop" {
			hasStop = true
		}
	}
	if !hasStop {
		t.Errorf("Added method must appear in the dropdown, got %v", site.options)
	}
}

func TestRefresh_RenameTranslatesSelection(t *testing.T) {
	ws := workspace.New(stubRegistry())
	addClass(t, ws, "Car", nil, []workspace.MethodDefinition{{Name: "go"}, {Name: "stop"}})
	site := addSite(t, ws, "Car")
	site.member = "start" // definition already renamed to go
	site.methodCount = 2

	Refresh(site, "start", "go")

	if site.member != "go" {
		t.Errorf("Expected selection translated to go, got %q", site.member)
	}
	if site.state != BoundResolved {
		t.Errorf("Expected bound_resolved, got %v", site.state)
	}
	if len(site.options) == 0 || site.options[0].Value != "go" {
		t.Errorf("Expected rebuilt options led by go, got %v", site.options)
	}
	for _, o := range site.options {
		if o.Value == "start" {
			t.Error("Stale name must not survive the rebuild")
		}
	}
}

func TestRefresh_RenameRespectsInjectedEquality(t *testing.T) {
	ws := workspace.New(stubRegistry(), workspace.WithNameEquals(strings.EqualFold))
	addClass(t, ws, "Car", nil, []workspace.MethodDefinition{{Name: "go"}})
	site := addSite(t, ws, "Car")
	site.member = "START"
	site.methodCount = 1

	Refresh(site, "start", "go")

	if site.member != "go" {
		t.Errorf("Case-insensitive match should translate START, got %q", site.member)
	}
}

func TestRefresh_MissingMemberClearsSelection(t *testing.T) {
	ws := workspace.New(stubRegistry())
	addClass(t, ws, "Car", nil, []workspace.MethodDefinition{{Name: "stop"}})
	site := addSite(t, ws, "Car")
	site.member = "start"
	site.methodCount = 2 // start was there before

	Refresh(site, "", "")

	if site.member != "" {
		t.Errorf("Expected cleared selection, got %q", site.member)
	}
	if site.kind != workspace.MemberUnset {
		t.Errorf("Expected unset kind, got %v", site.kind)
	}
	if site.state != BoundUnresolved {
		t.Errorf("Expected bound_unresolved, got %v", site.state)
	}
	if len(site.options) != 1 || site.options[0].Label != "stop()" {
		t.Errorf("Remaining members should still be offered, got %v", site.options)
	}
}

func TestRefresh_EmptySelectionTouchesNoShape(t *testing.T) {
	ws := workspace.New(stubRegistry())
	addClass(t, ws, "Car", []string{"engine"}, nil)
	site := addSite(t, ws, "Car")

	Refresh(site, "", "")

	if site.state != Unbound {
		t.Errorf("No selection means no binding, got %v", site.state)
	}
	if site.PreviousConnection() == nil {
		t.Error("Shape must be left alone while nothing is selected")
	}
	if len(site.options) != 1 {
		t.Errorf("Options still rebuild for browsing, got %v", site.options)
	}
}

func TestBuildOptions_Ordering(t *testing.T) {
	members := []index.Member{
		{Name: "engine", Kind: workspace.MemberAttribute},
		{Name: "start", Kind: workspace.MemberMethod},
		{Name: "wheels", Kind: workspace.MemberAttribute},
	}

	opts := BuildOptions(members, "start")
	want := []workspace.Option{
		{Label: "start()", Value: "start"},
		{Label: "engine", Value: "engine"},
		{Label: "wheels", Value: "wheels"},
		{Label: "start()", Value: "start"},
	}
	if len(opts) != len(want) {
		t.Fatalf("Expected %d options, got %d: %v", len(want), len(opts), opts)
	}
	for i := range want {
		if opts[i] != want[i] {
			t.Errorf("Position %d: expected %+v, got %+v", i, want[i], opts[i])
		}
	}

	// Selected attributes keep a bare label.
	opts = BuildOptions(members, "engine")
	if opts[0].Label != "engine" {
		t.Errorf("Attribute labels never decorate, got %+v", opts[0])
	}

	// No selection, no leading duplicate.
	opts = BuildOptions(members, "")
	if len(opts) != 3 {
		t.Errorf("Expected 3 options without a selection, got %v", opts)
	}
}

func TestReconcileArgs_GrowShrinkRelabel(t *testing.T) {
	ws := workspace.New(stubRegistry())
	site := addSite(t, ws, "Car")

	ReconcileArgs(site, []string{"a", "b"})
	args := ArgInputs(site)
	if len(args) != 2 || args[0].Name() != "ARG0" || args[1].Name() != "ARG1" {
		t.Fatalf("Unexpected sockets after growth: %v", names(args))
	}
	if args[0].Label() != "a" || args[1].Label() != "b" {
		t.Errorf("Labels not applied: %s %s", args[0].Label(), args[1].Label())
	}

	filler := addSite(t, ws, "Car")
	if err := filler.SetPreviousNext(false); err != nil {
		t.Fatal(err)
	}
	if err := filler.SetOutput(true); err != nil {
		t.Fatal(err)
	}
	if err := args[0].Connection().Connect(filler.OutputConnection()); err != nil {
		t.Fatal(err)
	}

	// Count-neutral rename relabels in place.
	ReconcileArgs(site, []string{"x", "y"})
	args = ArgInputs(site)
	if args[0].Label() != "x" || args[1].Label() != "y" {
		t.Error("In-place relabel failed")
	}
	if args[0].Target() == nil {
		t.Error("Relabel must not break connections")
	}

	// Shrink drops trailing sockets only.
	ReconcileArgs(site, []string{"x"})
	args = ArgInputs(site)
	if len(args) != 1 || args[0].Name() != "ARG0" {
		t.Fatalf("Unexpected sockets after shrink: %v", names(args))
	}
	if args[0].Target() == nil || args[0].Target().ID() != filler.ID() {
		t.Error("Leading connection must survive a shrink")
	}

	ReconcileArgs(site, nil)
	if len(ArgInputs(site)) != 0 {
		t.Error("Expected all sockets removed")
	}
}

func TestReconcileShape_FlipsBothWays(t *testing.T) {
	ws := workspace.New(stubRegistry())
	site := addSite(t, ws, "Car")
	if site.PreviousConnection() == nil {
		t.Fatal("Stub should start as a statement")
	}

	ReconcileShape(site, true)
	if site.OutputConnection() == nil || site.PreviousConnection() != nil {
		t.Error("Expected expression shape")
	}

	// Idempotent when the shape already matches.
	ReconcileShape(site, true)
	if site.OutputConnection() == nil {
		t.Error("Repeat flip must be a no-op")
	}

	ReconcileShape(site, false)
	if site.PreviousConnection() == nil || site.NextConnection() == nil || site.OutputConnection() != nil {
		t.Error("Expected statement shape")
	}
}

func names(ins []*workspace.Input) []string {
	out := make([]string, len(ins))
	for i, in := range ins {
		out[i] = in.Name()
	}
	return out
}
