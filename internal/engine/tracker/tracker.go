// # internal/engine/tracker/tracker.go

// Package tracker keeps member reference sites consistent with the class
// definitions they are bound to: the dropdown options, the argument
// sockets and the expression/statement shape. It never resolves a broken
// binding by guessing and it never deletes a site; a dangling reference is
// a recoverable state the user fixes by picking again.
package tracker

import (
	"fmt"
	"strings"
	"time"

	"classforge/internal/engine/index"
	"classforge/internal/engine/workspace"
	"classforge/internal/shared/observability"
)

// State is a site's binding lifecycle. A site starts Unbound, records a
// member to become bound, and is resolved only after a refresh validated
// the binding against live definitions.
type State int

const (
	Unbound State = iota
	BoundUnresolved
	BoundResolved
)

func (s State) String() string {
	switch s {
	case BoundUnresolved:
		return "bound_unresolved"
	case BoundResolved:
		return "bound_resolved"
	}
	return "unbound"
}

// ParseState restores a state from its markup form. Unknown strings load
// as Unbound, which forces a clean re-binding instead of trusting bad data.
func ParseState(s string) State {
	switch s {
	case "bound_unresolved":
		return BoundUnresolved
	case "bound_resolved":
		return BoundResolved
	}
	return Unbound
}

// Site is the surface a member reference block exposes to the refresh
// pass. The block stays the owner of its state; the tracker only drives
// the transitions.
type Site interface {
	workspace.Block
	BoundClassName() string
	MemberValue() string
	SetMemberValue(v string)
	SetMemberOptions(opts []workspace.Option)
	BoundKind() workspace.MemberKind
	SetBoundKind(kind workspace.MemberKind)
	BindingState() State
	SetBindingState(s State)
	MemberCounts() (attrs, methods int)
	SetMemberCounts(attrs, methods int)
}

const argPrefix = "ARG"

// Refresh brings one site back in line with the definitions. oldName and
// newName carry a member rename through the pass; a signature-only change
// arrives with both equal.
//
// The per-kind member counts plus rename check short-circuit only the
// dropdown rebuild. Attributes and methods are counted separately; a
// combined total would hide an attribute-for-method swap. Socket and
// shape reconciliation always run, which is what catches count-neutral
// signature changes such as a return-value toggle.
func Refresh(site Site, oldName, newName string) {
	start := time.Now()
	ws := site.Workspace()
	members := index.FindMembers(ws, site.BoundClassName())
	attrs, methods := countByKind(members)
	renamed := oldName != newName

	selected := site.MemberValue()
	if renamed && selected != "" && ws.NameEquals(selected, oldName) {
		selected = newName
	}

	curAttrs, curMethods := site.MemberCounts()
	if renamed || attrs != curAttrs || methods != curMethods {
		if selected != "" && !memberExists(ws, members, selected) {
			// The bound member is gone. Clear the selection, keep the
			// remaining options, leave the block in place for re-binding.
			selected = ""
			site.SetMemberValue("")
			site.SetBoundKind(workspace.MemberUnset)
			site.SetBindingState(BoundUnresolved)
		} else if selected != site.MemberValue() {
			site.SetMemberValue(selected)
		}
		site.SetMemberOptions(BuildOptions(members, selected))
		site.SetMemberCounts(attrs, methods)
	}

	outcome := reconcile(site, members)
	observability.RefreshDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// reconcile runs the always-on half of the refresh: argument sockets and
// block shape against the resolved member.
func reconcile(site Site, members []index.Member) string {
	selected := site.MemberValue()
	if selected == "" {
		return site.BindingState().String()
	}
	ws := site.Workspace()
	m, ok := lookupMember(ws, members, selected)
	if !ok {
		site.SetBindingState(BoundUnresolved)
		return BoundUnresolved.String()
	}
	site.SetBoundKind(m.Kind)
	ReconcileArgs(site, m.Parameters)
	ReconcileShape(site, m.YieldsValue())
	site.SetBindingState(BoundResolved)
	return BoundResolved.String()
}

func countByKind(members []index.Member) (attrs, methods int) {
	for _, m := range members {
		switch m.Kind {
		case workspace.MemberAttribute:
			attrs++
		case workspace.MemberMethod:
			methods++
		}
	}
	return attrs, methods
}

func memberExists(ws *workspace.Workspace, members []index.Member, name string) bool {
	_, ok := lookupMember(ws, members, name)
	return ok
}

func lookupMember(ws *workspace.Workspace, members []index.Member, name string) (index.Member, bool) {
	for _, m := range members {
		if ws.NameEquals(m.Name, name) {
			return m, true
		}
	}
	return index.Member{}, false
}

// BuildOptions assembles the dropdown: the selected member first, then
// attributes with bare labels, then methods labelled with trailing
// parentheses. Option values always carry the bare member name; only the
// label decorates.
func BuildOptions(members []index.Member, selected string) []workspace.Option {
	var out []workspace.Option
	if selected != "" {
		label := selected
		for _, m := range members {
			if m.Name == selected && m.Kind == workspace.MemberMethod {
				label += "()"
				break
			}
		}
		out = append(out, workspace.Option{Label: label, Value: selected})
	}
	for _, m := range members {
		if m.Kind == workspace.MemberAttribute {
			out = append(out, workspace.Option{Label: m.Name, Value: m.Name})
		}
	}
	for _, m := range members {
		if m.Kind == workspace.MemberMethod {
			out = append(out, workspace.Option{Label: m.Name + "()", Value: m.Name})
		}
	}
	return out
}

// ArgInputs returns the site's argument sockets in positional order.
func ArgInputs(b workspace.Block) []*workspace.Input {
	var out []*workspace.Input
	for _, in := range b.Inputs() {
		if strings.HasPrefix(in.Name(), argPrefix) {
			out = append(out, in)
		}
	}
	return out
}

// ReconcileArgs lines the block's ARG sockets up with the parameter list.
// Equal counts relabel in place so existing connections survive a
// parameter rename; growth appends trailing sockets one at a time; and
// shrinkage removes trailing sockets one at a time, disconnecting each
// child first. Leading connections are never touched.
func ReconcileArgs(b workspace.Block, params []string) {
	cur := ArgInputs(b)
	if len(cur) == len(params) {
		for i, in := range cur {
			if in.Label() != params[i] {
				in.SetLabel(params[i])
			}
		}
		return
	}
	for len(cur) > len(params) {
		last := cur[len(cur)-1]
		_ = b.RemoveInput(last.Name())
		cur = cur[:len(cur)-1]
	}
	for len(cur) < len(params) {
		in := b.AppendValueInput(fmt.Sprintf("%s%d", argPrefix, len(cur)))
		cur = append(cur, in)
	}
	for i, in := range cur {
		if in.Label() != params[i] {
			in.SetLabel(params[i])
		}
	}
}

// ReconcileShape flips the block between expression and statement shape to
// match whether the bound member yields a value. Connections on the side
// being dropped are explicitly disconnected first; a flip never leaves a
// connection dangling against a removed slot.
func ReconcileShape(b workspace.Block, yields bool) {
	if yields {
		if b.OutputConnection() != nil {
			return
		}
		if p := b.PreviousConnection(); p != nil && p.IsConnected() {
			p.Disconnect()
		}
		if n := b.NextConnection(); n != nil && n.IsConnected() {
			n.Disconnect()
		}
		_ = b.SetPreviousNext(false)
		_ = b.SetOutput(true)
		return
	}
	if b.PreviousConnection() != nil {
		return
	}
	if o := b.OutputConnection(); o != nil && o.IsConnected() {
		o.Disconnect()
	}
	_ = b.SetOutput(false)
	_ = b.SetPreviousNext(true)
}
