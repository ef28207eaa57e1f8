// # internal/engine/oop/oop.go

// Package oop registers the class-system block set: class and method
// definitions, constructors, instantiation and member access. These blocks
// carry the capability interfaces the name registry, dependency index and
// change propagator operate on.
package oop

import (
	"strings"

	"classforge/internal/engine/workspace"
)

const (
	TypeClassDef       = "class_def"
	TypeMethodDef      = "method_def"
	TypeConstructorDef = "constructor_def"
	TypeNewInstance    = "new_instance"
	TypeInstanceGet    = "instance_get"
	TypeMemberCall     = "member_call"
)

// Register adds every oop block type to the registry.
func Register(r *workspace.Registry) {
	r.Register(TypeClassDef, newClassBlock)
	r.Register(TypeMethodDef, newMethodBlock)
	r.Register(TypeConstructorDef, newConstructorBlock)
	r.Register(TypeNewInstance, newNewInstanceBlock)
	r.Register(TypeInstanceGet, newInstanceGetBlock)
	r.Register(TypeMemberCall, newMemberCallBlock)
}

// NewRegistry builds a registry holding exactly the oop block set.
func NewRegistry() *workspace.Registry {
	r := workspace.NewRegistry()
	Register(r)
	return r
}

// countPrefixed counts a block's numbered slot fields after a raw field
// load, when the internal counters still read zero.
func countPrefixed(fieldNames []string, prefix string) int {
	n := 0
	for _, name := range fieldNames {
		if strings.HasPrefix(name, prefix) {
			n++
		}
	}
	return n
}
