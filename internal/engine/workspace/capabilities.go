// # internal/engine/workspace/capabilities.go
package workspace

// Capability interfaces. Engine passes discover what a block can do by
// asserting against these, so a block participates in exactly the
// cascades it implements and nothing inspects type names.

// ClassDefiner is a block that defines a class.
type ClassDefiner interface {
	Block
	ClassName() string
	SetClassName(name string)
	Definition() ClassDefinition
}

// MethodDefiner is a block that defines a method.
type MethodDefiner interface {
	Block
	MethodName() string
	SetMethodName(name string)
	MethodDefinition() MethodDefinition
}

// AttributeProvider exposes a class's attribute names in declaration order.
type AttributeProvider interface {
	Attributes() []string
}

// ConstructorProvider exposes a class's constructor signature, if any.
type ConstructorProvider interface {
	Constructor() (ConstructorSignature, bool)
}

// ClassReferer is a block bound to a class by name. Variable-backed sites
// report the type of their variable.
type ClassReferer interface {
	Block
	ReferencedClass() string
}

// ClassRenamer reacts to a class rename. Implementations swap their own
// recorded name when it matches old; they never resolve names themselves.
type ClassRenamer interface {
	RenameClass(old, new string)
}

// MethodRenamer reacts to a method rename.
type MethodRenamer interface {
	RenameMethod(old, new string)
}

// OldNameRecorder is told the pre-rename name before a rename cascade
// touches any block, so dropdown translation can map the stale selection
// to the new one.
type OldNameRecorder interface {
	SetOldName(name string)
}

// Updatable receives targeted refresh notifications. A signature-only
// change arrives as Update(name, name); a rename as Update(old, new).
// This replaces re-scanning every block on every workspace event.
type Updatable interface {
	Update(old, new string)
}

// ExtraStater is implemented by blocks carrying state that lives outside
// fields and connections, such as a class colour or a member binding.
// ApplyExtraState runs after a loader has restored fields and may receive
// a nil map; implementations rebuild derived state either way.
type ExtraStater interface {
	ExtraState() map[string]string
	ApplyExtraState(extra map[string]string)
}
