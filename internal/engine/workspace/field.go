// # internal/engine/workspace/field.go
package workspace

// Option is one dropdown entry. Label is what a renderer would show,
// Value is what the engine stores and compares.
type Option struct {
	Label string
	Value string
}

// Field is a named value slot on a block. Plain fields hold free text;
// dropdown fields additionally carry an options list rebuilt by the engine.
type Field struct {
	name    string
	value   string
	options []Option
}

func (f *Field) Name() string  { return f.name }
func (f *Field) Value() string { return f.value }

// Options returns the dropdown options, nil for plain fields.
func (f *Field) Options() []Option {
	return f.options
}

// SetOptions replaces the dropdown options. The selected value is left
// alone even when it no longer appears; clearing is a separate decision.
func (f *Field) SetOptions(opts []Option) {
	f.options = opts
}

// HasOption reports whether value appears in the current options.
func (f *Field) HasOption(value string) bool {
	for _, o := range f.options {
		if o.Value == value {
			return true
		}
	}
	return false
}
