// # internal/output/mermaid.go
package output

import (
	"fmt"
	"strings"
	"unicode"
)

type MermaidGenerator struct {
	inv Inventory
}

func NewMermaidGenerator(inv Inventory) *MermaidGenerator {
	return &MermaidGenerator{inv: inv}
}

// Generate renders a mermaid classDiagram. Classes come out sorted by
// name with members in declaration order; a class whose name is not a
// valid mermaid identifier keeps its display name through the label form.
// Constructors render only when they declare parameters, and classes with
// bound reference sites get a usage note.
func (m *MermaidGenerator) Generate() (string, error) {
	var b strings.Builder
	b.WriteString("classDiagram\n")
	b.WriteString("  direction LR\n")

	classes := sortedClasses(m.inv.Classes)
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.Name)
	}
	ids := makeMermaidIDs(names)
	usage := usageByClass(m.inv.Sites)

	for _, c := range classes {
		id := ids[c.Name]
		if id == c.Name {
			b.WriteString(fmt.Sprintf("  class %s {\n", id))
		} else {
			b.WriteString(fmt.Sprintf("  class %s[\"%s\"] {\n", id, escapeMermaidLabel(c.Name)))
		}
		for _, attr := range c.Attributes {
			b.WriteString(fmt.Sprintf("    +%s\n", attr))
		}
		if len(c.Constructor) > 0 {
			b.WriteString(fmt.Sprintf("    +constructor(%s)\n", formatParams(c.Constructor)))
		}
		for _, meth := range c.Methods {
			line := fmt.Sprintf("    +%s(%s)", meth.Name, formatParams(meth.Parameters))
			if meth.HasReturn {
				line += " value"
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("  }\n")
	}

	// Notes come after the class bodies, mermaid attaches them by name.
	for _, c := range classes {
		u := usage[c.Name]
		if u.Total() == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  note for %s %q\n", ids[c.Name], usageNote(u)))
	}

	return b.String(), nil
}

func usageNote(u Usage) string {
	var parts []string
	if u.Instantiations > 0 {
		parts = append(parts, fmt.Sprintf("%d new", u.Instantiations))
	}
	if u.MethodCalls > 0 {
		parts = append(parts, fmt.Sprintf("%d calls", u.MethodCalls))
	}
	if u.AttributeReads > 0 {
		parts = append(parts, fmt.Sprintf("%d reads", u.AttributeReads))
	}
	return strings.Join(parts, ", ")
}

func sanitizeMermaidID(name string) string {
	if name == "" {
		return "c"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	first := rune(out[0])
	if unicode.IsDigit(first) {
		return "c_" + out
	}
	return out
}

func makeMermaidIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeMermaidID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
