// # internal/output/tsv.go
package output

import (
	"fmt"
	"strings"
)

type TSVGenerator struct {
	inv Inventory
}

func NewTSVGenerator(inv Inventory) *TSVGenerator {
	return &TSVGenerator{inv: inv}
}

// Generate renders one row per class member, with a leading class row so
// empty classes still show up. Classes are sorted by name, members keep
// declaration order.
func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Class\tKind\tName\tParameters\tReturns\tHue\n")
	for _, c := range sortedClasses(t.inv.Classes) {
		buf.WriteString(fmt.Sprintf("%s\tclass\t%s\t\t\t%d\n", c.Name, c.Name, c.Colour))
		if len(c.Constructor) > 0 {
			buf.WriteString(fmt.Sprintf("%s\tconstructor\tconstructor\t%s\t\t\n", c.Name, formatParams(c.Constructor)))
		}
		for _, attr := range c.Attributes {
			buf.WriteString(fmt.Sprintf("%s\tattribute\t%s\t\t\t\n", c.Name, attr))
		}
		for _, m := range c.Methods {
			buf.WriteString(fmt.Sprintf("%s\tmethod\t%s\t%s\t%t\t\n", c.Name, m.Name, formatParams(m.Parameters), m.HasReturn))
		}
	}

	return buf.String(), nil
}

// GenerateSites renders one row per reference site, sorted by class then
// block ID.
func (t *TSVGenerator) GenerateSites() (string, error) {
	var buf strings.Builder

	buf.WriteString("Class\tMember\tKind\tBlockType\tBlockID\tFinalized\n")
	for _, s := range sortedSites(t.inv.Sites) {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%t\n",
			s.Class, s.Member, s.Kind, s.BlockType, s.BlockID, s.Finalized))
	}

	return buf.String(), nil
}
