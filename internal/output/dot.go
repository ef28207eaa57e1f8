// # internal/output/dot.go
package output

import (
	"fmt"
	"strings"
)

type DOTGenerator struct {
	inv Inventory
}

func NewDOTGenerator(inv Inventory) *DOTGenerator {
	return &DOTGenerator{inv: inv}
}

// Generate renders a Graphviz digraph. Class nodes keep the hue their
// definition block was assigned, usage edges fan out from a single
// workspace node with per-kind counts.
func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph classes {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.5;\n")
	buf.WriteString("  splines=polyline;\n\n")

	classes := sortedClasses(d.inv.Classes)
	usage := usageByClass(d.inv.Sites)

	buf.WriteString("  subgraph cluster_classes {\n")
	buf.WriteString("    label=\"Class Definitions\";\n")
	buf.WriteString("    style=filled;\n")
	buf.WriteString("    color=\"whitesmoke\";\n")
	for _, c := range classes {
		label := fmt.Sprintf("%s\\n(%d attrs, %d methods)", c.Name, len(c.Attributes), len(c.Methods))
		buf.WriteString(fmt.Sprintf("    %s [label=\"%s\", fillcolor=\"%s\", color=\"darkslategrey\"];\n",
			quoteDOT(c.Name), escapeDOTLabel(label), hsvColour(c.Colour)))
	}
	buf.WriteString("  }\n\n")

	bound := 0
	for _, u := range usage {
		bound += u.Total()
	}
	unbound := unboundSites(d.inv.Sites)
	siteLabel := fmt.Sprintf("Reference Sites\\n(%d bound)", bound)
	if unbound > 0 {
		siteLabel = fmt.Sprintf("Reference Sites\\n(%d bound, %d unbound)", bound, unbound)
	}
	buf.WriteString(fmt.Sprintf("  %s [label=\"%s\", fillcolor=\"gainsboro\", color=\"grey\"];\n\n", quoteDOT(workspaceNodeID), siteLabel))

	for _, c := range classes {
		u := usage[c.Name]
		if u.Instantiations > 0 {
			buf.WriteString(fmt.Sprintf("  %s -> %s [color=\"forestgreen\", penwidth=1.8, label=\"new x%d\"];\n",
				quoteDOT(workspaceNodeID), quoteDOT(c.Name), u.Instantiations))
		}
		if u.MethodCalls > 0 {
			buf.WriteString(fmt.Sprintf("  %s -> %s [color=\"steelblue\", label=\"call x%d\"];\n",
				quoteDOT(workspaceNodeID), quoteDOT(c.Name), u.MethodCalls))
		}
		if u.AttributeReads > 0 {
			buf.WriteString(fmt.Sprintf("  %s -> %s [color=\"grey\", style=dashed, label=\"read x%d\"];\n",
				quoteDOT(workspaceNodeID), quoteDOT(c.Name), u.AttributeReads))
		}
	}

	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"Legend\";\n")
	buf.WriteString("    style=dashed;\n")
	buf.WriteString("    legend_class [label=\"Class Definition\", fillcolor=\"white\"];\n")
	buf.WriteString("    legend_sites [label=\"Reference Sites\", fillcolor=\"gainsboro\"];\n")
	buf.WriteString("    legend_new [label=\"Instantiation\", shape=plaintext, fontcolor=\"forestgreen\", style=\"\"];\n")
	buf.WriteString("    legend_call [label=\"Method Call\", shape=plaintext, fontcolor=\"steelblue\", style=\"\"];\n")
	buf.WriteString("    legend_read [label=\"Attribute Read\", shape=plaintext, fontcolor=\"grey\", style=\"\"];\n")
	buf.WriteString("  }\n")

	buf.WriteString("}\n")

	return buf.String(), nil
}

// workspaceNodeID names the aggregate node reference sites fan out from.
const workspaceNodeID = "workspace sites"

// hsvColour renders a class hue as a Graphviz HSV triple. Saturation
// stays light so node text remains readable.
func hsvColour(hue int) string {
	h := ((hue % 360) + 360) % 360
	return fmt.Sprintf("%.3f 0.180 1.000", float64(h)/360)
}

func quoteDOT(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `\"`) + `"`
}

func escapeDOTLabel(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
