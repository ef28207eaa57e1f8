// # internal/output/output_test.go
package output

import (
	"strings"
	"testing"

	"classforge/internal/data/store"
	"classforge/internal/engine/oop"
)

func sampleInventory() Inventory {
	classes := []store.ClassRow{
		{
			Name:        "Car",
			Colour:      210,
			Constructor: []string{"engine"},
			Attributes:  []string{"engine", "wheels"},
			Methods: []store.MethodRow{
				{Name: "drive", Parameters: []string{"speed"}},
				{Name: "horn", HasReturn: true},
			},
		},
		{Name: "Bus", Colour: 30},
	}
	sites := []store.SiteRow{
		{BlockID: "n1", BlockType: oop.TypeNewInstance, Class: "Car", Finalized: true},
		{BlockID: "n2", BlockType: oop.TypeNewInstance, Class: "Car", Finalized: true},
		{BlockID: "c1", BlockType: oop.TypeMemberCall, Class: "Car", Member: "drive", Kind: "method", Finalized: true},
		{BlockID: "g1", BlockType: oop.TypeInstanceGet, Class: "Car", Member: "engine", Kind: "attribute", Finalized: true},
		{BlockID: "u1", BlockType: oop.TypeMemberCall},
	}
	return NewInventory(classes, sites)
}

func TestMermaidGenerator(t *testing.T) {
	gen := NewMermaidGenerator(sampleInventory())
	mmd, err := gen.Generate()
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(mmd, "classDiagram") {
		t.Error("mermaid output missing classDiagram header")
	}
	if !strings.Contains(mmd, "class Car {") {
		t.Error("mermaid output missing Car class body")
	}
	if !strings.Contains(mmd, "+constructor(engine)") {
		t.Error("mermaid output missing constructor line")
	}
	if !strings.Contains(mmd, "+drive(speed)") {
		t.Error("mermaid output missing drive method")
	}
	if !strings.Contains(mmd, "+horn() value") {
		t.Error("mermaid output missing return marker on horn")
	}
	if !strings.Contains(mmd, `note for Car "2 new, 1 calls, 1 reads"`) {
		t.Errorf("mermaid output missing usage note:\n%s", mmd)
	}
	if strings.Index(mmd, "class Bus") > strings.Index(mmd, "class Car") {
		t.Error("Expected classes sorted by name")
	}
}

func TestMermaidGenerator_LabelsNonIdentifierNames(t *testing.T) {
	inv := NewInventory([]store.ClassRow{{Name: "My Car"}}, nil)
	mmd, err := NewMermaidGenerator(inv).Generate()
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(mmd, `class My_Car["My Car"]`) {
		t.Errorf("Expected sanitized id with display label, got:\n%s", mmd)
	}
}

func TestDOTGenerator(t *testing.T) {
	gen := NewDOTGenerator(sampleInventory())
	dot, err := gen.Generate()
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(dot, "digraph classes") {
		t.Error("DOT output missing digraph header")
	}
	if !strings.Contains(dot, `"Car" [label="Car\n(2 attrs, 2 methods)"`) {
		t.Errorf("DOT output missing Car node:\n%s", dot)
	}
	if !strings.Contains(dot, `label="new x2"`) {
		t.Error("DOT output missing instantiation edge count")
	}
	if !strings.Contains(dot, "(4 bound, 1 unbound)") {
		t.Error("DOT output missing site counts")
	}
}

func TestTSVGenerator(t *testing.T) {
	gen := NewTSVGenerator(sampleInventory())
	tsv, err := gen.Generate()
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if len(lines) != 8 {
		t.Errorf("Expected 8 lines in TSV, got %d", len(lines))
	}
	if lines[1] != "Bus\tclass\tBus\t\t\t30" {
		t.Errorf("Unexpected class row: %s", lines[1])
	}
	if !strings.Contains(tsv, "Car\tmethod\tdrive\tspeed\tfalse\t") {
		t.Errorf("TSV missing drive row:\n%s", tsv)
	}
}

func TestTSVGenerator_Sites(t *testing.T) {
	gen := NewTSVGenerator(sampleInventory())
	tsv, err := gen.GenerateSites()
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if len(lines) != 6 {
		t.Errorf("Expected 6 lines, got %d", len(lines))
	}
	// Unbound sites sort first on their empty class name.
	if lines[1] != "\t\t\tmember_call\tu1\tfalse" {
		t.Errorf("Unexpected first site row: %q", lines[1])
	}
	if lines[2] != "Car\tdrive\tmethod\tmember_call\tc1\ttrue" {
		t.Errorf("Unexpected site row: %q", lines[2])
	}
}

func TestNewInventory_DuplicateKeepsLast(t *testing.T) {
	inv := NewInventory([]store.ClassRow{
		{Name: "Car", Colour: 20},
		{Name: "Car", Colour: 230},
	}, nil)

	if len(inv.Classes) != 1 {
		t.Fatalf("Expected 1 class after dedupe, got %d", len(inv.Classes))
	}
	if inv.Classes[0].Colour != 230 {
		t.Errorf("Expected last occurrence to win, got hue %d", inv.Classes[0].Colour)
	}
}
