// # internal/engine/workspace/colour.go
package workspace

const (
	colourStart = 20
	colourStep  = 65
)

// ColourAllocator hands out a hue for each new class definition. The hue
// is assigned once at class creation and never changes for the lifetime of
// the class, so renames keep their visual identity.
type ColourAllocator struct {
	count int
}

func NewColourAllocator() *ColourAllocator {
	return &ColourAllocator{}
}

// Next returns the next hue in degrees on the colour wheel.
func (a *ColourAllocator) Next() int {
	hue := (colourStart + a.count*colourStep) % 360
	a.count++
	return hue
}

// Seed fast-forwards the allocator, used when reloading a workspace whose
// classes already consumed part of the sequence.
func (a *ColourAllocator) Seed(count int) {
	if count > a.count {
		a.count = count
	}
}
