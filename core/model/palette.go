package model

// Palette is an ordered list of display colors (hex or ANSI 256 codes).
type Palette []string

// DefaultPalette mirrors the classic green, blue, yellow, magenta, cyan, red
// terminal sequence.
var DefaultPalette = Palette{"#22C55E", "#3B82F6", "#EAB308", "#D946EF", "#06B6D4", "#EF4444"}

// ColorAllocator hands out palette colors round-robin.
type ColorAllocator struct {
	palette Palette
	next    int
}

// NewColorAllocator returns an allocator over p, or DefaultPalette when p is empty.
func NewColorAllocator(p Palette) *ColorAllocator {
	if len(p) == 0 {
		p = DefaultPalette
	}
	return &ColorAllocator{palette: p}
}

// Next returns the next color, wrapping around at the end of the palette.
func (a *ColorAllocator) Next() string {
	c := a.palette[a.next%len(a.palette)]
	a.next++
	return c
}
