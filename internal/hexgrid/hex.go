// Package hexgrid implements the cube-coordinate hex lattice the skill grid
// lives on. Positions are (q, r, s) triples with q+r+s = 0.
package hexgrid

// Hex is one cell on the grid. Value type; compare with ==.
type Hex struct {
	Q int `json:"q" yaml:"q"`
	R int `json:"r" yaml:"r"`
	S int `json:"s" yaml:"s"`
}

// The six unit directions, clockwise from top.
var directions = [6]Hex{
	{0, -1, 1},  // top
	{1, -1, 0},  // top-right
	{1, 0, -1},  // bottom-right
	{0, 1, -1},  // bottom
	{-1, 1, 0},  // bottom-left
	{-1, 0, 1},  // top-left
}

// Directions returns the six unit direction vectors, clockwise from top.
func Directions() [6]Hex { return directions }

// Valid reports whether the cube-coordinate invariant q+r+s = 0 holds.
func (h Hex) Valid() bool { return h.Q+h.R+h.S == 0 }

// Add returns h + o componentwise.
func (h Hex) Add(o Hex) Hex { return Hex{h.Q + o.Q, h.R + o.R, h.S + o.S} }

// Sub returns h - o componentwise.
func (h Hex) Sub(o Hex) Hex { return Hex{h.Q - o.Q, h.R - o.R, h.S - o.S} }

// Ring is the distance from the origin: max(|q|, |r|, |s|).
func (h Hex) Ring() int {
	return max(abs(h.Q), max(abs(h.R), abs(h.S)))
}

// Distance is the hex distance between two cells.
func Distance(a, b Hex) int {
	d := a.Sub(b)
	return (abs(d.Q) + abs(d.R) + abs(d.S)) / 2
}

// Neighbors returns the six adjacent cells, clockwise from top.
func (h Hex) Neighbors() [6]Hex {
	var out [6]Hex
	for i, d := range directions {
		out[i] = h.Add(d)
	}
	return out
}

// Adjacent reports whether o is one of h's six neighbors.
func (h Hex) Adjacent(o Hex) bool { return Distance(h, o) == 1 }

// InBounds reports whether h is a valid cell within the given grid radius.
func InBounds(h Hex, radius int) bool {
	return h.Valid() && h.Ring() <= radius
}

// RotateAround rotates h about center by steps*60 degrees clockwise.
// Negative steps rotate counter-clockwise. Six steps is the identity.
func RotateAround(h, center Hex, steps int) Hex {
	v := h.Sub(center)
	n := ((steps % 6) + 6) % 6
	for i := 0; i < n; i++ {
		v = Hex{-v.S, -v.Q, -v.R}
	}
	return v.Add(center)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
