package hexgrid

// Edge directions walked when traversing a ring, starting from the top
// corner of the ring. Order matters: it fixes the canonical spiral.
var ringWalk = [6]Hex{
	{1, 0, -1},  // SE
	{0, 1, -1},  // S
	{-1, 1, 0},  // SW
	{-1, 0, 1},  // NW
	{0, -1, 1},  // N
	{1, -1, 0},  // NE
}

// SpiralOrder enumerates every cell from the origin out to radius, ring by
// ring. Within a ring the walk starts at (0, -ring, ring) and steps along
// the six edge directions, ring cells each. This ordering is the trigger
// priority for the simulator, so it must stay stable.
func SpiralOrder(radius int) []Hex {
	out := make([]Hex, 0, 1+3*radius*(radius+1))
	out = append(out, Hex{0, 0, 0})

	for ring := 1; ring <= radius; ring++ {
		pos := Hex{0, -ring, ring}
		for _, dir := range ringWalk {
			for step := 0; step < ring; step++ {
				out = append(out, pos)
				pos = pos.Add(dir)
			}
		}
	}
	return out
}

// RingCells returns every cell at exactly the given ring distance, in
// spiral-walk order. Ring 0 is just the origin.
func RingCells(ring int) []Hex {
	if ring == 0 {
		return []Hex{{0, 0, 0}}
	}
	out := make([]Hex, 0, 6*ring)
	pos := Hex{0, -ring, ring}
	for _, dir := range ringWalk {
		for step := 0; step < ring; step++ {
			out = append(out, pos)
			pos = pos.Add(dir)
		}
	}
	return out
}
