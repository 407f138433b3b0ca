package hexgrid

import "testing"

func TestSpiralOrderStart(t *testing.T) {
	got := SpiralOrder(2)
	want := []Hex{
		{0, 0, 0},
		// Ring 1, clockwise from the top cell.
		{0, -1, 1}, {1, -1, 0}, {1, 0, -1}, {0, 1, -1}, {-1, 1, 0}, {-1, 0, 1},
	}
	if len(got) != 19 {
		t.Fatalf("radius 2 spiral should have 19 cells, got %d", len(got))
	}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("spiral[%d]=%v, want %v", i, got[i], w)
		}
	}
}

func TestSpiralOrderCoversGrid(t *testing.T) {
	const radius = 4
	got := SpiralOrder(radius)
	seen := make(map[Hex]bool, len(got))
	prevRing := 0
	for _, h := range got {
		if !h.Valid() {
			t.Fatalf("invalid cell %v in spiral", h)
		}
		if seen[h] {
			t.Fatalf("duplicate cell %v in spiral", h)
		}
		seen[h] = true
		if r := h.Ring(); r < prevRing {
			t.Fatalf("ring decreased at %v: %d after %d", h, r, prevRing)
		} else {
			prevRing = r
		}
	}
	// 1 + 6 + 12 + 18 + 24
	if len(got) != 61 {
		t.Fatalf("radius %d spiral should have 61 cells, got %d", radius, len(got))
	}
}

func TestNeighborsClockwiseFromTop(t *testing.T) {
	n := (Hex{}).Neighbors()
	want := [6]Hex{
		{0, -1, 1}, {1, -1, 0}, {1, 0, -1}, {0, 1, -1}, {-1, 1, 0}, {-1, 0, 1},
	}
	if n != want {
		t.Fatalf("neighbors=%v, want %v", n, want)
	}
	for _, h := range n {
		if !(Hex{}).Adjacent(h) {
			t.Fatalf("%v should be adjacent to origin", h)
		}
	}
}

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b Hex
		want int
	}{
		{Hex{}, Hex{}, 0},
		{Hex{}, Hex{1, -1, 0}, 1},
		{Hex{}, Hex{3, -2, -1}, 3},
		{Hex{-3, 2, 1}, Hex{-3, 2, 1}, 0},
		{Hex{-3, 2, 1}, Hex{1, -1, 0}, 4},
	}
	for _, c := range cases {
		if got := Distance(c.a, c.b); got != c.want {
			t.Fatalf("Distance(%v,%v)=%d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestRotateAround(t *testing.T) {
	center := Hex{-3, 2, 1}
	start := Hex{-3, 1, 2} // directly above the center

	h := start
	for i := 0; i < 6; i++ {
		h = RotateAround(h, center, 1)
		if !h.Valid() {
			t.Fatalf("rotation step %d produced invalid %v", i, h)
		}
		if Distance(center, h) != 1 {
			t.Fatalf("rotation step %d left the ring: %v", i, h)
		}
	}
	if h != start {
		t.Fatalf("six rotations should return to start; got %v", h)
	}

	// One step clockwise then one counter-clockwise cancels.
	if back := RotateAround(RotateAround(start, center, 1), center, -1); back != start {
		t.Fatalf("cw then ccw should cancel; got %v", back)
	}
}

func TestInBounds(t *testing.T) {
	if !InBounds(Hex{4, -4, 0}, 4) {
		t.Fatalf("ring-4 cell should be in a radius-4 grid")
	}
	if InBounds(Hex{5, -5, 0}, 4) {
		t.Fatalf("ring-5 cell should be outside a radius-4 grid")
	}
}
