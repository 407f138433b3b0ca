package optimizer

import (
	"github.com/schavery/qup-optimizer/internal/hexgrid"
	"github.com/schavery/qup-optimizer/internal/rules"
	"github.com/schavery/qup-optimizer/internal/sim"
)

// Layout manipulation primitives used by the candidate generators and the
// local search. All of them copy; layouts are never mutated in place.

// SwapNodes exchanges the positions of two movable nodes.
func SwapNodes(layout sim.Layout, a, b string) sim.Layout {
	out := cloneLayout(layout)
	out[a], out[b] = layout[b], layout[a]
	return out
}

// MoveNode relocates one node.
func MoveNode(layout sim.Layout, name string, pos hexgrid.Hex) sim.Layout {
	out := cloneLayout(layout)
	out[name] = pos
	return out
}

// RotateCluster rotates the named nodes around a center node by one 60
// degree step (clockwise or counter-clockwise). The center may be movable
// or static. Returns nil if any rotated position lands on a static node or
// on a node outside the rotating set.
func RotateCluster(rs *rules.Ruleset, layout sim.Layout, center string, names []string, clockwise bool) sim.Layout {
	centerPos, ok := layout[center]
	if !ok {
		def, found := rs.Static[center]
		if !found {
			return nil
		}
		centerPos = def.Position
	}

	steps := 1
	if !clockwise {
		steps = -1
	}

	rotating := make(map[string]bool, len(names))
	for _, n := range names {
		if _, placed := layout[n]; placed {
			rotating[n] = true
		}
	}

	blocked := make(map[hexgrid.Hex]bool)
	for _, def := range rs.Static {
		blocked[def.Position] = true
	}
	for name, pos := range layout {
		if !rotating[name] {
			blocked[pos] = true
		}
	}

	out := cloneLayout(layout)
	for name := range rotating {
		np := hexgrid.RotateAround(layout[name], centerPos, steps)
		if blocked[np] || np.Ring() > rs.GridRadius {
			return nil
		}
		out[name] = np
	}
	return out
}

// ValidLayout reports whether the layout respects the occupancy and bounds
// invariants against the ruleset's static nodes.
func ValidLayout(rs *rules.Ruleset, layout sim.Layout) bool {
	seen := make(map[hexgrid.Hex]bool, len(layout))
	statics := make(map[hexgrid.Hex]bool, len(rs.Static))
	for _, def := range rs.Static {
		statics[def.Position] = true
	}
	for _, pos := range layout {
		if !pos.Valid() || pos.Ring() > rs.GridRadius {
			return false
		}
		if seen[pos] || statics[pos] {
			return false
		}
		seen[pos] = true
	}
	return true
}

// ClusterNodes lists nodes within the given hex radius of a center cell.
func ClusterNodes(layout sim.Layout, center hexgrid.Hex, radius int) []string {
	var out []string
	for name, pos := range layout {
		if hexgrid.Distance(center, pos) <= radius {
			out = append(out, name)
		}
	}
	return out
}

func cloneLayout(layout sim.Layout) sim.Layout {
	out := make(sim.Layout, len(layout))
	for k, v := range layout {
		out[k] = v
	}
	return out
}
