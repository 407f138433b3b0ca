package optimizer

import (
	"github.com/schavery/qup-optimizer/internal/hexgrid"
	"github.com/schavery/qup-optimizer/internal/rules"
	"github.com/schavery/qup-optimizer/internal/sim"
)

// AdjacencyScore rates how well a layout sets up cascade chains:
//   - +10 for each cascade node sitting on an anchor neighbor
//   - +5 for each pair of cascade nodes adjacent to each other
//   - up to +5 for the payout node's ring distance beyond the anchor's
//   - +2 for each cascade node adjacent to the global-targeting node
//
// The score ignores round outcomes entirely; it is a pure layout heuristic.
func (g *Generator) AdjacencyScore(layout sim.Layout) float64 {
	score := 0.0

	anchorNeighbors := make(map[hexgrid.Hex]bool)
	anchorRing := 0
	if anchor, ok := g.rules.Node(g.rules.Anchor); ok && anchor.Static {
		anchorRing = anchor.Position.Ring()
		for _, pos := range anchor.Position.Neighbors() {
			anchorNeighbors[pos] = true
		}
	}

	var cascadePos []hexgrid.Hex
	for name, pos := range layout {
		def := g.rules.Movable[name]
		if def == nil {
			continue
		}
		if cascadeEffects[def.Effect] {
			cascadePos = append(cascadePos, pos)
			if anchorNeighbors[pos] {
				score += 10
			}
		}
	}

	for i := 0; i < len(cascadePos); i++ {
		for j := i + 1; j < len(cascadePos); j++ {
			if cascadePos[i].Adjacent(cascadePos[j]) {
				score += 5
			}
		}
	}

	for name, pos := range layout {
		def := g.rules.Movable[name]
		if def == nil {
			continue
		}
		switch def.Effect {
		case rules.EffectQPerQdownPrevented:
			if d := pos.Ring() - anchorRing; d > 0 {
				score += float64(min(d, 5))
			}
		case rules.EffectTriggerMostAVS:
			for _, n := range pos.Neighbors() {
				for _, cp := range cascadePos {
					if cp == n {
						score += 2
					}
				}
			}
		}
	}
	return score
}
