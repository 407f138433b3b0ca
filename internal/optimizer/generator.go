package optimizer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/schavery/qup-optimizer/internal/hexgrid"
	"github.com/schavery/qup-optimizer/internal/rules"
	"github.com/schavery/qup-optimizer/internal/sim"
)

// ErrExhausted means the generator could not place every movable node within
// the grid at the requested density after bounded retries.
var ErrExhausted = errors.New("search exhausted: cannot place all movable nodes")

// Strategy selects how candidate layouts are biased.
type Strategy string

const (
	// StrategyRing spreads movable nodes across per-role ring bands.
	StrategyRing Strategy = "ring"
	// StrategyAdjacency clusters cascade nodes on the anchor's neighbors.
	StrategyAdjacency Strategy = "adjacency"
)

// How many times a single candidate may be re-attempted after a dead-end
// placement before the generator gives up.
const placeRetries = 25

// cascadeEffects are the kinds that request further triggers when they fire.
var cascadeEffects = map[rules.EffectKind]bool{
	rules.EffectTriggerAdjacent:        true,
	rules.EffectTriggerMostAVS:         true,
	rules.EffectTriggerRandomAdjacent:  true,
	rules.EffectTriggerAdjacentTopAVS:  true,
	rules.EffectTriggerAdjacentPerLoss: true,
	rules.EffectAddBBAndTrigger:        true,
}

// Generator produces randomized, heuristically biased layouts that always
// satisfy the occupancy and bounds invariants.
type Generator struct {
	rules *rules.Ruleset
	rng   sim.RandomSource

	freeByRing map[int][]hexgrid.Hex
	anchorAdj  []hexgrid.Hex // free cells adjacent to the anchor node
}

// NewGenerator builds a generator over the ruleset's grid. The seed makes
// placement reproducible.
func NewGenerator(rs *rules.Ruleset, seed uint64) *Generator {
	g := &Generator{
		rules:      rs,
		rng:        sim.NewSeededRNG(seed),
		freeByRing: make(map[int][]hexgrid.Hex),
	}

	occupied := make(map[hexgrid.Hex]bool, len(rs.Static))
	for _, def := range rs.Static {
		occupied[def.Position] = true
	}
	for _, pos := range hexgrid.SpiralOrder(rs.GridRadius) {
		if !occupied[pos] {
			ring := pos.Ring()
			g.freeByRing[ring] = append(g.freeByRing[ring], pos)
		}
	}

	if anchor, ok := rs.Node(rs.Anchor); ok && anchor.Static {
		for _, pos := range anchor.Position.Neighbors() {
			if !occupied[pos] && hexgrid.InBounds(pos, rs.GridRadius) {
				g.anchorAdj = append(g.anchorAdj, pos)
			}
		}
	}
	return g
}

// Generate produces count valid layouts under the given strategy. It fails
// with ErrExhausted when the grid cannot host all movable nodes.
func (g *Generator) Generate(count int, strat Strategy) ([]sim.Layout, error) {
	out := make([]sim.Layout, 0, count)
	for i := 0; i < count; i++ {
		var layout sim.Layout
		for attempt := 0; attempt < placeRetries && layout == nil; attempt++ {
			switch strat {
			case StrategyAdjacency:
				layout = g.adjacencyCandidate()
			default:
				layout = g.ringCandidate()
			}
		}
		if layout == nil {
			return nil, fmt.Errorf("%w: %d movable nodes, radius %d", ErrExhausted, len(g.rules.Movable), g.rules.GridRadius)
		}
		out = append(out, layout)
	}
	return out, nil
}

// movableByPriority returns movable node names ordered by placement
// priority: payout-prevention first, then cascade nodes, multiplier nodes,
// the rest, and manual-only nodes last. Names sort within a class so the
// order is reproducible.
func (g *Generator) movableByPriority() []string {
	names := make([]string, 0, len(g.rules.Movable))
	for name := range g.rules.Movable {
		names = append(names, name)
	}
	sort.Strings(names)
	sort.SliceStable(names, func(i, j int) bool {
		return g.priority(names[i]) < g.priority(names[j])
	})
	return names
}

func (g *Generator) priority(name string) int {
	def := g.rules.Movable[name]
	switch {
	case def.Effect == rules.EffectQPerQdownPrevented:
		return 1
	case cascadeEffects[def.Effect]:
		return 2
	case def.Effect == rules.EffectMultiplyQmult || def.Effect == rules.EffectAddToQmult:
		return 3
	case def.TriggersOn(rules.TriggerManual) && len(def.Triggers) == 1:
		return 5
	default:
		return 4
	}
}

// ringBand is the preferred ring range for a node under the ring strategy.
func (g *Generator) ringBand(name string) (lo, hi int) {
	r := g.rules.GridRadius
	switch g.priority(name) {
	case 1:
		return min(5, r), r // payout node triggers last, far out
	case 2:
		return 2, min(5, r)
	case 3:
		return 2, min(5, r)
	case 4:
		return 1, min(5, r)
	default:
		return 1, min(6, r)
	}
}

// ringCandidate places nodes into their ring bands, falling back to any free
// cell when a band fills up. Returns nil when placement dead-ends.
func (g *Generator) ringCandidate() sim.Layout {
	layout := make(sim.Layout, len(g.rules.Movable))
	used := make(map[hexgrid.Hex]bool)

	for _, name := range g.movableByPriority() {
		lo, hi := g.ringBand(name)
		pos, ok := g.pickFree(used, lo, hi)
		if !ok {
			pos, ok = g.pickFree(used, 1, g.rules.GridRadius)
		}
		if !ok {
			return nil
		}
		layout[name] = pos
		used[pos] = true
	}
	return layout
}

// adjacencyCandidate builds the trigger cluster on the anchor's neighbors
// first, drops secondary payoff nodes in rings 2-4, and scatters the rest.
func (g *Generator) adjacencyCandidate() sim.Layout {
	layout := make(sim.Layout, len(g.rules.Movable))
	used := make(map[hexgrid.Hex]bool)

	slots := append([]hexgrid.Hex(nil), g.anchorAdj...)
	shuffle(g.rng, slots)

	var cluster, secondary, rest []string
	for _, name := range g.movableByPriority() {
		def := g.rules.Movable[name]
		switch {
		case cascadeEffects[def.Effect] || def.Effect == rules.EffectQPerQdownPrevented:
			cluster = append(cluster, name)
		case def.Effect == rules.EffectFlatQPerBB || def.Effect == rules.EffectTriggerMostAVS:
			secondary = append(secondary, name)
		default:
			rest = append(rest, name)
		}
	}

	for i, name := range cluster {
		if i < len(slots) {
			layout[name] = slots[i]
			used[slots[i]] = true
			continue
		}
		// Cluster overflow lands near the anchor instead.
		pos, ok := g.pickFree(used, 3, min(4, g.rules.GridRadius))
		if !ok {
			return nil
		}
		layout[name] = pos
		used[pos] = true
	}

	for _, name := range secondary {
		if _, placed := layout[name]; placed {
			continue
		}
		pos, ok := g.pickFree(used, 2, min(4, g.rules.GridRadius))
		if !ok {
			return nil
		}
		layout[name] = pos
		used[pos] = true
	}

	for _, name := range rest {
		pos, ok := g.pickFree(used, 1, g.rules.GridRadius)
		if !ok {
			return nil
		}
		layout[name] = pos
		used[pos] = true
	}

	if len(layout) != len(g.rules.Movable) {
		return nil
	}
	return layout
}

// pickFree chooses a random unoccupied cell within the ring band.
func (g *Generator) pickFree(used map[hexgrid.Hex]bool, lo, hi int) (hexgrid.Hex, bool) {
	var avail []hexgrid.Hex
	for ring := lo; ring <= hi; ring++ {
		for _, pos := range g.freeByRing[ring] {
			if !used[pos] {
				avail = append(avail, pos)
			}
		}
	}
	if len(avail) == 0 {
		return hexgrid.Hex{}, false
	}
	return avail[g.rng.IntN(len(avail))], true
}

func shuffle(rng sim.RandomSource, xs []hexgrid.Hex) {
	for i := len(xs) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}
