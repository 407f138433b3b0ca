package optimizer

import (
	"sort"

	"github.com/schavery/qup-optimizer/internal/hexgrid"
	"github.com/schavery/qup-optimizer/internal/rules"
	"github.com/schavery/qup-optimizer/internal/sim"
)

// Stop the search after this many consecutive full scans with no accepted
// move.
const stallScans = 2

// randomSwapsPerScan bounds how many random swap probes a scan adds on top
// of the structured candidates.
const randomSwapsPerScan = 10

// Refiner improves a layout by strict hill climbing over swap and rotation
// moves. A move is accepted only when the evaluated result strictly beats
// the incumbent under Result.Better.
type Refiner struct {
	rules *rules.Ruleset
	eval  *Evaluator
	rng   sim.RandomSource
}

// RefineReport carries the search outcome alongside what it started from.
type RefineReport struct {
	Initial *Result `json:"initial"`
	Final   *Result `json:"final"`

	Iterations    int        `json:"iterations"`
	AcceptedMoves int        `json:"accepted_moves"`
	Cache         CacheStats `json:"cache"`
}

// Improved reports whether the search found anything better than its start.
func (r *RefineReport) Improved() bool {
	return r.Final.Better(r.Initial)
}

// NewRefiner builds a refiner sharing the evaluator's memo cache. The seed
// fixes the random-swap stream.
func NewRefiner(rs *rules.Ruleset, eval *Evaluator, seed uint64) *Refiner {
	return &Refiner{rules: rs, eval: eval, rng: sim.NewSeededRNG(seed)}
}

// Refine hill-climbs from the given layout for at most maxIter accepted
// moves, taking the first strictly improving candidate each scan. It stops
// early once consecutive scans stall.
func (r *Refiner) Refine(layout sim.Layout, upgrades sim.Upgrades, initialBonus, maxIter int) (*RefineReport, error) {
	if maxIter <= 0 {
		maxIter = 50
	}

	best, err := r.eval.Evaluate(layout, upgrades, initialBonus)
	if err != nil {
		return nil, err
	}
	report := &RefineReport{Initial: best, Final: best}
	current := layout

	stalled := 0
	for report.AcceptedMoves < maxIter && stalled < stallScans {
		report.Iterations++
		improved := false

		for _, cand := range r.candidates(current) {
			if !ValidLayout(r.rules, cand) {
				continue
			}
			res, err := r.eval.Evaluate(cand, upgrades, initialBonus)
			if err != nil {
				return nil, err
			}
			if res.Better(best) {
				best = res
				current = cand
				report.AcceptedMoves++
				improved = true
				break
			}
		}

		if improved {
			stalled = 0
		} else {
			stalled++
		}
	}

	report.Final = best
	report.Cache = r.eval.CacheStats()
	return report, nil
}

// candidates enumerates one scan's worth of neighbor layouts: structured
// swaps first, then cluster rotations, then bounded random swaps.
func (r *Refiner) candidates(layout sim.Layout) []sim.Layout {
	var out []sim.Layout
	out = append(out, r.payoutSwaps(layout)...)
	out = append(out, r.roleSwaps(layout)...)
	out = append(out, r.rotations(layout)...)
	out = append(out, r.randomSwaps(layout)...)
	return out
}

// payoutSwaps tries moving the payout-prevention node into the cascade
// cluster by swapping it with each node currently adjacent to the anchor.
func (r *Refiner) payoutSwaps(layout sim.Layout) []sim.Layout {
	payout := r.nodesByClass(layout, func(def *rules.NodeDef) bool {
		return def.Effect == rules.EffectQPerQdownPrevented
	})
	if len(payout) == 0 {
		return nil
	}

	anchorPos, ok := r.anchorPos()
	if !ok {
		return nil
	}

	var out []sim.Layout
	for _, p := range payout {
		for _, other := range sortedNames(layout) {
			if other == p {
				continue
			}
			if hexgrid.Distance(anchorPos, layout[other]) <= 1 {
				out = append(out, SwapNodes(layout, p, other))
			}
		}
	}
	return out
}

// roleSwaps exchanges cascade nodes with non-cascade nodes, and cascade
// nodes with each other, to shuffle who sits where in the cluster.
func (r *Refiner) roleSwaps(layout sim.Layout) []sim.Layout {
	cascade := r.nodesByClass(layout, func(def *rules.NodeDef) bool {
		return cascadeEffects[def.Effect]
	})
	flexible := r.nodesByClass(layout, func(def *rules.NodeDef) bool {
		return !cascadeEffects[def.Effect] && def.Effect != rules.EffectQPerQdownPrevented
	})

	var out []sim.Layout
	for _, c := range cascade {
		for _, f := range flexible {
			out = append(out, SwapNodes(layout, c, f))
		}
	}
	for i := 0; i < len(cascade); i++ {
		for j := i + 1; j < len(cascade); j++ {
			out = append(out, SwapNodes(layout, cascade[i], cascade[j]))
		}
	}
	return out
}

// rotations spins the anchor-adjacent cluster and the full cascade set one
// step each way around the anchor.
func (r *Refiner) rotations(layout sim.Layout) []sim.Layout {
	anchorPos, ok := r.anchorPos()
	if !ok {
		return nil
	}

	var out []sim.Layout
	adjacent := ClusterNodes(layout, anchorPos, 1)
	sort.Strings(adjacent)
	cascade := r.nodesByClass(layout, func(def *rules.NodeDef) bool {
		return cascadeEffects[def.Effect]
	})

	for _, names := range [][]string{adjacent, cascade} {
		if len(names) == 0 {
			continue
		}
		for _, cw := range []bool{true, false} {
			if rotated := RotateCluster(r.rules, layout, r.rules.Anchor, names, cw); rotated != nil {
				out = append(out, rotated)
			}
		}
	}
	return out
}

// randomSwaps adds a few uniform random exchanges so the scan is not
// limited to the structured neighborhood.
func (r *Refiner) randomSwaps(layout sim.Layout) []sim.Layout {
	names := sortedNames(layout)
	if len(names) < 2 {
		return nil
	}
	out := make([]sim.Layout, 0, randomSwapsPerScan)
	for k := 0; k < randomSwapsPerScan; k++ {
		i := r.rng.IntN(len(names))
		j := r.rng.IntN(len(names) - 1)
		if j >= i {
			j++
		}
		out = append(out, SwapNodes(layout, names[i], names[j]))
	}
	return out
}

func (r *Refiner) nodesByClass(layout sim.Layout, match func(*rules.NodeDef) bool) []string {
	var out []string
	for _, name := range sortedNames(layout) {
		if def := r.rules.Movable[name]; def != nil && match(def) {
			out = append(out, name)
		}
	}
	return out
}

func (r *Refiner) anchorPos() (hexgrid.Hex, bool) {
	def, ok := r.rules.Node(r.rules.Anchor)
	if !ok || !def.Static {
		return hexgrid.Hex{}, false
	}
	return def.Position, true
}
