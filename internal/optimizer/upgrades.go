package optimizer

import (
	"sort"

	"github.com/schavery/qup-optimizer/internal/rules"
	"github.com/schavery/qup-optimizer/internal/sim"
)

// UpgradeGenerator produces upgrade-point allocations under a budget, either
// exhaustively or via a priority heuristic.
type UpgradeGenerator struct {
	rules *rules.Ruleset
	nodes []string // upgradable static nodes, sorted
}

// NewUpgradeGenerator indexes the static nodes that have upgrade paths.
func NewUpgradeGenerator(rs *rules.Ruleset) *UpgradeGenerator {
	u := &UpgradeGenerator{rules: rs}
	for name, def := range rs.Static {
		if len(def.UpgradePaths) > 0 {
			u.nodes = append(u.nodes, name)
		}
	}
	sort.Strings(u.nodes)
	return u
}

// EnumerateOptions tune exhaustive enumeration.
type EnumerateOptions struct {
	// MinAnchorAVS requires the anchor node's effective AVS cap to be at
	// least this much; 0 disables the constraint.
	MinAnchorAVS int
	// SkipNoops drops levels whose topmost selected step changes nothing.
	SkipNoops bool
}

// EnumerateAll returns every allocation with total points <= budget. The
// walk is over a finite simplex of per-path levels, so it always
// terminates; with many upgradable paths the count grows fast, which is the
// caller's problem to bound via the budget.
func (u *UpgradeGenerator) EnumerateAll(budget int, opts EnumerateOptions) []sim.Upgrades {
	var out []sim.Upgrades
	partial := make(sim.Upgrades)
	u.enumerate(u.nodes, budget, partial, &out, opts)
	return out
}

func (u *UpgradeGenerator) enumerate(remaining []string, budget int, partial sim.Upgrades, out *[]sim.Upgrades, opts EnumerateOptions) {
	if len(remaining) == 0 {
		cfg := make(sim.Upgrades, len(partial))
		for k, v := range partial {
			cfg[k] = append([]int(nil), v...)
		}
		*out = append(*out, cfg)
		return
	}

	name := remaining[0]
	def := u.rules.Static[name]
	minLevels := u.minLevels(name, opts)

	var walk func(pathIdx, spent int, levels []int)
	walk = func(pathIdx, spent int, levels []int) {
		if pathIdx == len(def.UpgradePaths) {
			partial[name] = append([]int(nil), levels...)
			u.enumerate(remaining[1:], budget-spent, partial, out, opts)
			delete(partial, name)
			return
		}
		path := def.UpgradePaths[pathIdx]
		lo := 0
		if pathIdx < len(minLevels) {
			lo = minLevels[pathIdx]
		}
		for l := lo; l <= len(path); l++ {
			if spent+l > budget {
				break
			}
			if opts.SkipNoops && l > 0 && path[l-1].Noop {
				continue
			}
			walk(pathIdx+1, spent+l, append(levels, l))
		}
	}
	walk(0, 0, nil)
}

// minLevels translates a minimum-anchor-AVS constraint into a floor on the
// anchor's AVS path levels.
func (u *UpgradeGenerator) minLevels(name string, opts EnumerateOptions) []int {
	if opts.MinAnchorAVS <= 0 || name != u.rules.Anchor {
		return nil
	}
	def := u.rules.Static[name]
	if def == nil || def.BaseAVS == nil {
		return nil
	}
	out := make([]int, len(def.UpgradePaths))
	for pi, path := range def.UpgradePaths {
		avs := *def.BaseAVS
		for si, step := range path {
			if avs >= opts.MinAnchorAVS {
				out[pi] = si
				break
			}
			if step.AVSIncrease != nil {
				avs += *step.AVSIncrease
			}
			out[pi] = si + 1
		}
		if avs < opts.MinAnchorAVS {
			out[pi] = len(path)
		}
		// Only the first path carrying AVS steps needs the floor.
		if pathHasAVS(path) {
			break
		}
		out[pi] = 0
	}
	return out
}

// Tiered composes allocations from a small set of per-node level vectors,
// spending the anchor first, then loss-mitigation nodes, then the rest, and
// keeps only configs that land exactly on the budget. Returns at most limit
// configs.
func (u *UpgradeGenerator) Tiered(budget, limit int) []sim.Upgrades {
	if limit <= 0 {
		limit = 100
	}
	order := append([]string(nil), u.nodes...)
	sort.SliceStable(order, func(i, j int) bool {
		return u.tierClass(order[i]) < u.tierClass(order[j])
	})

	candidates := make([][][]int, len(order))
	for i, name := range order {
		candidates[i] = u.nodeCandidates(u.rules.Static[name])
	}

	var out []sim.Upgrades
	partial := make(sim.Upgrades)

	var compose func(idx, spent int)
	compose = func(idx, spent int) {
		if len(out) >= limit {
			return
		}
		if idx == len(order) {
			if spent == budget {
				cfg := make(sim.Upgrades, len(partial))
				for k, v := range partial {
					cfg[k] = append([]int(nil), v...)
				}
				out = append(out, cfg)
			}
			return
		}
		for _, levels := range candidates[idx] {
			cost := sumInts(levels)
			if spent+cost > budget {
				continue
			}
			partial[order[idx]] = levels
			compose(idx+1, spent+cost)
			delete(partial, order[idx])
			if len(out) >= limit {
				return
			}
		}
	}
	compose(0, 0)
	return out
}

func (u *UpgradeGenerator) tierClass(name string) int {
	def := u.rules.Static[name]
	switch {
	case name == u.rules.Anchor:
		return 0
	case def.Effect == rules.EffectReduceQdown || def.Effect == rules.EffectReduceQdownPerLoss:
		return 1
	case def.Effect == rules.EffectReduceQdownPercent:
		return 2
	default:
		return 3
	}
}

// nodeCandidates lists a handful of level vectors per node, heaviest first:
// all paths maxed, each single path maxed, a balanced split, and zero.
func (u *UpgradeGenerator) nodeCandidates(def *rules.NodeDef) [][]int {
	n := len(def.UpgradePaths)
	full := make([]int, n)
	for i, p := range def.UpgradePaths {
		full[i] = len(p)
	}

	var cands [][]int
	add := func(v []int) {
		for _, c := range cands {
			if equalInts(c, v) {
				return
			}
		}
		cands = append(cands, v)
	}

	add(full)
	for i := range def.UpgradePaths {
		solo := make([]int, n)
		solo[i] = len(def.UpgradePaths[i])
		add(solo)
	}
	half := make([]int, n)
	for i, p := range def.UpgradePaths {
		half[i] = len(p) / 2
	}
	add(half)
	add(make([]int, n))

	sort.SliceStable(cands, func(i, j int) bool {
		return sumInts(cands[i]) > sumInts(cands[j])
	})
	return cands
}

func pathHasAVS(path []rules.UpgradeStep) bool {
	for _, s := range path {
		if s.AVSIncrease != nil {
			return true
		}
	}
	return false
}

func sumInts(xs []int) int {
	t := 0
	for _, x := range xs {
		t += x
	}
	return t
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
