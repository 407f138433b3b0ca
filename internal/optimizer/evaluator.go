// Package optimizer searches the placement and upgrade space for layouts
// that maximize worst-case currency across all round outcomes.
package optimizer

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/schavery/qup-optimizer/internal/rules"
	"github.com/schavery/qup-optimizer/internal/sim"
)

// Result is one layout's scorecard across all 20 round outcomes.
type Result struct {
	Layout   sim.Layout     `json:"layout"`
	Outcomes map[string]int `json:"outcomes"` // outcome token -> final Q

	MinQ          int     `json:"min_q"`
	MaxQ          int     `json:"max_q"`
	AvgQ          float64 `json:"avg_q"`
	Positive      int     `json:"positive_outcomes"`
	TotalOutcomes int     `json:"total_outcomes"`

	TotalTriggers    int     `json:"total_triggers"`
	DepletedTriggers int     `json:"depleted_triggers"`
	Efficiency       float64 `json:"efficiency"`

	AdjacencyScore     float64 `json:"adjacency_score"`
	MaxTriggersPerFlip int     `json:"max_triggers_per_flip"`
}

// Better reports whether r beats other under the search objective: highest
// worst-case Q first, ties broken by efficiency, then adjacency, then
// average Q.
func (r *Result) Better(other *Result) bool {
	if r.MinQ != other.MinQ {
		return r.MinQ > other.MinQ
	}
	if diff := r.Efficiency - other.Efficiency; diff > 1e-3 || diff < -1e-3 {
		return r.Efficiency > other.Efficiency
	}
	if diff := r.AdjacencyScore - other.AdjacencyScore; diff > 1e-3 || diff < -1e-3 {
		return r.AdjacencyScore > other.AdjacencyScore
	}
	return r.AvgQ > other.AvgQ
}

// CacheStats reports evaluation-cache observability counters.
type CacheStats struct {
	Hits    uint64 `json:"hits"`
	Lookups uint64 `json:"lookups"`
}

// Evaluator scores layouts by simulating every round outcome. Results are
// memoized by the full serialized configuration, so repeated probes of the
// same candidate during local search cost one map lookup.
type Evaluator struct {
	rules     *rules.Ruleset
	rank      int
	tier      rules.RankRewards
	seed      uint64
	budget    int // max upgrade points; 0 disables the check
	teammates int
	scorer    AdjacencyScorer

	mu      sync.RWMutex
	cache   map[string]*Result
	hits    uint64
	lookups uint64
}

// AdjacencyScorer rates a layout's cascade-cluster quality, independent of
// any outcome.
type AdjacencyScorer interface {
	AdjacencyScore(layout sim.Layout) float64
}

// EvalOption tweaks evaluator construction.
type EvalOption func(*Evaluator)

// WithBudget enforces an upgrade point budget during validation.
func WithBudget(points int) EvalOption {
	return func(e *Evaluator) { e.budget = points }
}

// WithTeammates sets the constant teammate count per-teammate effects read.
func WithTeammates(n int) EvalOption {
	return func(e *Evaluator) { e.teammates = n }
}

// WithAdjacencyScorer attaches a layout-quality scorer to results.
func WithAdjacencyScorer(s AdjacencyScorer) EvalOption {
	return func(e *Evaluator) { e.scorer = s }
}

// NewEvaluator builds an evaluator for one rank. The seed fixes the RNG
// streams the per-outcome simulations use, making results reproducible and
// cacheable.
func NewEvaluator(rs *rules.Ruleset, rank int, seed uint64, opts ...EvalOption) *Evaluator {
	e := &Evaluator{
		rules: rs,
		rank:  rank,
		tier:  rules.RankFor(rank),
		seed:  seed,
		cache: make(map[string]*Result),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate scores one (layout, upgrades, starting bonus) configuration.
// Invalid configurations are rejected before any simulation runs.
func (e *Evaluator) Evaluate(layout sim.Layout, upgrades sim.Upgrades, initialBonus int) (*Result, error) {
	if err := e.check(layout, upgrades); err != nil {
		return nil, err
	}

	key := fingerprint(layout, upgrades, e.rank, initialBonus)

	e.mu.RLock()
	cached := e.cache[key]
	e.mu.RUnlock()
	e.mu.Lock()
	e.lookups++
	if cached != nil {
		e.hits++
	}
	e.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	// Compute outside the lock; a concurrent miss on the same key just
	// redoes the work and the second insert wins harmlessly.
	res, err := e.simulate(layout, upgrades, initialBonus)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[key] = res
	e.mu.Unlock()
	return res, nil
}

func (e *Evaluator) simulate(layout sim.Layout, upgrades sim.Upgrades, initialBonus int) (*Result, error) {
	s, err := sim.NewSimulator(e.rules, layout, upgrades, e.tier)
	if err != nil {
		return nil, err
	}
	s.Teammates = e.teammates

	res := &Result{
		Layout:   layout,
		Outcomes: make(map[string]int, len(sim.Outcomes())),
	}

	for i, outcome := range sim.Outcomes() {
		rng := sim.NewSeededRNG(e.seed + uint64(i)*0x9e3779b9)
		gs, err := s.Run(outcome, initialBonus, rng)
		if err != nil {
			return nil, err
		}

		q := gs.QCurrency
		res.Outcomes[outcome] = q
		if res.TotalOutcomes == 0 || q < res.MinQ {
			res.MinQ = q
		}
		if res.TotalOutcomes == 0 || q > res.MaxQ {
			res.MaxQ = q
		}
		res.AvgQ += float64(q)
		if q >= 0 {
			res.Positive++
		}
		res.TotalOutcomes++

		res.TotalTriggers += gs.TotalTriggers
		res.DepletedTriggers += gs.DepletedTriggers
		if perFlip := gs.TotalTriggers / len(outcome); perFlip > res.MaxTriggersPerFlip {
			res.MaxTriggersPerFlip = perFlip
		}
	}

	res.AvgQ /= float64(res.TotalOutcomes)
	attempts := res.TotalTriggers + res.DepletedTriggers
	if attempts == 0 {
		res.Efficiency = 1
	} else {
		res.Efficiency = float64(res.TotalTriggers) / float64(attempts)
	}
	if e.scorer != nil {
		res.AdjacencyScore = e.scorer.AdjacencyScore(layout)
	}
	return res, nil
}

// check validates the placement and upgrade invariants up front so a bad
// configuration is never partially simulated.
func (e *Evaluator) check(layout sim.Layout, upgrades sim.Upgrades) error {
	occupied := e.rules.StaticPositions()
	for _, name := range sortedNames(layout) {
		pos := layout[name]
		if _, ok := e.rules.Movable[name]; !ok {
			return fmt.Errorf("%w: unknown movable node %q", rules.ErrConfig, name)
		}
		if !pos.Valid() {
			return fmt.Errorf("%w: %s position %v violates q+r+s=0", rules.ErrConfig, name, pos)
		}
		if pos.Ring() > e.rules.GridRadius {
			return fmt.Errorf("%w: %s at %v outside grid radius %d", rules.ErrConfig, name, pos, e.rules.GridRadius)
		}
		if other, taken := occupied[pos]; taken {
			return fmt.Errorf("%w: %s collides with %s at %v", rules.ErrConfig, name, other, pos)
		}
		occupied[pos] = name
	}

	spent := 0
	for name, levels := range upgrades {
		def, ok := e.rules.Node(name)
		if !ok {
			return fmt.Errorf("%w: upgrades reference unknown node %q", rules.ErrConfig, name)
		}
		if len(levels) > len(def.UpgradePaths) {
			return fmt.Errorf("%w: %s has %d upgrade paths, got %d levels", rules.ErrConfig, name, len(def.UpgradePaths), len(levels))
		}
		for pi, l := range levels {
			if l < 0 || l > len(def.UpgradePaths[pi]) {
				return fmt.Errorf("%w: %s path %d level %d out of range", rules.ErrConfig, name, pi, l)
			}
			spent += l
		}
	}
	if e.budget > 0 && spent > e.budget {
		return fmt.Errorf("%w: %d upgrade points spent, budget is %d", rules.ErrConfig, spent, e.budget)
	}
	return nil
}

// CacheStats returns hit/lookup counters for the evaluation cache.
func (e *Evaluator) CacheStats() CacheStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return CacheStats{Hits: e.hits, Lookups: e.lookups}
}

// fingerprint is the cache key: the full canonical serialization of the
// configuration, so distinct configurations can never collide.
func fingerprint(layout sim.Layout, upgrades sim.Upgrades, rank, initialBonus int) string {
	var b strings.Builder
	for _, name := range sortedNames(layout) {
		pos := layout[name]
		fmt.Fprintf(&b, "%s@%d,%d,%d;", name, pos.Q, pos.R, pos.S)
	}
	b.WriteByte('|')
	upNames := make([]string, 0, len(upgrades))
	for name := range upgrades {
		upNames = append(upNames, name)
	}
	sort.Strings(upNames)
	for _, name := range upNames {
		fmt.Fprintf(&b, "%s=%v;", name, upgrades[name])
	}
	fmt.Fprintf(&b, "|rank=%d;bonus=%d", rank, initialBonus)
	return b.String()
}

func sortedNames(layout sim.Layout) []string {
	out := make([]string, 0, len(layout))
	for name := range layout {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
