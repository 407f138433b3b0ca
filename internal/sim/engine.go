package sim

import (
	"fmt"
	"sort"

	"github.com/schavery/qup-optimizer/internal/hexgrid"
	"github.com/schavery/qup-optimizer/internal/rules"
)

// Simulator resolves round outcomes for one fixed configuration of nodes.
// It holds no per-round state of its own beyond the instances' per-flip
// counters, which are reset at every flip, so it can be reused across
// outcomes.
type Simulator struct {
	rules  *rules.Ruleset
	tier   rules.RankRewards
	nodes  map[hexgrid.Hex]*NodeInstance
	byName map[string]*NodeInstance
	spiral []hexgrid.Hex

	// Teammate counts are not modeled as players; per-teammate effects read
	// this configured constant.
	Teammates int
}

// NewSimulator instantiates all static nodes plus the movable nodes named in
// the layout, with upgrade levels resolved. Placement invariants (collision,
// bounds) must already hold; the constructor reports them as configuration
// errors rather than trusting the caller.
func NewSimulator(rs *rules.Ruleset, layout Layout, upgrades Upgrades, tier rules.RankRewards) (*Simulator, error) {
	s := &Simulator{
		rules:  rs,
		tier:   tier,
		nodes:  make(map[hexgrid.Hex]*NodeInstance),
		byName: make(map[string]*NodeInstance),
		spiral: hexgrid.SpiralOrder(rs.GridRadius),
	}

	place := func(def *rules.NodeDef, pos hexgrid.Hex) error {
		if !hexgrid.InBounds(pos, rs.GridRadius) {
			return fmt.Errorf("%w: %s at %v outside grid radius %d", rules.ErrConfig, def.Name, pos, rs.GridRadius)
		}
		if other, taken := s.nodes[pos]; taken {
			return fmt.Errorf("%w: %s and %s both at %v", rules.ErrConfig, other.Def.Name, def.Name, pos)
		}
		eff, err := rules.Resolve(def, upgrades[def.Name])
		if err != nil {
			return err
		}
		inst := &NodeInstance{Def: def, Pos: pos, Eff: eff}
		s.nodes[pos] = inst
		s.byName[def.Name] = inst
		return nil
	}

	// Deterministic placement order keeps error messages stable.
	for _, name := range sortedKeys(rs.Static) {
		def := rs.Static[name]
		if err := place(def, def.Position); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedLayoutKeys(layout) {
		def, ok := rs.Movable[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown movable node %q", rules.ErrConfig, name)
		}
		if err := place(def, layout[name]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Run simulates one round outcome token ("W"/"L" per flip) starting from the
// given battle bonus, and returns the final ledger. The RandomSource drives
// random cascade-target picks; pass a seeded source for reproducible runs.
func (s *Simulator) Run(outcome string, initialBonus int, rng RandomSource) (*GameState, error) {
	gs := NewGameState(initialBonus)
	for _, c := range outcome {
		switch c {
		case 'W':
			s.runFlip(gs, true, rng)
		case 'L':
			s.runFlip(gs, false, rng)
		default:
			return nil, fmt.Errorf("%w: outcome token %q has invalid flip %q", rules.ErrConfig, outcome, string(c))
		}
	}
	return gs, nil
}

func (s *Simulator) runFlip(gs *GameState, win bool, rng RandomSource) {
	for _, n := range s.nodes {
		n.ResetFlip()
	}
	gs.FlipHistory = append(gs.FlipHistory, win)
	gs.Qmult = 1

	var flipCond rules.TriggerType
	if win {
		gs.QThisFlip = s.tier.QupPerFlip
		flipCond = rules.TriggerWin
	} else {
		// The bonus increments before any effect runs, so loss-triggered
		// effects already see the bumped value.
		gs.BattleBonus++
		gs.QThisFlip = s.tier.QdownPerFlip
		flipCond = rules.TriggerLoss
	}

	for _, cond := range [2]rules.TriggerType{rules.TriggerFlip, flipCond} {
		for _, n := range s.worklist(cond) {
			s.trigger(n, gs, rng)
		}
	}

	gs.BankFlip()
	if win {
		// Reset after effects: a node reading the bonus mid-flip sees the
		// accumulated value, not zero.
		gs.BattleBonus = 0
	}
}

// worklist returns the nodes firing on the given condition, in spiral order.
func (s *Simulator) worklist(cond rules.TriggerType) []*NodeInstance {
	var out []*NodeInstance
	for _, pos := range s.spiral {
		if n, ok := s.nodes[pos]; ok && n.Def.TriggersOn(cond) {
			out = append(out, n)
		}
	}
	return out
}

// trigger fires a node and drains any cascades it starts. Cascades are
// depth-first: requests run immediately after the node that asked for them,
// before the rest of the outer spiral order.
func (s *Simulator) trigger(root *NodeInstance, gs *GameState, rng RandomSource) {
	stack := []*NodeInstance{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !n.CanTrigger() {
			gs.DepletedTriggers++
			s.runDepleted(n, gs)
			continue
		}
		n.usedThisFlip++
		gs.TotalTriggers++

		next := s.execute(n, gs, rng)
		// Push in reverse so requests execute in the order they were made.
		for i := len(next) - 1; i >= 0; i-- {
			if next[i] != nil && next[i] != n {
				stack = append(stack, next[i])
			}
		}
	}
}

// runDepleted handles the one-shot effect some nodes have when triggered
// with no stock left (EMT's depleted penalty shave). At most once per flip.
func (s *Simulator) runDepleted(n *NodeInstance, gs *GameState) {
	pct := n.Eff.Params.DepletedReductionPct
	if pct <= 0 || n.depletedFired || gs.QThisFlip >= 0 {
		return
	}
	gs.QThisFlip += int(float64(-gs.QThisFlip) * pct)
	n.depletedFired = true
}

// adjacentNodes returns the placed neighbors of n, clockwise from top.
func (s *Simulator) adjacentNodes(n *NodeInstance) []*NodeInstance {
	var out []*NodeInstance
	for _, pos := range n.Pos.Neighbors() {
		if adj, ok := s.nodes[pos]; ok {
			out = append(out, adj)
		}
	}
	return out
}

// mostStock finds the node with the most remaining activation stock among
// candidates, excluding self. Ties break randomly; a tie pool of exhausted
// nodes yields nil.
func mostStock(candidates []*NodeInstance, exclude *NodeInstance, rng RandomSource) *NodeInstance {
	best := -1
	var tied []*NodeInstance
	for _, c := range candidates {
		if c == exclude {
			continue
		}
		r := c.Remaining()
		if r > best {
			best = r
			tied = tied[:0]
		}
		if r == best {
			tied = append(tied, c)
		}
	}
	if best <= 0 || len(tied) == 0 {
		return nil
	}
	return tied[rng.IntN(len(tied))]
}

// allNodes returns every placed instance in spiral order, so stock queries
// that scan the whole grid stay deterministic.
func (s *Simulator) allNodes() []*NodeInstance {
	out := make([]*NodeInstance, 0, len(s.nodes))
	for _, pos := range s.spiral {
		if n, ok := s.nodes[pos]; ok {
			out = append(out, n)
		}
	}
	return out
}

func sortedKeys(m map[string]*rules.NodeDef) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedLayoutKeys(m Layout) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
