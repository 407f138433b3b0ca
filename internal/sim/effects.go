package sim

import "github.com/schavery/qup-optimizer/internal/rules"

// execute runs a node's effect against the game state and returns the nodes
// it wants cascaded to, in request order. Every effect kind has defined
// behavior for every parameter combination; missing or zero parameters are
// no-ops, never errors.
func (s *Simulator) execute(n *NodeInstance, gs *GameState, rng RandomSource) []*NodeInstance {
	p := n.Eff.Params

	switch n.Def.Effect {
	case rules.EffectAddToQmult:
		if p.MultiplierSource == "battle_bonus" {
			// The bonus is read at runtime, so the resolved effect_mult
			// has to be applied here; flat bases were already scaled
			// during upgrade resolution.
			mult := p.EffectMult
			if mult == 0 {
				mult = 1
			}
			gs.Qmult += float64(gs.BattleBonus) * mult
		} else {
			gs.Qmult += p.BaseValue
		}

	case rules.EffectReduceQdown:
		gs.QThisFlip += p.BaseReduction + p.BBMultiplier*gs.BattleBonus

	case rules.EffectFlatQ:
		gs.QThisFlip += p.BaseAmount

	case rules.EffectReduceQdownPerLoss:
		gs.QThisFlip += p.BasePerLoss * gs.Losses()

	case rules.EffectReduceQdownPercent:
		if gs.QThisFlip < 0 {
			gs.QThisFlip += int(float64(-gs.QThisFlip) * p.BasePercent)
		}

	case rules.EffectFlatQPerTeammateClass:
		gs.QThisFlip += p.BasePerTeammate * s.Teammates

	case rules.EffectQPerQdownPrevented:
		// Pays one Q per point of penalty already shaved off this flip.
		if prevented := gs.QThisFlip - s.tier.QdownPerFlip; prevented > 0 {
			gs.QThisFlip += prevented
		}

	case rules.EffectFlatQPerBB:
		gs.QThisFlip += p.QPerBB * gs.BattleBonus

	case rules.EffectMultiplyQmult:
		if p.Multiplier > 0 {
			gs.Qmult *= p.Multiplier
		}

	case rules.EffectAddBB:
		gs.BattleBonus += p.BBIncrease

	case rules.EffectXPPerDepleted:
		gs.XP += p.XPPerDepleted * s.countDepleted()

	case rules.EffectGoldPerQdownPrevented:
		if p.QdownPerGold > 0 {
			if prevented := gs.QThisFlip - s.tier.QdownPerFlip; prevented > 0 {
				gs.Gold += prevented / p.QdownPerGold
			}
		}

	case rules.EffectDefencePerBB:
		gs.Defence += p.DefencePerBB * gs.BattleBonus

	case rules.EffectTeamQdownPerDepleted:
		// Shields teammates, not this ledger; the trigger itself is the
		// whole observable outcome here.

	case rules.EffectTriggerAdjacent:
		return s.adjacentNodes(n)

	case rules.EffectTriggerMostAVS:
		return repeatTarget(mostStock(s.allNodes(), n, rng), numTriggers(p, 2))

	case rules.EffectTriggerAdjacentTopAVS:
		return repeatTarget(mostStock(s.adjacentNodes(n), n, rng), numTriggers(p, 2))

	case rules.EffectTriggerRandomAdjacent:
		if adj := s.adjacentNodes(n); len(adj) > 0 {
			return []*NodeInstance{adj[rng.IntN(len(adj))]}
		}

	case rules.EffectAddBBAndTrigger:
		gs.BattleBonus++
		adj := s.adjacentNodes(n)
		if len(adj) == 0 {
			return nil
		}
		count := 0
		if gs.BattleBonus > p.BBThreshold2 {
			count = 2
		} else if gs.BattleBonus > p.BBThreshold1 {
			count = 1
		}
		var out []*NodeInstance
		for _, i := range sample(rng, len(adj), count) {
			out = append(out, adj[i])
		}
		return out

	case rules.EffectTriggerAdjacentPerLoss:
		adj := s.adjacentNodes(n)
		total := p.NodesPerLoss * gs.Losses()
		if len(adj) == 0 || total <= 0 {
			return nil
		}
		out := make([]*NodeInstance, total)
		for i := range out {
			out[i] = adj[rng.IntN(len(adj))]
		}
		return out
	}

	return nil
}

// countDepleted counts nodes whose stock for this flip is fully spent.
func (s *Simulator) countDepleted() int {
	count := 0
	for _, n := range s.nodes {
		if n.Eff.AVS != nil && n.usedThisFlip >= *n.Eff.AVS {
			count++
		}
	}
	return count
}

func numTriggers(p rules.EffectParams, fallback int) int {
	if p.NumTriggers > 0 {
		return p.NumTriggers
	}
	return fallback
}

// repeatTarget requests the same node count times; the target is picked once
// and re-checked for stock on every cascade.
func repeatTarget(target *NodeInstance, count int) []*NodeInstance {
	if target == nil || count <= 0 {
		return nil
	}
	out := make([]*NodeInstance, count)
	for i := range out {
		out[i] = target
	}
	return out
}
