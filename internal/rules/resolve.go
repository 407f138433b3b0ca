package rules

import "fmt"

// Effective is a node's parameter set after applying chosen upgrade levels.
type Effective struct {
	AVS    *int // nil means unlimited activations per flip
	Params EffectParams
}

// Resolve computes the effective AVS cap and parameters for the given
// per-path upgrade levels. AVS increases accumulate; every other field is
// replaced by the highest selected step on its path; effect_mult steps are
// applied last, scaling whichever flat fields resolved non-zero.
//
// A level must be in [0, len(path)]; anything else is a configuration error.
func Resolve(def *NodeDef, levels []int) (Effective, error) {
	if len(levels) > len(def.UpgradePaths) {
		return Effective{}, fmt.Errorf("%w: %s has %d upgrade paths, got %d levels",
			ErrConfig, def.Name, len(def.UpgradePaths), len(levels))
	}

	eff := Effective{Params: def.Params}
	if def.BaseAVS != nil {
		avs := *def.BaseAVS
		eff.AVS = &avs
	}

	effectMult := 0.0
	for pi, level := range levels {
		path := def.UpgradePaths[pi]
		if level < 0 || level > len(path) {
			return Effective{}, fmt.Errorf("%w: %s path %d level %d out of range [0,%d]",
				ErrConfig, def.Name, pi, level, len(path))
		}
		for si := 0; si < level; si++ {
			step := path[si]
			if step.AVSIncrease != nil && eff.AVS != nil {
				*eff.AVS += *step.AVSIncrease
			}
			if step.QIncrease != nil {
				eff.Params.BaseAmount = *step.QIncrease
			}
			if step.BBMultiplierIncrease != nil {
				eff.Params.BBMultiplier = *step.BBMultiplierIncrease
			}
			if step.PerLossIncrease != nil {
				eff.Params.BasePerLoss = *step.PerLossIncrease
			}
			if step.PercentIncrease != nil {
				eff.Params.BasePercent = *step.PercentIncrease
			}
			if step.PerTeammateIncrease != nil {
				eff.Params.BasePerTeammate = *step.PerTeammateIncrease
			}
			if step.PerDepletedIncrease != nil {
				eff.Params.BasePerDepleted = *step.PerDepletedIncrease
			}
			if step.DepletedReductionPct != nil {
				eff.Params.DepletedReductionPct = *step.DepletedReductionPct
			}
			if step.EffectMult != nil {
				effectMult = *step.EffectMult
			}
		}
	}

	if effectMult > 0 {
		eff.Params.EffectMult = effectMult
		scaleNonZero(&eff.Params, effectMult)
	}
	return eff, nil
}

// scaleNonZero applies a multiplier to the flat numeric fields that are
// already non-zero. Which fields an effect_mult step touches is a data
// convention, not a declared linkage; runtime-derived contributions (e.g. a
// battle-bonus multiplier source) read Params.EffectMult directly instead.
func scaleNonZero(p *EffectParams, m float64) {
	scaleInt := func(v *int) {
		if *v != 0 {
			*v = int(float64(*v) * m)
		}
	}
	scaleInt(&p.BaseReduction)
	scaleInt(&p.BBMultiplier)
	scaleInt(&p.BaseAmount)
	scaleInt(&p.BasePerLoss)
	scaleInt(&p.BasePerTeammate)
	scaleInt(&p.QPerBB)
	scaleInt(&p.BasePerDepleted)
	if p.BaseValue != 0 {
		p.BaseValue *= m
	}
}

// UpgradeCost is the total points spent by a level vector (one point per
// selected step).
func UpgradeCost(levels []int) int {
	total := 0
	for _, l := range levels {
		total += l
	}
	return total
}
