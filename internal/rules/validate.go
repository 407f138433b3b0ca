package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/schavery/qup-optimizer/internal/hexgrid"
)

// ErrConfig marks an invalid configuration: bad node data, a layout
// collision or out-of-bounds position, or an invalid upgrade vector.
var ErrConfig = errors.New("invalid configuration")

var knownTriggers = map[TriggerType]bool{
	TriggerWin: true, TriggerLoss: true, TriggerFlip: true, TriggerManual: true,
}

// ValidateRaw checks semantic constraints of a RawConfig before
// normalization. All problems are reported in one error.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	radius := defaultGridRadius
	if cfg.GridRadius != nil {
		if *cfg.GridRadius < 1 {
			errs = append(errs, "grid_radius must be >= 1")
		} else {
			radius = *cfg.GridRadius
		}
	}

	seen := map[string]bool{}
	occupied := map[hexgrid.Hex]string{}

	for i, rn := range cfg.Nodes {
		where := fmt.Sprintf("nodes[%d] (%s)", i, rn.Name)

		if rn.Name == "" {
			errs = append(errs, where+": name is required")
		}
		if seen[rn.Name] {
			errs = append(errs, where+": duplicate node name")
		}
		seen[rn.Name] = true

		if !knownEffects[EffectKind(rn.Effect)] {
			errs = append(errs, fmt.Sprintf("%s: unknown effect %q", where, rn.Effect))
		}
		for _, t := range rn.Triggers {
			if !knownTriggers[TriggerType(t)] {
				errs = append(errs, fmt.Sprintf("%s: unknown trigger %q", where, t))
			}
		}
		if rn.BaseAVS != nil && *rn.BaseAVS < 0 {
			errs = append(errs, where+": base_avs must be >= 0")
		}

		if rn.Position != nil {
			pos := hexgrid.Hex{Q: rn.Position[0], R: rn.Position[1], S: rn.Position[2]}
			if !pos.Valid() {
				errs = append(errs, fmt.Sprintf("%s: position %v violates q+r+s=0", where, *rn.Position))
			} else if pos.Ring() > radius {
				errs = append(errs, fmt.Sprintf("%s: position %v outside grid radius %d", where, *rn.Position, radius))
			} else if other, taken := occupied[pos]; taken {
				errs = append(errs, fmt.Sprintf("%s: position %v already occupied by %s", where, *rn.Position, other))
			} else {
				occupied[pos] = rn.Name
			}
		}

		for pi, path := range rn.Upgrades {
			for si, step := range path {
				if !stepHasField(step) {
					errs = append(errs, fmt.Sprintf("%s: upgrades[%d][%d] has no recognized field", where, pi, si))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrConfig, strings.Join(errs, "; "))
	}
	return nil
}

func stepHasField(s UpgradeStep) bool {
	return s.Noop || s.AVSIncrease != nil || s.QIncrease != nil ||
		s.BBMultiplierIncrease != nil || s.PerLossIncrease != nil ||
		s.PercentIncrease != nil || s.PerTeammateIncrease != nil ||
		s.PerDepletedIncrease != nil || s.DepletedReductionPct != nil ||
		s.EffectMult != nil
}
