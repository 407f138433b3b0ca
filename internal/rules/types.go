// Package rules holds the static game configuration: node definitions with
// their upgrade paths, and the rank progression table. Configuration is
// loaded once from YAML and consumed read-only by the simulator and the
// optimizer.
package rules

import "github.com/schavery/qup-optimizer/internal/hexgrid"

// TriggerType names a condition under which a node fires.
type TriggerType string

const (
	TriggerWin    TriggerType = "win"
	TriggerLoss   TriggerType = "loss"
	TriggerFlip   TriggerType = "flip" // fires on every flip, win or loss
	TriggerManual TriggerType = "manual"
)

// EffectKind selects a node's behavior when it triggers.
type EffectKind string

const (
	EffectAddToQmult             EffectKind = "add_to_qmult"
	EffectReduceQdown            EffectKind = "reduce_qdown"
	EffectFlatQ                  EffectKind = "flat_q"
	EffectReduceQdownPerLoss     EffectKind = "reduce_qdown_per_loss"
	EffectTriggerAdjacent        EffectKind = "trigger_adjacent"
	EffectReduceQdownPercent     EffectKind = "reduce_qdown_percent"
	EffectFlatQPerTeammateClass  EffectKind = "flat_q_per_teammate_class"
	EffectQPerQdownPrevented     EffectKind = "q_per_qdown_prevented"
	EffectFlatQPerBB             EffectKind = "flat_q_per_bb"
	EffectTriggerMostAVS         EffectKind = "trigger_most_avs"
	EffectAddBBAndTrigger        EffectKind = "add_bb_and_trigger"
	EffectTriggerRandomAdjacent  EffectKind = "trigger_random_adjacent"
	EffectTriggerAdjacentTopAVS  EffectKind = "trigger_adjacent_most_avs"
	EffectXPPerDepleted          EffectKind = "xp_per_depleted"
	EffectMultiplyQmult          EffectKind = "multiply_qmult"
	EffectTriggerAdjacentPerLoss EffectKind = "trigger_adjacent_per_loss"
	EffectAddBB                  EffectKind = "add_bb"
	EffectGoldPerQdownPrevented  EffectKind = "gold_per_qdown_prevented"
	EffectDefencePerBB           EffectKind = "defence_per_bb"
	EffectTeamQdownPerDepleted   EffectKind = "teammate_qdown_reduction_per_depleted"
)

var knownEffects = map[EffectKind]bool{
	EffectAddToQmult: true, EffectReduceQdown: true, EffectFlatQ: true,
	EffectReduceQdownPerLoss: true, EffectTriggerAdjacent: true,
	EffectReduceQdownPercent: true, EffectFlatQPerTeammateClass: true,
	EffectQPerQdownPrevented: true, EffectFlatQPerBB: true,
	EffectTriggerMostAVS: true, EffectAddBBAndTrigger: true,
	EffectTriggerRandomAdjacent: true, EffectTriggerAdjacentTopAVS: true,
	EffectXPPerDepleted: true, EffectMultiplyQmult: true,
	EffectTriggerAdjacentPerLoss: true, EffectAddBB: true,
	EffectGoldPerQdownPrevented: true, EffectDefencePerBB: true,
	EffectTeamQdownPerDepleted: true,
}

// EffectParams carries the numeric knobs for every effect kind. Each kind
// reads only the fields it cares about; zero values mean "no effect", never
// an error.
type EffectParams struct {
	MultiplierSource string  `yaml:"multiplier_source,omitempty" json:"multiplier_source,omitempty"`
	BaseValue        float64 `yaml:"base_value,omitempty" json:"base_value,omitempty"`
	BaseReduction    int     `yaml:"base_reduction,omitempty" json:"base_reduction,omitempty"`
	BBMultiplier     int     `yaml:"bb_multiplier,omitempty" json:"bb_multiplier,omitempty"`
	BaseAmount       int     `yaml:"base_amount,omitempty" json:"base_amount,omitempty"`
	BasePerLoss      int     `yaml:"base_per_loss,omitempty" json:"base_per_loss,omitempty"`
	BasePercent      float64 `yaml:"base_percent,omitempty" json:"base_percent,omitempty"`
	BasePerTeammate  int     `yaml:"base_per_teammate,omitempty" json:"base_per_teammate,omitempty"`
	TeammateClass    string  `yaml:"teammate_class,omitempty" json:"teammate_class,omitempty"`
	QPerBB           int     `yaml:"q_per_bb,omitempty" json:"q_per_bb,omitempty"`
	NumTriggers      int     `yaml:"num_triggers,omitempty" json:"num_triggers,omitempty"`
	BBThreshold1     int     `yaml:"bb_threshold_1,omitempty" json:"bb_threshold_1,omitempty"`
	BBThreshold2     int     `yaml:"bb_threshold_2,omitempty" json:"bb_threshold_2,omitempty"`
	XPPerDepleted    int     `yaml:"xp_per_depleted,omitempty" json:"xp_per_depleted,omitempty"`
	Multiplier       float64 `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
	NodesPerLoss     int     `yaml:"nodes_per_loss,omitempty" json:"nodes_per_loss,omitempty"`
	BBIncrease       int     `yaml:"bb_increase,omitempty" json:"bb_increase,omitempty"`
	QdownPerGold     int     `yaml:"qdown_per_gold,omitempty" json:"qdown_per_gold,omitempty"`
	DefencePerBB     int     `yaml:"defence_per_bb,omitempty" json:"defence_per_bb,omitempty"`
	BasePerDepleted  int     `yaml:"base_per_depleted,omitempty" json:"base_per_depleted,omitempty"`

	// Resolved from upgrade steps only, never set in base config.
	EffectMult          float64 `yaml:"-" json:"effect_mult,omitempty"`
	DepletedReductionPct float64 `yaml:"-" json:"depleted_reduction_percent,omitempty"`
}

// UpgradeStep is one discrete level on an upgrade path. AVSIncrease is
// additive across levels; every other field replaces the value from lower
// levels on the same path. EffectMult scales already-resolved fields.
type UpgradeStep struct {
	AVSIncrease          *int     `yaml:"avs_increase,omitempty" json:"avs_increase,omitempty"`
	QIncrease            *int     `yaml:"q_increase,omitempty" json:"q_increase,omitempty"`
	BBMultiplierIncrease *int     `yaml:"bb_multiplier_increase,omitempty" json:"bb_multiplier_increase,omitempty"`
	PerLossIncrease      *int     `yaml:"per_loss_increase,omitempty" json:"per_loss_increase,omitempty"`
	PercentIncrease      *float64 `yaml:"percent_increase,omitempty" json:"percent_increase,omitempty"`
	PerTeammateIncrease  *int     `yaml:"per_teammate_increase,omitempty" json:"per_teammate_increase,omitempty"`
	PerDepletedIncrease  *int     `yaml:"per_depleted_increase,omitempty" json:"per_depleted_increase,omitempty"`
	DepletedReductionPct *float64 `yaml:"depleted_reduction_percent,omitempty" json:"depleted_reduction_percent,omitempty"`
	EffectMult           *float64 `yaml:"effect_mult,omitempty" json:"effect_mult,omitempty"`
	Noop                 bool     `yaml:"noop,omitempty" json:"noop,omitempty"`
}

// NodeDef is an immutable node definition. Static nodes carry a fixed grid
// position; movable nodes get theirs from a layout at simulation time.
type NodeDef struct {
	Name         string
	Position     hexgrid.Hex // meaningful only when Static
	Static       bool
	Triggers     []TriggerType
	BaseAVS      *int // nil means unlimited activations per flip
	Effect       EffectKind
	Params       EffectParams
	UpgradePaths [][]UpgradeStep
	Order        int
}

// TriggersOn reports whether the node fires for the given condition.
func (d *NodeDef) TriggersOn(t TriggerType) bool {
	for _, tt := range d.Triggers {
		if tt == t {
			return true
		}
	}
	return false
}

// MaxUpgradePoints is the total number of steps across all paths.
func (d *NodeDef) MaxUpgradePoints() int {
	total := 0
	for _, p := range d.UpgradePaths {
		total += len(p)
	}
	return total
}

// Ruleset is the normalized, validated configuration consumed by the engine.
type Ruleset struct {
	Version    string
	GridRadius int
	Anchor     string // cascade-anchor node name, e.g. "Panic"
	Static     map[string]*NodeDef
	Movable    map[string]*NodeDef
}

// Node looks up a definition by name across static and movable nodes.
func (rs *Ruleset) Node(name string) (*NodeDef, bool) {
	if d, ok := rs.Static[name]; ok {
		return d, true
	}
	d, ok := rs.Movable[name]
	return d, ok
}

// StaticPositions returns the occupied cells of all static nodes.
func (rs *Ruleset) StaticPositions() map[hexgrid.Hex]string {
	out := make(map[hexgrid.Hex]string, len(rs.Static))
	for name, d := range rs.Static {
		out[d.Position] = name
	}
	return out
}

// Raw YAML schema, mirrors config/nodes.yaml.

type RawConfig struct {
	Version    string    `yaml:"version"`
	GridRadius *int      `yaml:"grid_radius"`
	Anchor     string    `yaml:"anchor"`
	Nodes      []RawNode `yaml:"nodes"`
}

type RawNode struct {
	Name     string          `yaml:"name"`
	Position *[3]int         `yaml:"position,omitempty"` // present iff static
	Triggers []string        `yaml:"triggers"`
	BaseAVS  *int            `yaml:"base_avs"`
	Effect   string          `yaml:"effect"`
	Params   EffectParams    `yaml:"params,omitempty"`
	Upgrades [][]UpgradeStep `yaml:"upgrades,omitempty"`
	Order    int             `yaml:"order,omitempty"`
}
