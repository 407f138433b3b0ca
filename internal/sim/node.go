package sim

import (
	"github.com/schavery/qup-optimizer/internal/hexgrid"
	"github.com/schavery/qup-optimizer/internal/rules"
)

// Layout maps movable-node names to grid positions.
type Layout map[string]hexgrid.Hex

// Upgrades maps node names to chosen per-path upgrade levels.
type Upgrades map[string][]int

// NodeInstance is a node bound to a position and resolved upgrade levels,
// plus the per-flip activation counters.
type NodeInstance struct {
	Def *rules.NodeDef
	Pos hexgrid.Hex
	Eff rules.Effective

	usedThisFlip  int
	depletedFired bool // the one-shot depleted effect already ran this flip
}

// ResetFlip restores the activation stock. Called at the start of every
// flip, never once per round.
func (n *NodeInstance) ResetFlip() {
	n.usedThisFlip = 0
	n.depletedFired = false
}

// Remaining is the activation stock left this flip. Unlimited nodes report
// a large sentinel so most-stock comparisons favor them.
func (n *NodeInstance) Remaining() int {
	if n.Eff.AVS == nil {
		return int(^uint(0) >> 1)
	}
	return *n.Eff.AVS - n.usedThisFlip
}

// CanTrigger reports whether the node has stock left to fire.
func (n *NodeInstance) CanTrigger() bool {
	return n.Eff.AVS == nil || n.usedThisFlip < *n.Eff.AVS
}
