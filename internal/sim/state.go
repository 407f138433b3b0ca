// Package sim resolves one best-of-five round outcome into a final currency
// total by executing node effects and their cascades in spiral order.
package sim

// GameState is the mutable ledger for one simulated round. It is created at
// round start, mutated by effect execution, and discarded once the final
// currency value has been read.
type GameState struct {
	QCurrency   int     // running total across flips
	QThisFlip   int     // currency accrued this flip, multiplied in at flip end
	Qmult       float64 // multiplier applied to QThisFlip before banking
	BattleBonus int     // increments on losses, resets after winning flips

	XP      int
	Gold    int
	Defence int

	FlipHistory []bool // true = win, in flip order

	TotalTriggers    int // effects executed successfully
	DepletedTriggers int // trigger attempts on nodes with no stock left
}

// NewGameState starts a round ledger with a caller-supplied battle bonus
// carried in from earlier play.
func NewGameState(initialBonus int) *GameState {
	return &GameState{Qmult: 1, BattleBonus: initialBonus}
}

// BankFlip applies the flip multiplier to this flip's accrued currency, adds
// the product to the running total, and resets the per-flip fields.
func (gs *GameState) BankFlip() {
	gs.QCurrency += int(float64(gs.QThisFlip) * gs.Qmult)
	gs.QThisFlip = 0
	gs.Qmult = 1
}

// Losses counts the losing flips so far this round.
func (gs *GameState) Losses() int {
	n := 0
	for _, win := range gs.FlipHistory {
		if !win {
			n++
		}
	}
	return n
}

// Efficiency is successful triggers over attempted triggers, in [0, 1].
// A round with no attempts counts as fully efficient.
func (gs *GameState) Efficiency() float64 {
	attempts := gs.TotalTriggers + gs.DepletedTriggers
	if attempts == 0 {
		return 1
	}
	return float64(gs.TotalTriggers) / float64(attempts)
}
