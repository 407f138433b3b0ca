package sim

import (
	"errors"
	"testing"

	"github.com/schavery/qup-optimizer/internal/hexgrid"
	"github.com/schavery/qup-optimizer/internal/rules"
)

func intp(v int) *int { return &v }

// testRuleset builds a small radius-3 grid from the given static defs.
func testRuleset(defs ...*rules.NodeDef) *rules.Ruleset {
	rs := &rules.Ruleset{
		GridRadius: 3,
		Static:     make(map[string]*rules.NodeDef),
		Movable:    make(map[string]*rules.NodeDef),
	}
	for _, d := range defs {
		if d.Static {
			rs.Static[d.Name] = d
		} else {
			rs.Movable[d.Name] = d
		}
	}
	return rs
}

func mustRun(t *testing.T, s *Simulator, outcome string, bonus int) *GameState {
	t.Helper()
	gs, err := s.Run(outcome, bonus, NewSeededRNG(1))
	if err != nil {
		t.Fatal(err)
	}
	return gs
}

func TestRunFlatGainAndReduction(t *testing.T) {
	rs := testRuleset(
		&rules.NodeDef{
			Name: "Payday", Static: true, Position: hexgrid.Hex{Q: 1, R: -1, S: 0},
			Triggers: []rules.TriggerType{rules.TriggerWin},
			BaseAVS:  intp(1), Effect: rules.EffectFlatQ,
			Params: rules.EffectParams{BaseAmount: 100},
		},
		&rules.NodeDef{
			Name: "Cushion", Static: true, Position: hexgrid.Hex{Q: -1, R: 1, S: 0},
			Triggers: []rules.TriggerType{rules.TriggerLoss},
			BaseAVS:  intp(1), Effect: rules.EffectReduceQdown,
			Params: rules.EffectParams{BaseReduction: 100},
		},
	)
	tier := rules.RankRewards{QupPerFlip: 0, QdownPerFlip: -1000}
	s, err := NewSimulator(rs, nil, nil, tier)
	if err != nil {
		t.Fatal(err)
	}

	if gs := mustRun(t, s, "WWW", 0); gs.QCurrency != 300 {
		t.Fatalf("WWW should bank 300, got %d", gs.QCurrency)
	}
	// Each loss: -1000 + 100, three times. The round-end total is the plain
	// sum of banked flips, nothing doubles it.
	if gs := mustRun(t, s, "LLL", 0); gs.QCurrency != -2700 {
		t.Fatalf("LLL should bank -2700, got %d", gs.QCurrency)
	}
	if gs := mustRun(t, s, "WWLW", 0); gs.QCurrency != 300-900 {
		t.Fatalf("WWLW should bank -600, got %d", gs.QCurrency)
	}
}

func TestAVSRestoresEveryFlip(t *testing.T) {
	// Repeater cascades into Payday, then the spiral worklist hits Payday
	// again with no stock. Both happen anew on every flip.
	rs := testRuleset(
		&rules.NodeDef{
			Name: "Repeater", Static: true, Position: hexgrid.Hex{Q: 0, R: -1, S: 1},
			Triggers: []rules.TriggerType{rules.TriggerWin},
			BaseAVS:  intp(1), Effect: rules.EffectTriggerAdjacent,
		},
		&rules.NodeDef{
			Name: "Payday", Static: true, Position: hexgrid.Hex{Q: 1, R: -1, S: 0},
			Triggers: []rules.TriggerType{rules.TriggerWin},
			BaseAVS:  intp(1), Effect: rules.EffectFlatQ,
			Params: rules.EffectParams{BaseAmount: 100},
		},
	)
	tier := rules.RankRewards{QupPerFlip: 0, QdownPerFlip: -1000}
	s, err := NewSimulator(rs, nil, nil, tier)
	if err != nil {
		t.Fatal(err)
	}

	gs := mustRun(t, s, "W", 0)
	if gs.QCurrency != 100 {
		t.Fatalf("single win should bank 100, got %d", gs.QCurrency)
	}
	if gs.TotalTriggers != 2 || gs.DepletedTriggers != 1 {
		t.Fatalf("want 2 triggers and 1 depleted, got %d/%d", gs.TotalTriggers, gs.DepletedTriggers)
	}

	// If stock persisted across flips the second win would bank nothing.
	gs = mustRun(t, s, "WWW", 0)
	if gs.QCurrency != 300 {
		t.Fatalf("stock must restore each flip; got %d", gs.QCurrency)
	}
	if gs.DepletedTriggers != 3 {
		t.Fatalf("each flip attempts the depleted node once, got %d", gs.DepletedTriggers)
	}
}

func TestBattleBonusLifecycle(t *testing.T) {
	rs := testRuleset(
		&rules.NodeDef{
			Name: "Booster", Static: true, Position: hexgrid.Hex{Q: 1, R: -1, S: 0},
			Triggers: []rules.TriggerType{rules.TriggerWin},
			BaseAVS:  intp(1), Effect: rules.EffectAddToQmult,
			Params: rules.EffectParams{MultiplierSource: "battle_bonus"},
		},
	)
	tier := rules.RankRewards{QupPerFlip: 100, QdownPerFlip: -1000}
	s, err := NewSimulator(rs, nil, nil, tier)
	if err != nil {
		t.Fatal(err)
	}

	// Carried-in bonus of 2: the winning flip's effect still sees it
	// (multiplier 1+2), and only then does the bonus clear. The next win
	// reads zero.
	gs := mustRun(t, s, "WW", 2)
	if gs.QCurrency != 300+100 {
		t.Fatalf("want 400, got %d", gs.QCurrency)
	}
	if gs.BattleBonus != 0 {
		t.Fatalf("bonus should be cleared after a winning flip, got %d", gs.BattleBonus)
	}
}

func TestQmultEffectMultAppliesOnce(t *testing.T) {
	mult := 3.0
	rs := testRuleset(
		&rules.NodeDef{
			Name: "Booster", Static: true, Position: hexgrid.Hex{Q: 1, R: -1, S: 0},
			Triggers: []rules.TriggerType{rules.TriggerWin},
			BaseAVS:  intp(1), Effect: rules.EffectAddToQmult,
			Params: rules.EffectParams{BaseValue: 2},
			UpgradePaths: [][]rules.UpgradeStep{
				{{EffectMult: &mult}},
			},
		},
	)
	tier := rules.RankRewards{QupPerFlip: 100, QdownPerFlip: -1000}
	s, err := NewSimulator(rs, nil, Upgrades{"Booster": {1}}, tier)
	if err != nil {
		t.Fatal(err)
	}

	// Resolution already scaled the flat base (2*3=6); the runtime adds it
	// as-is. Multiplier 1+6=7, banked 700 — not 1900.
	gs := mustRun(t, s, "W", 0)
	if gs.QCurrency != 700 {
		t.Fatalf("want 700, got %d", gs.QCurrency)
	}
}

func TestBonusSourceQmultUsesEffectMult(t *testing.T) {
	mult := 2.0
	rs := testRuleset(
		&rules.NodeDef{
			Name: "Booster", Static: true, Position: hexgrid.Hex{Q: 1, R: -1, S: 0},
			Triggers: []rules.TriggerType{rules.TriggerWin},
			BaseAVS:  intp(1), Effect: rules.EffectAddToQmult,
			Params: rules.EffectParams{MultiplierSource: "battle_bonus"},
			UpgradePaths: [][]rules.UpgradeStep{
				{{EffectMult: &mult}},
			},
		},
	)
	tier := rules.RankRewards{QupPerFlip: 100, QdownPerFlip: -1000}
	s, err := NewSimulator(rs, nil, Upgrades{"Booster": {1}}, tier)
	if err != nil {
		t.Fatal(err)
	}

	// The bonus contribution is runtime-derived, so the resolved
	// effect_mult scales it here: multiplier 1 + 2*2 = 5.
	gs := mustRun(t, s, "W", 2)
	if gs.QCurrency != 500 {
		t.Fatalf("want 500, got %d", gs.QCurrency)
	}
}

func TestLossBumpsBonusBeforeEffects(t *testing.T) {
	rs := testRuleset(
		&rules.NodeDef{
			Name: "Scaler", Static: true, Position: hexgrid.Hex{Q: 1, R: -1, S: 0},
			Triggers: []rules.TriggerType{rules.TriggerLoss},
			BaseAVS:  intp(1), Effect: rules.EffectFlatQPerBB,
			Params: rules.EffectParams{QPerBB: 10},
		},
	)
	tier := rules.RankRewards{QupPerFlip: 100, QdownPerFlip: -100}
	s, err := NewSimulator(rs, nil, nil, tier)
	if err != nil {
		t.Fatal(err)
	}

	// First loss: bonus 0 -> 1 before the effect runs, so it pays 10.
	// Second loss: bonus 2, pays 20.
	gs := mustRun(t, s, "LL", 0)
	if gs.QCurrency != (-100+10)+(-100+20) {
		t.Fatalf("want -170, got %d", gs.QCurrency)
	}
	if gs.BattleBonus != 2 {
		t.Fatalf("bonus should be 2 after two losses, got %d", gs.BattleBonus)
	}
}

func TestDepletedShaveFiresOncePerFlip(t *testing.T) {
	shave := 0.1
	rs := testRuleset(
		&rules.NodeDef{
			Name: "Medic", Static: true, Position: hexgrid.Hex{Q: 0, R: -1, S: 1},
			Triggers: []rules.TriggerType{rules.TriggerLoss},
			BaseAVS:  intp(1), Effect: rules.EffectReduceQdown,
			Params: rules.EffectParams{BaseReduction: 350},
			UpgradePaths: [][]rules.UpgradeStep{
				{{DepletedReductionPct: &shave}},
			},
		},
		&rules.NodeDef{
			Name: "Hub", Static: true, Position: hexgrid.Hex{Q: 1, R: -1, S: 0},
			Triggers: []rules.TriggerType{rules.TriggerLoss},
			BaseAVS:  intp(2), Effect: rules.EffectTriggerAdjacent,
		},
	)
	tier := rules.RankRewards{QupPerFlip: 100, QdownPerFlip: -1000}
	s, err := NewSimulator(rs, nil, Upgrades{"Medic": {1}}, tier)
	if err != nil {
		t.Fatal(err)
	}

	// Medic fires (-1000+350=-650), then Hub cascades back into the spent
	// Medic and the shave takes 10% off the penalty: -650 + 65 = -585.
	gs := mustRun(t, s, "L", 0)
	if gs.QCurrency != -585 {
		t.Fatalf("want -585, got %d", gs.QCurrency)
	}
	if gs.DepletedTriggers != 1 {
		t.Fatalf("want 1 depleted attempt, got %d", gs.DepletedTriggers)
	}

	// The one-shot re-arms on the next flip.
	if gs := mustRun(t, s, "LL", 0); gs.QCurrency != -1170 {
		t.Fatalf("shave should apply once per flip, got %d", gs.QCurrency)
	}
}

func TestQmultAppliesPerFlip(t *testing.T) {
	rs := testRuleset(
		&rules.NodeDef{
			Name: "Doubler", Static: true, Position: hexgrid.Hex{Q: 1, R: -1, S: 0},
			Triggers: []rules.TriggerType{rules.TriggerWin},
			BaseAVS:  intp(1), Effect: rules.EffectMultiplyQmult,
			Params: rules.EffectParams{Multiplier: 3},
		},
	)
	tier := rules.RankRewards{QupPerFlip: 100, QdownPerFlip: -1000}
	s, err := NewSimulator(rs, nil, nil, tier)
	if err != nil {
		t.Fatal(err)
	}

	// The multiplier scales only its own flip, then resets.
	gs := mustRun(t, s, "WL", 0)
	if gs.QCurrency != 300-1000 {
		t.Fatalf("want -700, got %d", gs.QCurrency)
	}
}

func TestSimulatorRejectsBadPlacement(t *testing.T) {
	payday := &rules.NodeDef{
		Name: "Payday", Static: true, Position: hexgrid.Hex{Q: 1, R: -1, S: 0},
		Triggers: []rules.TriggerType{rules.TriggerWin},
		BaseAVS:  intp(1), Effect: rules.EffectFlatQ,
	}
	roamer := &rules.NodeDef{
		Name: "Roamer",
		Triggers: []rules.TriggerType{rules.TriggerWin},
		BaseAVS:  intp(1), Effect: rules.EffectFlatQ,
	}
	rs := testRuleset(payday, roamer)
	tier := rules.RankRewards{QupPerFlip: 100, QdownPerFlip: -100}

	// Collision with a static node.
	if _, err := NewSimulator(rs, Layout{"Roamer": payday.Position}, nil, tier); !errors.Is(err, rules.ErrConfig) {
		t.Fatalf("collision must be ErrConfig, got %v", err)
	}
	// Outside the grid.
	if _, err := NewSimulator(rs, Layout{"Roamer": hexgrid.Hex{Q: 4, R: -4, S: 0}}, nil, tier); !errors.Is(err, rules.ErrConfig) {
		t.Fatalf("out of bounds must be ErrConfig, got %v", err)
	}
	// Unknown movable name.
	if _, err := NewSimulator(rs, Layout{"Ghost": {Q: 0, R: 1, S: -1}}, nil, tier); !errors.Is(err, rules.ErrConfig) {
		t.Fatalf("unknown movable must be ErrConfig, got %v", err)
	}

	s, err := NewSimulator(rs, Layout{"Roamer": {Q: 0, R: 1, S: -1}}, nil, tier)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run("WXW", 0, NewSeededRNG(1)); !errors.Is(err, rules.ErrConfig) {
		t.Fatalf("invalid outcome token must be ErrConfig, got %v", err)
	}
}

func TestEfficiencyWithNoAttempts(t *testing.T) {
	gs := NewGameState(0)
	if gs.Efficiency() != 1 {
		t.Fatalf("no attempts should be fully efficient, got %f", gs.Efficiency())
	}
}
