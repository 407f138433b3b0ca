package optimizer

import (
	"testing"

	"github.com/schavery/qup-optimizer/internal/rules"
	"github.com/schavery/qup-optimizer/internal/sim"
)

func spent(cfg sim.Upgrades) int {
	total := 0
	for _, levels := range cfg {
		total += rules.UpgradeCost(levels)
	}
	return total
}

func TestEnumerateAllRespectsBudget(t *testing.T) {
	rs := testRuleset()
	ug := NewUpgradeGenerator(rs)

	configs := ug.EnumerateAll(3, EnumerateOptions{})
	if len(configs) == 0 {
		t.Fatalf("expected at least one allocation")
	}
	seen := make(map[string]bool)
	for _, cfg := range configs {
		if s := spent(cfg); s > 3 {
			t.Fatalf("allocation %v spends %d over budget 3", cfg, s)
		}
		key := fingerprint(nil, cfg, 0, 0)
		if seen[key] {
			t.Fatalf("duplicate allocation %v", cfg)
		}
		seen[key] = true
	}

	// Budget 0 still yields the empty allocation.
	if got := ug.EnumerateAll(0, EnumerateOptions{}); len(got) != 1 || spent(got[0]) != 0 {
		t.Fatalf("budget 0 should yield exactly the empty allocation, got %v", got)
	}
}

func TestEnumerateAllCount(t *testing.T) {
	// Hub has one 2-step path, Cushion two 2-step paths. With a big enough
	// budget the walk covers the whole simplex: 3 * 3 * 3 vectors.
	rs := testRuleset()
	ug := NewUpgradeGenerator(rs)
	configs := ug.EnumerateAll(6, EnumerateOptions{})
	if len(configs) != 27 {
		t.Fatalf("want 27 allocations, got %d", len(configs))
	}
}

func TestEnumerateSkipNoops(t *testing.T) {
	rs := testRuleset()
	noop := rules.UpgradeStep{Noop: true}
	bump := rules.UpgradeStep{AVSIncrease: intp(1)}
	rs.Static["Hub"].UpgradePaths = [][]rules.UpgradeStep{{noop, bump}}

	ug := NewUpgradeGenerator(rs)
	for _, cfg := range ug.EnumerateAll(6, EnumerateOptions{SkipNoops: true}) {
		if levels, ok := cfg["Hub"]; ok && len(levels) > 0 && levels[0] == 1 {
			t.Fatalf("level 1 selects only a noop step and should be skipped: %v", cfg)
		}
	}
}

func TestEnumerateMinAnchorAVS(t *testing.T) {
	rs := testRuleset()
	ug := NewUpgradeGenerator(rs)

	// Hub starts at AVS 1 with +1/+1 steps; requiring 3 forces both.
	configs := ug.EnumerateAll(6, EnumerateOptions{MinAnchorAVS: 3})
	if len(configs) == 0 {
		t.Fatalf("constraint should still be satisfiable")
	}
	for _, cfg := range configs {
		eff, err := rules.Resolve(rs.Static["Hub"], cfg["Hub"])
		if err != nil {
			t.Fatal(err)
		}
		if eff.AVS == nil || *eff.AVS < 3 {
			t.Fatalf("allocation %v leaves anchor AVS at %v", cfg, eff.AVS)
		}
	}
}

func TestTieredExactBudget(t *testing.T) {
	rs := testRuleset()
	ug := NewUpgradeGenerator(rs)

	configs := ug.Tiered(4, 50)
	if len(configs) == 0 {
		t.Fatalf("expected tiered allocations for budget 4")
	}
	for _, cfg := range configs {
		if s := spent(cfg); s != 4 {
			t.Fatalf("tiered allocation %v spends %d, want exactly 4", cfg, s)
		}
	}

	// The first composition spends the anchor's maxed vector.
	if levels := configs[0]["Hub"]; rules.UpgradeCost(levels) != 2 {
		t.Fatalf("anchor should be maxed first, got %v", configs[0])
	}
}

func TestTieredRespectsLimit(t *testing.T) {
	rs := testRuleset()
	ug := NewUpgradeGenerator(rs)
	if got := ug.Tiered(4, 1); len(got) != 1 {
		t.Fatalf("limit 1 should cap the output, got %d", len(got))
	}
}
