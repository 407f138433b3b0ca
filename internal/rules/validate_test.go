package rules

import (
	"errors"
	"strings"
	"testing"
)

func rawNode(name string) RawNode {
	return RawNode{
		Name:     name,
		Triggers: []string{"loss"},
		BaseAVS:  intp(1),
		Effect:   string(EffectFlatQ),
	}
}

func TestValidateRawCollectsAllErrors(t *testing.T) {
	a := rawNode("A")
	a.Position = &[3]int{1, 1, 1} // violates q+r+s=0
	b := rawNode("A")             // duplicate name
	b.Effect = "explode"          // unknown effect
	b.Triggers = []string{"sometimes"}

	err := ValidateRaw(RawConfig{Nodes: []RawNode{a, b}})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("want ErrConfig, got %v", err)
	}
	for _, frag := range []string{"q+r+s=0", "duplicate", "unknown effect", "unknown trigger"} {
		if !strings.Contains(err.Error(), frag) {
			t.Fatalf("error should mention %q: %v", frag, err)
		}
	}
}

func TestValidateRawPositionCollision(t *testing.T) {
	a := rawNode("A")
	a.Position = &[3]int{1, -1, 0}
	b := rawNode("B")
	b.Position = &[3]int{1, -1, 0}

	err := ValidateRaw(RawConfig{Nodes: []RawNode{a, b}})
	if err == nil || !strings.Contains(err.Error(), "occupied") {
		t.Fatalf("collision should be reported, got %v", err)
	}
}

func TestValidateRawOutOfBounds(t *testing.T) {
	radius := 2
	a := rawNode("A")
	a.Position = &[3]int{3, -3, 0}

	err := ValidateRaw(RawConfig{GridRadius: &radius, Nodes: []RawNode{a}})
	if err == nil || !strings.Contains(err.Error(), "outside grid radius") {
		t.Fatalf("out-of-bounds position should be reported, got %v", err)
	}
}

func TestValidateRawEmptyStep(t *testing.T) {
	a := rawNode("A")
	a.Upgrades = [][]UpgradeStep{{{}}}

	err := ValidateRaw(RawConfig{Nodes: []RawNode{a}})
	if err == nil || !strings.Contains(err.Error(), "no recognized field") {
		t.Fatalf("empty upgrade step should be reported, got %v", err)
	}
}

func TestValidateRawOK(t *testing.T) {
	a := rawNode("A")
	a.Position = &[3]int{1, -1, 0}
	a.Upgrades = [][]UpgradeStep{{{Noop: true}, {AVSIncrease: intp(1)}}}
	b := rawNode("B")

	if err := ValidateRaw(RawConfig{Anchor: "A", Nodes: []RawNode{a, b}}); err != nil {
		t.Fatal(err)
	}
}

func TestNormalizeSplitsStaticMovable(t *testing.T) {
	a := rawNode("A")
	a.Position = &[3]int{1, -1, 0}
	b := rawNode("B")

	rs, err := Normalize(RawConfig{Version: "1.0", Anchor: "A", Nodes: []RawNode{a, b}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rs.Static) != 1 || len(rs.Movable) != 1 {
		t.Fatalf("split wrong: %d static, %d movable", len(rs.Static), len(rs.Movable))
	}
	if def := rs.Static["A"]; !def.Static || def.Position.Ring() != 1 {
		t.Fatalf("static node A mis-normalized: %+v", def)
	}
	if rs.GridRadius != defaultGridRadius {
		t.Fatalf("default radius expected, got %d", rs.GridRadius)
	}

	if _, err := Normalize(RawConfig{Anchor: "missing", Nodes: []RawNode{b}}); !errors.Is(err, ErrConfig) {
		t.Fatalf("undefined anchor must be ErrConfig, got %v", err)
	}
}

func TestRankTable(t *testing.T) {
	r := RankFor(1)
	if r.QupPerFlip != 100 || r.QdownPerFlip != -100 || r.TierName != "Bronze" {
		t.Fatalf("rank 1 wrong: %+v", r)
	}
	r = RankFor(25)
	if r.TierName != "Diamond" || r.TierLevel != 5 {
		t.Fatalf("rank 25 wrong: %+v", r)
	}
	if r.QdownPerFlip >= RankFor(24).QdownPerFlip {
		t.Fatalf("penalty should deepen with rank")
	}

	// Every rank wins the same flat amount; only penalties scale.
	for i := MinRank; i <= MaxRank; i++ {
		if RankFor(i).QupPerFlip != 100 {
			t.Fatalf("rank %d qup=%d, want 100", i, RankFor(i).QupPerFlip)
		}
		if RankFor(i).QdownPerFlip >= 0 {
			t.Fatalf("rank %d qdown should be negative", i)
		}
	}

	// Below-range clamps, above-range extrapolates.
	if RankFor(0) != RankFor(1) {
		t.Fatalf("rank 0 should clamp to 1")
	}
	if RankFor(41).QdownPerFlip >= RankFor(40).QdownPerFlip {
		t.Fatalf("extrapolated rank should deepen the penalty")
	}
}
