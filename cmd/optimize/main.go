package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/schavery/qup-optimizer/internal/optimizer"
	"github.com/schavery/qup-optimizer/internal/rules"
	"github.com/schavery/qup-optimizer/internal/sim"
)

func main() {
	var (
		configDir  = flag.String("config", "config", "directory containing nodes.yaml")
		rank       = flag.Int("rank", 25, "player rank (1-40)")
		candidates = flag.Int("candidates", 200, "layouts to generate per strategy")
		top        = flag.Int("top", 5, "how many best layouts to print")
		seed       = flag.Uint64("seed", 42, "RNG seed for generation and simulation")
		bonus      = flag.Int("bonus", 0, "battle bonus carried into the round")
		teammates  = flag.Int("teammates", 0, "teammate count for per-teammate effects")
		iterations = flag.Int("iterations", 50, "max accepted local-search moves")
		upgradesIn = flag.String("upgrades", "", `upgrade levels as JSON, e.g. '{"EMT":[3,2]}'`)
		detailed   = flag.Bool("detailed", false, "print per-outcome results for the best layout")
	)
	flag.Parse()

	if *rank < rules.MinRank || *rank > rules.MaxRank {
		log.Fatalf("rank %d out of range %d-%d", *rank, rules.MinRank, rules.MaxRank)
	}

	loader := rules.NewLoader(*configDir)
	rs, err := loader.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	upgrades, err := parseUpgrades(*upgradesIn)
	if err != nil {
		log.Fatalf("parse -upgrades: %v", err)
	}

	gen := optimizer.NewGenerator(rs, *seed)
	eval := optimizer.NewEvaluator(rs, *rank, *seed,
		optimizer.WithTeammates(*teammates),
		optimizer.WithAdjacencyScorer(gen))

	var results []*optimizer.Result
	for _, strat := range []optimizer.Strategy{optimizer.StrategyRing, optimizer.StrategyAdjacency} {
		layouts, err := gen.Generate(*candidates, strat)
		if err != nil {
			log.Fatalf("generate %s layouts: %v", strat, err)
		}
		for _, layout := range layouts {
			res, err := eval.Evaluate(layout, upgrades, *bonus)
			if err != nil {
				log.Fatalf("evaluate: %v", err)
			}
			results = append(results, res)
		}
	}
	if len(results) == 0 {
		log.Fatal("no candidates generated; raise -candidates")
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Better(results[j]) })

	ref := optimizer.NewRefiner(rs, eval, *seed+1)
	report, err := ref.Refine(results[0].Layout, upgrades, *bonus, *iterations)
	if err != nil {
		log.Fatalf("refine: %v", err)
	}

	tier := rules.RankFor(*rank)
	fmt.Printf("rank %d (%s): qup %+d, qdown %+d per flip\n",
		*rank, tier.Name(), tier.QupPerFlip, tier.QdownPerFlip)
	fmt.Printf("evaluated %d candidates, refined %d moves over %d scans\n",
		len(results), report.AcceptedMoves, report.Iterations)
	stats := eval.CacheStats()
	fmt.Printf("cache: %d/%d hits\n\n", stats.Hits, stats.Lookups)

	if *top > len(results) {
		*top = len(results)
	}
	for i := 0; i < *top; i++ {
		printSummary(i+1, results[i])
	}

	fmt.Println("\nrefined best:")
	printSummary(0, report.Final)
	if report.Improved() {
		fmt.Printf("  improved min Q by %+d over the unrefined best\n",
			report.Final.MinQ-report.Initial.MinQ)
	}

	if *detailed {
		printDetail(report.Final)
	}
}

func parseUpgrades(raw string) (sim.Upgrades, error) {
	if raw == "" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("not valid JSON: %q", raw)
	}
	out := make(sim.Upgrades)
	var bad error
	gjson.Parse(raw).ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			bad = fmt.Errorf("node %q: expected an array of levels", key.String())
			return false
		}
		var levels []int
		for _, v := range value.Array() {
			levels = append(levels, int(v.Int()))
		}
		out[key.String()] = levels
		return true
	})
	return out, bad
}

func printSummary(n int, r *optimizer.Result) {
	prefix := "  "
	if n > 0 {
		prefix = fmt.Sprintf("#%d ", n)
	}
	fmt.Printf("%smin %d / avg %.0f / max %d, %d/%d positive, efficiency %.2f, adjacency %.0f\n",
		prefix, r.MinQ, r.AvgQ, r.MaxQ, r.Positive, r.TotalOutcomes, r.Efficiency, r.AdjacencyScore)
	names := make([]string, 0, len(r.Layout))
	for name := range r.Layout {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pos := r.Layout[name]
		fmt.Printf("%s  %-18s (%d,%d,%d) ring %d\n", prefix, name, pos.Q, pos.R, pos.S, pos.Ring())
	}
}

func printDetail(r *optimizer.Result) {
	fmt.Println("\nper-outcome results:")
	tokens := make([]string, 0, len(r.Outcomes))
	for t := range r.Outcomes {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if r.Outcomes[tokens[i]] != r.Outcomes[tokens[j]] {
			return r.Outcomes[tokens[i]] < r.Outcomes[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	w := os.Stdout
	for _, t := range tokens {
		fmt.Fprintf(w, "  %-5s %+d\n", t, r.Outcomes[t])
	}
}
