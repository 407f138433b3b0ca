package rules

import "fmt"

// RankRewards is the per-rank payout table: flat gain on a winning flip,
// penalty on a losing flip, and the side rewards. Consumed read-only.
type RankRewards struct {
	Rank         int    `json:"rank"`
	TierName     string `json:"tier"`
	TierLevel    int    `json:"tier_level"`
	QupPerFlip   int    `json:"qup_per_flip"`
	QdownPerFlip int    `json:"qdown_per_flip"` // negative
	XPWin        int    `json:"xp_win"`
	XPLoss       int    `json:"xp_loss"`
	GoldWin      int    `json:"gold_win"`
}

// Name is the display name, e.g. "Grandmaster 1".
func (r RankRewards) Name() string {
	return fmt.Sprintf("%s %d", r.TierName, r.TierLevel)
}

const (
	MinRank = 1
	MaxRank = 40
)

var rankTable = buildRankTable()

// buildRankTable interpolates the full 1..40 table from the observed data
// points. Penalties grow roughly linearly through Silver, then steepen tier
// by tier until they are exponential from Diamond up.
func buildRankTable() map[int]RankRewards {
	ranks := make(map[int]RankRewards, MaxRank)

	// Bronze, ranks 1-5: linear.
	for i := 0; i < 5; i++ {
		ranks[1+i] = RankRewards{
			Rank: 1 + i, TierName: "Bronze", TierLevel: i + 1,
			QupPerFlip:   100,
			QdownPerFlip: -100 - i*25,
			XPWin:        100 + i*30,
			XPLoss:       45 + int(float64(i)*13.5),
			GoldWin:      60 + i*18,
		}
	}

	// Silver, ranks 6-10.
	silverQdown := []int{-500, -650, -800, -950, -1200}
	for i := 0; i < 5; i++ {
		ranks[6+i] = RankRewards{
			Rank: 6 + i, TierName: "Silver", TierLevel: i + 1,
			QupPerFlip:   100,
			QdownPerFlip: silverQdown[i],
			XPWin:        300 + i*75,
			XPLoss:       135 + i*23,
			GoldWin:      180 + i*45,
		}
	}

	// Gold, ranks 11-15: observed values.
	goldQdown := []int{-2750, -3500, -4500, -6000, -7500}
	goldXPWin := []int{750, 875, 1000, 1150, 1325}
	goldXPLoss := []int{338, 394, 450, 518, 596}
	goldGold := []int{450, 525, 600, 690, 795}
	for i := 0; i < 5; i++ {
		ranks[11+i] = RankRewards{
			Rank: 11 + i, TierName: "Gold", TierLevel: i + 1,
			QupPerFlip:   100,
			QdownPerFlip: goldQdown[i],
			XPWin:        goldXPWin[i],
			XPLoss:       goldXPLoss[i],
			GoldWin:      goldGold[i],
		}
	}

	// Platinum, ranks 16-20: observed values.
	platQdown := []int{-15000, -22500, -32500, -42500, -57500}
	platXPWin := []int{1500, 1700, 1900, 2100, 2350}
	platXPLoss := []int{675, 765, 855, 945, 1057}
	platGold := []int{900, 1020, 1140, 1260, 1410}
	for i := 0; i < 5; i++ {
		ranks[16+i] = RankRewards{
			Rank: 16 + i, TierName: "Platinum", TierLevel: i + 1,
			QupPerFlip:   100,
			QdownPerFlip: platQdown[i],
			XPWin:        platXPWin[i],
			XPLoss:       platXPLoss[i],
			GoldWin:      platGold[i],
		}
	}

	// Diamond, ranks 21-25: exponential growth begins.
	for i := 0; i < 5; i++ {
		ranks[21+i] = RankRewards{
			Rank: 21 + i, TierName: "Diamond", TierLevel: i + 1,
			QupPerFlip:   100,
			QdownPerFlip: int(-75000 * pow(1.3, i)),
			XPWin:        2600 + i*300,
			XPLoss:       1170 + i*130,
			GoldWin:      1560 + i*180,
		}
	}

	// Master, ranks 26-30.
	for i := 0; i < 5; i++ {
		ranks[26+i] = RankRewards{
			Rank: 26 + i, TierName: "Master", TierLevel: i + 1,
			QupPerFlip:   100,
			QdownPerFlip: int(-200000 * pow(1.35, i)),
			XPWin:        4100 + i*400,
			XPLoss:       1845 + i*180,
			GoldWin:      2460 + i*240,
		}
	}

	// Grandmaster, ranks 31-35.
	for i := 0; i < 5; i++ {
		ranks[31+i] = RankRewards{
			Rank: 31 + i, TierName: "Grandmaster", TierLevel: i + 1,
			QupPerFlip:   100,
			QdownPerFlip: int(-700000 * pow(1.4, i)),
			XPWin:        6000 + i*500,
			XPLoss:       2700 + i*225,
			GoldWin:      3600 + i*300,
		}
	}

	// Legend, ranks 36-40.
	for i := 0; i < 5; i++ {
		ranks[36+i] = RankRewards{
			Rank: 36 + i, TierName: "Legend", TierLevel: i + 1,
			QupPerFlip:   100,
			QdownPerFlip: int(-2000000 * pow(1.5, i)),
			XPWin:        8500 + i*600,
			XPLoss:       3825 + i*270,
			GoldWin:      5100 + i*360,
		}
	}

	return ranks
}

// RankFor returns the rewards table entry for a rank, clamping below MinRank
// and extrapolating exponentially beyond MaxRank.
func RankFor(rank int) RankRewards {
	if rank < MinRank {
		rank = MinRank
	}
	if rank > MaxRank {
		base := rankTable[MaxRank]
		m := pow(1.5, rank-MaxRank)
		return RankRewards{
			Rank: rank, TierName: "Legend", TierLevel: 5 + (rank - MaxRank),
			QupPerFlip:   base.QupPerFlip,
			QdownPerFlip: int(float64(base.QdownPerFlip) * m),
			XPWin:        int(float64(base.XPWin) * m),
			XPLoss:       int(float64(base.XPLoss) * m),
			GoldWin:      int(float64(base.GoldWin) * m),
		}
	}
	return rankTable[rank]
}

func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
