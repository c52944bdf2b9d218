package join

import (
	"fmt"
	"time"

	"spatialgrid/internal/model"
)

type NaiveStats struct {
	SizeA        int           `json:"size_a"`
	SizeB        int           `json:"size_b"`
	PairsChecked int           `json:"pairs_checked"`
	PairsMatched int           `json:"pairs_matched"`
	Elapsed      time.Duration `json:"elapsed"`
}

func (s NaiveStats) String() string {
	return fmt.Sprintf("Naive join of %d x %d objects\nPairs checked: %d\nPairs matched: %d\nElapsed: %s\n",
		s.SizeA, s.SizeB, s.PairsChecked, s.PairsMatched, s.Elapsed)
}

// Naive tests every object of a against every object of b
func Naive(a, b []model.MBR) ([]Pair, NaiveStats) {
	start := time.Now()
	stats := NaiveStats{SizeA: len(a), SizeB: len(b)}

	var pairs []Pair
	for _, ra := range a {
		for _, rb := range b {
			stats.PairsChecked++
			if ra.Intersects(rb) {
				pairs = append(pairs, Pair{A: ra, B: rb})
			}
		}
	}

	stats.PairsMatched = len(pairs)
	stats.Elapsed = time.Since(start)
	return pairs, stats
}
