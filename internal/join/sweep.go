package join

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"spatialgrid/internal/model"
)

type SweepStats struct {
	SizeA        int           `json:"size_a"`
	SizeB        int           `json:"size_b"`
	Events       int           `json:"events"`
	PairsChecked int           `json:"pairs_checked"`
	PairsMatched int           `json:"pairs_matched"`
	Elapsed      time.Duration `json:"elapsed"`
}

func (s SweepStats) String() string {
	return fmt.Sprintf("Plane sweep join of %d x %d objects\nEvents: %d\nPairs checked: %d\nPairs matched: %d\nElapsed: %s\n",
		s.SizeA, s.SizeB, s.Events, s.PairsChecked, s.PairsMatched, s.Elapsed)
}

const (
	sideA = 0
	sideB = 1
)

type event struct {
	x     float64
	start bool
	side  int
	index int
}

// compareEvents orders by x, starts before ends, A before B, then dataset order.
// Processing starts first keeps rectangles touching on x in the active lists.
func compareEvents(p, q event) int {
	if c := cmp.Compare(p.x, q.x); c != 0 {
		return c
	}
	if p.start != q.start {
		if p.start {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(p.side, q.side); c != 0 {
		return c
	}
	return cmp.Compare(p.index, q.index)
}

// PlaneSweep sweeps a vertical line along x and only tests rectangles whose
// x intervals overlap the line at the same time
func PlaneSweep(a, b []model.MBR) ([]Pair, SweepStats) {
	start := time.Now()
	stats := SweepStats{SizeA: len(a), SizeB: len(b)}

	data := [2][]model.MBR{a, b}
	events := make([]event, 0, 2*(len(a)+len(b)))
	for side, set := range data {
		for i, r := range set {
			events = append(events,
				event{x: r.XMin, start: true, side: side, index: i},
				event{x: r.XMax, start: false, side: side, index: i},
			)
		}
	}
	slices.SortFunc(events, compareEvents)
	stats.Events = len(events)

	var (
		active [2][]int
		pairs  []Pair
	)
	for _, e := range events {
		if !e.start {
			if pos := slices.Index(active[e.side], e.index); pos >= 0 {
				active[e.side] = slices.Delete(active[e.side], pos, pos+1)
			}
			continue
		}

		r := data[e.side][e.index]
		other := 1 - e.side
		for _, j := range active[other] {
			o := data[other][j]
			stats.PairsChecked++
			if !r.Intersects(o) {
				continue
			}
			if e.side == sideA {
				pairs = append(pairs, Pair{A: r, B: o})
			} else {
				pairs = append(pairs, Pair{A: o, B: r})
			}
		}
		active[e.side] = append(active[e.side], e.index)
	}

	stats.PairsMatched = len(pairs)
	stats.Elapsed = time.Since(start)
	return pairs, stats
}
