package knn

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"spatialgrid/internal/model"
)

// LinearScan answers k-NN by measuring every object of one dataset
type LinearScan struct {
	data []model.MBR
}

// LinearStats summarizes one linear scan
type LinearStats struct {
	QueryX  float64       `json:"query_x"`
	QueryY  float64       `json:"query_y"`
	K       int           `json:"k"`
	Records int           `json:"records"`
	Results int           `json:"results"`
	Elapsed time.Duration `json:"elapsed"`
}

func (s LinearStats) String() string {
	return fmt.Sprintf("Linear scan k-NN query at (%g, %g), k=%d\nRecords scanned: %d\nResults: %d\nElapsed: %s\n",
		s.QueryX, s.QueryY, s.K, s.Records, s.Results, s.Elapsed)
}

func NewLinearScan(data []model.MBR) *LinearScan {
	owned := make([]model.MBR, len(data))
	copy(owned, data)
	return &LinearScan{data: owned}
}

// Len returns the number of records
func (l *LinearScan) Len() int {
	return len(l.data)
}

// KNN returns the k objects with the smallest distance to (qx, qy), measured
// to the closest point of each rectangle. Ties keep dataset order.
func (l *LinearScan) KNN(qx, qy float64, k int) ([]Neighbor, LinearStats) {
	start := time.Now()
	stats := LinearStats{QueryX: qx, QueryY: qy, K: max(k, 0), Records: len(l.data)}
	if k <= 0 {
		stats.Elapsed = time.Since(start)
		return nil, stats
	}

	all := make([]Neighbor, len(l.data))
	for i, o := range l.data {
		all[i] = Neighbor{Object: o, Distance: o.DistanceToPoint(qx, qy)}
	}
	slices.SortStableFunc(all, func(a, b Neighbor) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	result := all[:min(k, len(all))]
	stats.Results = len(result)
	stats.Elapsed = time.Since(start)
	return result, stats
}
