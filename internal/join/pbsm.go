package join

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sourcegraph/conc/iter"

	"spatialgrid/internal/grid"
)

// PBSMOptions tune the partitioned join
type PBSMOptions struct {
	// Workers bounds the goroutines comparing cells, 0 means GOMAXPROCS
	Workers int
}

type PBSMStats struct {
	TotalCells        int           `json:"total_cells"`
	SkippedCells      int           `json:"skipped_cells"`
	ProcessedCells    int           `json:"processed_cells"`
	PairsChecked      int           `json:"pairs_checked"`
	PairsMatched      int           `json:"pairs_matched"`
	DuplicatesDropped int           `json:"duplicates_dropped"`
	Workers           int           `json:"workers"`
	Elapsed           time.Duration `json:"elapsed"`

	// Message explains an empty answer
	Message string `json:"message,omitempty"`
}

func (s PBSMStats) String() string {
	var b strings.Builder
	b.WriteString("PBSM join\n")
	if s.Message != "" {
		fmt.Fprintf(&b, "%s\n", s.Message)
	}
	fmt.Fprintf(&b, "Total cells: %d\n", s.TotalCells)
	fmt.Fprintf(&b, "Skipped cells: %d\n", s.SkippedCells)
	fmt.Fprintf(&b, "Processed cells: %d\n", s.ProcessedCells)
	fmt.Fprintf(&b, "Pairs checked: %d\n", s.PairsChecked)
	fmt.Fprintf(&b, "Pairs matched: %d\n", s.PairsMatched)
	fmt.Fprintf(&b, "Duplicates dropped: %d\n", s.DuplicatesDropped)
	fmt.Fprintf(&b, "Workers: %d\n", s.Workers)
	fmt.Fprintf(&b, "Elapsed: %s\n", s.Elapsed)
	return b.String()
}

// handlePair identifies a match by the handles of both objects
type handlePair [2]int

type cellMatches struct {
	pairs   []handlePair
	checked int
}

// PBSM joins grid.LabelA with grid.LabelB cell by cell. Only cells holding
// objects of both labels are compared, and a pair found in several shared
// cells is reported once.
func PBSM(g *grid.Grid, opts PBSMOptions) ([]Pair, PBSMStats) {
	start := time.Now()
	stats := PBSMStats{TotalCells: len(g.Cells())}

	var missing []string
	for _, label := range []string{grid.LabelA, grid.LabelB} {
		if !g.HasDataset(label) {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		stats.Message = fmt.Sprintf("dataset %s not loaded, load both %s and %s before joining",
			strings.Join(missing, " and "), grid.LabelA, grid.LabelB)
		stats.Elapsed = time.Since(start)
		return nil, stats
	}

	var shared []*grid.Cell
	for _, c := range g.Cells() {
		if c.HasLabel(grid.LabelA) && c.HasLabel(grid.LabelB) {
			shared = append(shared, c)
		} else {
			stats.SkippedCells++
		}
	}
	stats.ProcessedCells = len(shared)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	stats.Workers = workers

	a, b := g.Dataset(grid.LabelA), g.Dataset(grid.LabelB)
	mapper := iter.Mapper[*grid.Cell, cellMatches]{MaxGoroutines: workers}
	perCell := mapper.Map(shared, func(c **grid.Cell) cellMatches {
		var m cellMatches
		for _, ha := range (*c).Handles(grid.LabelA) {
			for _, hb := range (*c).Handles(grid.LabelB) {
				m.checked++
				if a[ha].Intersects(b[hb]) {
					m.pairs = append(m.pairs, handlePair{ha, hb})
				}
			}
		}
		return m
	})

	seen := make(map[handlePair]bool)
	var pairs []Pair
	for _, m := range perCell {
		stats.PairsChecked += m.checked
		for _, hp := range m.pairs {
			if seen[hp] {
				stats.DuplicatesDropped++
				continue
			}
			seen[hp] = true
			pairs = append(pairs, Pair{A: a[hp[0]], B: b[hp[1]]})
		}
	}

	stats.PairsMatched = len(pairs)
	stats.Elapsed = time.Since(start)
	return pairs, stats
}
