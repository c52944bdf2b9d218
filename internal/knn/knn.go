package knn

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/tinyqueue"

	"spatialgrid/internal/config"
	"spatialgrid/internal/grid"
	"spatialgrid/internal/model"
)

// Metric selects how the grid search measures the distance of an object
type Metric int

const (
	// CornerDistance measures the distance to the object's minimum corner (XMin, YMin)
	CornerDistance Metric = iota
	// BoxDistance measures the distance to the closest point of the object
	BoxDistance
)

func (m Metric) String() string {
	switch m {
	case BoxDistance:
		return "box"
	default:
		return "corner"
	}
}

// ParseMetric parses "corner" or "box", an empty name selects CornerDistance
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "corner":
		return CornerDistance, nil
	case "box", "mbr":
		return BoxDistance, nil
	}
	return CornerDistance, fmt.Errorf("unknown distance metric %q", name)
}

func (m Metric) squared(o model.MBR, qx, qy float64) float64 {
	if m == BoxDistance {
		return o.MinDistSquared(qx, qy)
	}
	return model.SquaredDistance(o.XMin, o.YMin, qx, qy)
}

// Options tune a grid search. Zero values select the defaults.
type Options struct {
	Label   string
	MaxHops int
	Metric  Metric
}

func (o Options) withDefaults() Options {
	if o.Label == "" {
		o.Label = grid.DefaultLabel
	}
	if o.MaxHops <= 0 {
		o.MaxHops = config.DefaultMaxHops
	}
	return o
}

// Neighbor is one k-NN result with its Euclidean distance to the query point
type Neighbor struct {
	Object   model.MBR `json:"object"`
	Distance float64   `json:"distance"`
}

// Stats summarizes one grid search
type Stats struct {
	QueryX  float64       `json:"query_x"`
	QueryY  float64       `json:"query_y"`
	K       int           `json:"k"`
	Label   string        `json:"label"`
	Metric  string        `json:"metric"`
	Elapsed time.Duration `json:"elapsed"`

	ObjectsExamined       int `json:"objects_examined"`
	NeighborCellsExamined int `json:"neighbor_cells_examined"`
	CellsScanned          int `json:"cells_scanned"`
	HopsExpanded          int `json:"hops_expanded"`
	Results               int `json:"results"`

	// Message explains an empty answer
	Message string `json:"message,omitempty"`
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grid k-NN query at (%g, %g), k=%d, dataset %q, %s distance\n", s.QueryX, s.QueryY, s.K, s.Label, s.Metric)
	if s.Message != "" {
		fmt.Fprintf(&b, "%s\n", s.Message)
	}
	fmt.Fprintf(&b, "Objects examined: %d\n", s.ObjectsExamined)
	fmt.Fprintf(&b, "Neighbor cells examined: %d\n", s.NeighborCellsExamined)
	fmt.Fprintf(&b, "Cells scanned: %d\n", s.CellsScanned)
	fmt.Fprintf(&b, "Hops expanded: %d\n", s.HopsExpanded)
	fmt.Fprintf(&b, "Results: %d\n", s.Results)
	fmt.Fprintf(&b, "Elapsed: %s\n", s.Elapsed)
	return b.String()
}

// candidate is kept in a max-heap: the worst held candidate is on top
type candidate struct {
	handle int
	dist   float64
	seq    int
}

func (c *candidate) Less(b tinyqueue.Item) bool {
	o := b.(*candidate)
	if c.dist != o.dist {
		return c.dist > o.dist
	}
	return c.seq > o.seq
}

// bestK holds the k closest candidates seen so far
type bestK struct {
	k     int
	seq   int
	queue *tinyqueue.Queue
}

func newBestK(k int) *bestK {
	return &bestK{k: k, queue: tinyqueue.New(nil)}
}

func (b *bestK) offer(handle int, dist float64) {
	b.seq++
	if b.queue.Len() < b.k {
		b.queue.Push(&candidate{handle: handle, dist: dist, seq: b.seq})
		return
	}
	if dist < b.queue.Peek().(*candidate).dist {
		b.queue.Pop()
		b.queue.Push(&candidate{handle: handle, dist: dist, seq: b.seq})
	}
}

// threshold is the k-th best squared distance, +Inf until k candidates are held
func (b *bestK) threshold() float64 {
	if b.queue.Len() < b.k {
		return math.Inf(1)
	}
	return b.queue.Peek().(*candidate).dist
}

// sorted drains the heap, closest first, ties in insertion order
func (b *bestK) sorted() []*candidate {
	result := make([]*candidate, 0, b.queue.Len())
	for b.queue.Len() > 0 {
		result = append(result, b.queue.Pop().(*candidate))
	}
	slices.SortFunc(result, func(x, y *candidate) int {
		if c := cmp.Compare(x.dist, y.dist); c != 0 {
			return c
		}
		return cmp.Compare(x.seq, y.seq)
	})
	return result
}

// Search finds the k objects of opts.Label closest to (qx, qy) by expanding
// square rings of cells around the query cell. A ring cell is scanned only
// when it may hold an object closer than the current k-th best, and the
// expansion stops at the first ring without such a cell.
func Search(g *grid.Grid, qx, qy float64, k int, opts Options) ([]Neighbor, Stats) {
	start := time.Now()
	opts = opts.withDefaults()
	stats := Stats{
		QueryX: qx,
		QueryY: qy,
		K:      max(k, 0),
		Label:  opts.Label,
		Metric: opts.Metric.String(),
	}
	done := func(result []Neighbor) ([]Neighbor, Stats) {
		stats.Results = len(result)
		stats.Elapsed = time.Since(start)
		return result, stats
	}

	if k <= 0 {
		stats.Message = "k is not positive, nothing to search"
		return done(nil)
	}

	cell, ok := g.FindCell(qx, qy)
	if !ok {
		b := g.Bounds()
		if g.M() == 0 {
			stats.Message = "the grid has no cells"
		} else {
			stats.Message = fmt.Sprintf("query point (%g, %g) is outside the grid bounds [%g, %g] x [%g, %g]",
				qx, qy, b.XMin, b.XMax, b.YMin, b.YMax)
		}
		return done(nil)
	}

	data := g.Dataset(opts.Label)
	best := newBestK(k)
	processed := make(map[int]bool)

	scan := func(c *grid.Cell) {
		stats.CellsScanned++
		for _, h := range c.Handles(opts.Label) {
			if processed[h] {
				continue
			}
			processed[h] = true
			stats.ObjectsExamined++
			best.offer(h, opts.Metric.squared(data[h], qx, qy))
		}
	}

	scan(cell)

	for hop := 1; hop <= opts.MaxHops; hop++ {
		ring := g.FindCellsAtHop(qx, qy, hop)
		if len(ring) == 0 {
			break
		}
		stats.HopsExpanded = hop

		promising := false
		for _, c := range ring {
			stats.NeighborCellsExamined++
			if c.Bounds.MinDistSquared(qx, qy) < best.threshold() {
				promising = true
				scan(c)
			}
		}
		if !promising {
			break
		}
	}

	held := best.sorted()
	result := make([]Neighbor, len(held))
	for i, c := range held {
		result[i] = Neighbor{Object: data[c.handle], Distance: math.Sqrt(c.dist)}
	}
	if len(result) == 0 {
		stats.Message = fmt.Sprintf("no objects of dataset %q within %d hops", opts.Label, opts.MaxHops)
	}
	return done(result)
}
