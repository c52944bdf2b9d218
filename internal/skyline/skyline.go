package skyline

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"spatialgrid/internal/grid"
	"spatialgrid/internal/model"
)

// Dimensions extracts the compared coordinates of an object. Smaller is better
// on every coordinate.
type Dimensions struct {
	Name   string
	Coords func(model.MBR) []float64
	// CellLowerBound returns coordinates no greater than those of any object
	// inside the cell. Nil disables cell pruning.
	CellLowerBound func(cell model.MBR) []float64
}

// Corner2D compares objects by their minimum corner (XMin, YMin)
var Corner2D = Dimensions{
	Name: "corner-2d",
	Coords: func(m model.MBR) []float64 {
		return []float64{m.XMin, m.YMin}
	},
	CellLowerBound: func(cell model.MBR) []float64 {
		return []float64{cell.XMin, cell.YMin}
	},
}

// Bounds4D compares objects by all four bounds
var Bounds4D = Dimensions{
	Name: "bounds-4d",
	Coords: func(m model.MBR) []float64 {
		return []float64{m.XMin, m.YMin, m.XMax, m.YMax}
	},
	CellLowerBound: func(cell model.MBR) []float64 {
		return []float64{cell.XMin, cell.YMin, cell.XMin, cell.YMin}
	},
}

// DimensionsFor returns the preset comparing n coordinates
func DimensionsFor(n int) (Dimensions, error) {
	switch n {
	case 2:
		return Corner2D, nil
	case 4:
		return Bounds4D, nil
	}
	return Dimensions{}, fmt.Errorf("no skyline preset with %d dimensions", n)
}

// Dominates reports whether p is no greater than q everywhere and smaller somewhere
func Dominates(p, q []float64) bool {
	strictly := false
	for i := range p {
		if p[i] > q[i] {
			return false
		}
		if p[i] < q[i] {
			strictly = true
		}
	}
	return strictly
}

type Stats struct {
	Label           string        `json:"label"`
	Dimensions      string        `json:"dimensions"`
	ActiveCells     int           `json:"active_cells"`
	SkippedCells    int           `json:"skipped_cells"`
	ProcessedCells  int           `json:"processed_cells"`
	ObjectsExamined int           `json:"objects_examined"`
	SkylineSize     int           `json:"skyline_size"`
	Elapsed         time.Duration `json:"elapsed"`

	// Message explains an empty answer
	Message string `json:"message,omitempty"`
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Skyline query on dataset %q, %s\n", s.Label, s.Dimensions)
	if s.Message != "" {
		fmt.Fprintf(&b, "%s\n", s.Message)
	}
	fmt.Fprintf(&b, "Active cells: %d\n", s.ActiveCells)
	fmt.Fprintf(&b, "Skipped cells: %d\n", s.SkippedCells)
	fmt.Fprintf(&b, "Processed cells: %d\n", s.ProcessedCells)
	fmt.Fprintf(&b, "Objects examined: %d\n", s.ObjectsExamined)
	fmt.Fprintf(&b, "Skyline size: %d\n", s.SkylineSize)
	fmt.Fprintf(&b, "Elapsed: %s\n", s.Elapsed)
	return b.String()
}

type member struct {
	handle int
	coords []float64
}

// window is the running skyline set
type window struct {
	members []member
}

func (w *window) dominated(coords []float64) bool {
	for _, m := range w.members {
		if Dominates(m.coords, coords) {
			return true
		}
	}
	return false
}

// offer adds the object unless a member dominates it, evicting members it dominates
func (w *window) offer(handle int, coords []float64) {
	if w.dominated(coords) {
		return
	}
	w.members = slices.DeleteFunc(w.members, func(m member) bool {
		return Dominates(coords, m.coords)
	})
	w.members = append(w.members, member{handle: handle, coords: coords})
}

// Query computes the skyline of the dataset loaded under label. Active cells
// are visited by ascending lower-left corner and a cell whose lower bound is
// already dominated is skipped with all its objects.
//
// Pruning assumes objects lie inside the grid bounds: an object sticking out
// below or left of the grid can be smaller than the lower bound of its cell.
func Query(g *grid.Grid, label string, dims Dimensions) ([]model.MBR, Stats) {
	start := time.Now()
	stats := Stats{Label: label, Dimensions: dims.Name}

	if !g.HasDataset(label) {
		stats.Message = fmt.Sprintf("dataset %q not loaded", label)
		stats.Elapsed = time.Since(start)
		return nil, stats
	}

	var active []*grid.Cell
	for _, c := range g.Cells() {
		if c.HasLabel(label) {
			active = append(active, c)
		}
	}
	slices.SortStableFunc(active, func(a, b *grid.Cell) int {
		if c := cmp.Compare(a.Bounds.XMin, b.Bounds.XMin); c != 0 {
			return c
		}
		return cmp.Compare(a.Bounds.YMin, b.Bounds.YMin)
	})
	stats.ActiveCells = len(active)

	data := g.Dataset(label)
	var w window
	processed := make(map[int]bool)
	for _, c := range active {
		if dims.CellLowerBound != nil && w.dominated(dims.CellLowerBound(c.Bounds)) {
			stats.SkippedCells++
			continue
		}
		stats.ProcessedCells++

		for _, h := range c.Handles(label) {
			if processed[h] {
				continue
			}
			processed[h] = true
			stats.ObjectsExamined++
			w.offer(h, dims.Coords(data[h]))
		}
	}

	result := make([]model.MBR, len(w.members))
	for i, m := range w.members {
		result[i] = data[m.handle]
	}
	stats.SkylineSize = len(result)
	stats.Elapsed = time.Since(start)
	return result, stats
}

// QueryDataset computes the skyline of a plain dataset without cell pruning
func QueryDataset(data []model.MBR, dims Dimensions) ([]model.MBR, Stats) {
	start := time.Now()
	stats := Stats{Dimensions: dims.Name}

	var w window
	for h, o := range data {
		stats.ObjectsExamined++
		w.offer(h, dims.Coords(o))
	}

	result := make([]model.MBR, len(w.members))
	for i, m := range w.members {
		result[i] = data[m.handle]
	}
	stats.SkylineSize = len(result)
	stats.Elapsed = time.Since(start)
	return result, stats
}
