package grid

import "spatialgrid/internal/model"

// LabelSummary describes how one dataset is spread over the cells
type LabelSummary struct {
	Objects    int `json:"objects"`
	Cells      int `json:"cells"`
	References int `json:"references"`
	// OutOfBounds counts objects not fully inside the grid bounds. Skyline
	// cell pruning and PBSM may miss results involving them.
	OutOfBounds int `json:"out_of_bounds"`
}

// Summary describes the grid layout and its loaded datasets
type Summary struct {
	Bounds     model.MBR               `json:"bounds"`
	M          int                     `json:"m"`
	CellWidth  float64                 `json:"cell_width"`
	CellHeight float64                 `json:"cell_height"`
	Datasets   map[string]LabelSummary `json:"datasets"`
}

// CountOutside returns how many objects are not fully inside the grid bounds
func (g *Grid) CountOutside(data []model.MBR) int {
	n := 0
	for _, m := range data {
		if m.XMin < g.xl || m.YMin < g.yl || m.XMax > g.xu || m.YMax > g.yu {
			n++
		}
	}
	return n
}

// Summary counts objects, occupied cells and cell references per label
func (g *Grid) Summary() Summary {
	s := Summary{
		Bounds:     g.Bounds(),
		M:          g.m,
		CellWidth:  g.w,
		CellHeight: g.h,
		Datasets:   make(map[string]LabelSummary),
	}

	for _, label := range g.Labels() {
		data := g.Dataset(label)
		ls := LabelSummary{Objects: len(data), OutOfBounds: g.CountOutside(data)}
		for _, cell := range g.Cells() {
			if n := cell.Count(label); n > 0 {
				ls.Cells++
				ls.References += n
			}
		}
		s.Datasets[label] = ls
	}
	return s
}
