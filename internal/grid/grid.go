package grid

import (
	"math"

	"spatialgrid/internal/model"
	"spatialgrid/internal/service/storage"
)

// Well-known dataset labels
const (
	DefaultLabel = "default"
	LabelA       = "A"
	LabelB       = "B"
)

// Grid is a uniform M×M partition of [XL,XU]×[YL,YU].
// Cell (i, j) covers [XL+i·w, XL+(i+1)·w) × [YL+j·h, YL+(j+1)·h), the last
// row and column being closed on their upper bound.
//
// A Grid is not safe for Load concurrent with any other call. Queries only read.
type Grid struct {
	xl, yl, xu, yu float64
	m              int
	w, h           float64

	cells    [][]*Cell
	datasets *storage.MemoryStorage[string, []model.MBR]
}

// New creates a grid over the given bounds with m divisions per axis.
// m <= 0 or an empty extent produces a degenerate grid without cells.
func New(xL, yL, xU, yU float64, m int) *Grid {
	g := &Grid{
		xl:       xL,
		yl:       yL,
		xu:       xU,
		yu:       yU,
		datasets: storage.NewMemoryStorage[string, []model.MBR](),
	}
	if m <= 0 || !(xU > xL) || !(yU > yL) {
		return g
	}

	g.m = m
	g.w = (xU - xL) / float64(m)
	g.h = (yU - yL) / float64(m)
	g.cells = make([][]*Cell, m)
	for i := 0; i < m; i++ {
		g.cells[i] = make([]*Cell, m)
		for j := 0; j < m; j++ {
			g.cells[i][j] = newCell(i, j, model.MBR{
				XMin: xL + float64(i)*g.w,
				YMin: yL + float64(j)*g.h,
				XMax: xL + float64(i+1)*g.w,
				YMax: yL + float64(j+1)*g.h,
			})
		}
		// Close the outer boundary exactly, avoiding float drift
		g.cells[i][m-1].Bounds.YMax = yU
	}
	for j := 0; j < m; j++ {
		g.cells[m-1][j].Bounds.XMax = xU
	}
	return g
}

// M returns the number of divisions per axis, 0 for a degenerate grid
func (g *Grid) M() int {
	return g.m
}

// Bounds returns the region covered by the grid
func (g *Grid) Bounds() model.MBR {
	return model.MBR{XMin: g.xl, YMin: g.yl, XMax: g.xu, YMax: g.yu}
}

// CellSize returns the width and height of one cell
func (g *Grid) CellSize() (float64, float64) {
	return g.w, g.h
}

// Cell returns cell (i, j) or nil when the index is outside the grid
func (g *Grid) Cell(i, j int) *Cell {
	if i < 0 || j < 0 || i >= g.m || j >= g.m {
		return nil
	}
	return g.cells[i][j]
}

// Cells returns all cells ordered by i, then j
func (g *Grid) Cells() []*Cell {
	result := make([]*Cell, 0, g.m*g.m)
	for i := 0; i < g.m; i++ {
		result = append(result, g.cells[i]...)
	}
	return result
}

// Load replaces the dataset stored under label and assigns its objects to cells.
// Records are expected to be valid, the grid does not re-check bounds.
func (g *Grid) Load(label string, data []model.MBR) {
	owned := make([]model.MBR, len(data))
	copy(owned, data)

	for i := 0; i < g.m; i++ {
		for j := 0; j < g.m; j++ {
			g.cells[i][j].clear(label)
		}
	}
	g.datasets.Set(label, owned)
	g.assign(label, owned)
}

// assign adds each object to every cell it overlaps
func (g *Grid) assign(label string, data []model.MBR) {
	if g.m == 0 {
		return
	}

	for handle, mbr := range data {
		// The range is widened by one cell so that a bound lying on a cell
		// edge reaches the neighbour too. Rounding of the division and of the
		// cell bounds can disagree there, the intersects gate decides.
		iMin := max(g.index(mbr.XMin-g.xl, g.w)-1, 0)
		iMax := min(g.index(mbr.XMax-g.xl, g.w)+1, g.m-1)
		jMin := max(g.index(mbr.YMin-g.yl, g.h)-1, 0)
		jMax := min(g.index(mbr.YMax-g.yl, g.h)+1, g.m-1)

		for i := iMin; i <= iMax; i++ {
			for j := jMin; j <= jMax; j++ {
				cell := g.cells[i][j]
				if cell.Bounds.Intersects(mbr) {
					cell.add(label, handle)
				}
			}
		}
	}
}

// index truncates offset/size toward zero and clamps it into [0, M-1]
func (g *Grid) index(offset, size float64) int {
	f := math.Trunc(offset / size)
	if !(f > 0) {
		return 0
	}
	if f > float64(g.m-1) {
		return g.m - 1
	}
	return int(f)
}

// FindCell returns the cell containing (qx, qy). Points on the upper
// boundary of the grid belong to the last row or column.
func (g *Grid) FindCell(qx, qy float64) (*Cell, bool) {
	i, j, ok := g.cellIndex(qx, qy)
	if !ok {
		return nil, false
	}
	return g.cells[i][j], true
}

func (g *Grid) cellIndex(qx, qy float64) (int, int, bool) {
	if g.m == 0 {
		return 0, 0, false
	}
	if qx < g.xl || qx > g.xu || qy < g.yl || qy > g.yu {
		return 0, 0, false
	}
	// NaN passes every comparison above
	if math.IsNaN(qx) || math.IsNaN(qy) {
		return 0, 0, false
	}
	return g.index(qx-g.xl, g.w), g.index(qy-g.yl, g.h), true
}

// FindCellsAtHop returns the cells whose Chebyshev index distance from the
// cell containing (qx, qy) is exactly hop. Indexes outside the grid are dropped.
func (g *Grid) FindCellsAtHop(qx, qy float64, hop int) []*Cell {
	if hop <= 0 {
		return nil
	}
	ci, cj, ok := g.cellIndex(qx, qy)
	if !ok {
		return nil
	}

	var ring []*Cell
	for i := ci - hop; i <= ci+hop; i++ {
		if i < 0 || i >= g.m {
			continue
		}
		for j := cj - hop; j <= cj+hop; j++ {
			if j < 0 || j >= g.m {
				continue
			}
			if max(abs(i-ci), abs(j-cj)) != hop {
				continue
			}
			ring = append(ring, g.cells[i][j])
		}
	}
	return ring
}

// MaxHop returns the largest hop that can still reach a cell from (qx, qy)
func (g *Grid) MaxHop(qx, qy float64) int {
	ci, cj, ok := g.cellIndex(qx, qy)
	if !ok {
		return 0
	}
	last := g.m - 1
	return max(ci, cj, last-ci, last-cj)
}

// Dataset returns the objects loaded under label, empty when unknown.
// The returned slice must not be modified.
func (g *Grid) Dataset(label string) []model.MBR {
	data, _ := g.datasets.Get(label)
	return data
}

// HasDataset reports whether label was loaded
func (g *Grid) HasDataset(label string) bool {
	_, ok := g.datasets.Get(label)
	return ok
}

// Labels returns the loaded labels in ascending order
func (g *Grid) Labels() []string {
	return g.datasets.Keys()
}

// Object resolves a handle of label
func (g *Grid) Object(label string, handle int) model.MBR {
	return g.Dataset(label)[handle]
}

// ObjectByID searches all datasets, labels in ascending order, and returns the first match
func (g *Grid) ObjectByID(id string) (model.MBR, string, bool) {
	var (
		found      model.MBR
		foundLabel string
		ok         bool
	)
	g.datasets.ForEach(func(label string, data []model.MBR) bool {
		for _, mbr := range data {
			if mbr.ID == id {
				found, foundLabel, ok = mbr, label, true
				return false
			}
		}
		return true
	})
	return found, foundLabel, ok
}

// DirtyDatasets returns the datasets loaded since the last MarkPersisted
func (g *Grid) DirtyDatasets() map[string][]model.MBR {
	return g.datasets.GetDirty()
}

// MarkPersisted clears the changed flag of the given labels
func (g *Grid) MarkPersisted(labels []string) {
	g.datasets.ClearDirty(labels)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
