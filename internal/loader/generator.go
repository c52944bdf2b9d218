package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"spatialgrid/internal/model"
)

// Generator produces uniformly distributed rectangles inside Bounds
type Generator struct {
	Bounds    model.MBR
	MaxWidth  float64
	MaxHeight float64
	Rand      *rand.Rand
}

// Generate returns n rectangles with IDs prefix1..prefixN. Width and height are
// drawn from [0, MaxWidth] and [0, MaxHeight] and capped at the extent of Bounds,
// so every rectangle lies inside Bounds.
func (g Generator) Generate(n int, prefix string) []model.MBR {
	rng := g.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	spanX := max(g.Bounds.XMax-g.Bounds.XMin, 0)
	spanY := max(g.Bounds.YMax-g.Bounds.YMin, 0)

	data := make([]model.MBR, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		w := min(rng.Float64()*max(g.MaxWidth, 0), spanX)
		h := min(rng.Float64()*max(g.MaxHeight, 0), spanY)

		xmin := g.Bounds.XMin + rng.Float64()*(spanX-w)
		ymin := g.Bounds.YMin + rng.Float64()*(spanY-h)

		data = append(data, model.NewMBR(fmt.Sprintf("%s%d", prefix, i), xmin, ymin, xmin+w, ymin+h))
	}
	return data
}

// WriteCSV writes records in the format read by ParseCSV, with a header line
func WriteCSV(w io.Writer, data []model.MBR) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ID", "xmin", "ymin", "xmax", "ymax"}); err != nil {
		return err
	}
	for _, m := range data {
		record := []string{
			m.ID,
			strconv.FormatFloat(m.XMin, 'g', -1, 64),
			strconv.FormatFloat(m.YMin, 'g', -1, 64),
			strconv.FormatFloat(m.XMax, 'g', -1, 64),
			strconv.FormatFloat(m.YMax, 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
