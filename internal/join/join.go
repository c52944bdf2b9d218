package join

import (
	"errors"
	"fmt"
	"strings"

	"spatialgrid/internal/grid"
	"spatialgrid/internal/model"
)

var ErrUnknownAlgorithm = errors.New("unknown join algorithm")

// Pair is one intersecting pair, A from the first dataset and B from the second
type Pair struct {
	A model.MBR `json:"a"`
	B model.MBR `json:"b"`
}

// Intersection returns the overlapping rectangle of the pair
func (p Pair) Intersection() model.MBR {
	r, _ := p.A.Intersection(p.B)
	return r
}

// Algorithm names one of the interchangeable join strategies
type Algorithm string

const (
	AlgorithmNaive Algorithm = "naive"
	AlgorithmSweep Algorithm = "sweep"
	AlgorithmPBSM  Algorithm = "pbsm"
)

// Algorithms lists every supported algorithm
var Algorithms = []Algorithm{AlgorithmNaive, AlgorithmSweep, AlgorithmPBSM}

func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "naive", "nested-loop":
		return AlgorithmNaive, nil
	case "sweep", "plane-sweep", "planesweep":
		return AlgorithmSweep, nil
	case "", "pbsm", "grid":
		return AlgorithmPBSM, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Run joins the datasets loaded under grid.LabelA and grid.LabelB with alg.
// Naive and PlaneSweep read the datasets, PBSM reads the cells.
func Run(alg Algorithm, g *grid.Grid, opts PBSMOptions) ([]Pair, fmt.Stringer, error) {
	switch alg {
	case AlgorithmNaive:
		pairs, stats := Naive(g.Dataset(grid.LabelA), g.Dataset(grid.LabelB))
		return pairs, stats, nil
	case AlgorithmSweep:
		pairs, stats := PlaneSweep(g.Dataset(grid.LabelA), g.Dataset(grid.LabelB))
		return pairs, stats, nil
	case AlgorithmPBSM:
		pairs, stats := PBSM(g, opts)
		return pairs, stats, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(alg))
}
