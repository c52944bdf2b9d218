package export

import (
	"bufio"
	"fmt"
	"io"

	"spatialgrid/internal/join"
	"spatialgrid/internal/knn"
	"spatialgrid/internal/model"
)

// WriteNeighbors writes one "id<TAB>distance" line per neighbour
func WriteNeighbors(w io.Writer, neighbors []knn.Neighbor) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Dataset_ID\tDistance")
	for _, n := range neighbors {
		fmt.Fprintf(bw, "%s\t%.4f\n", n.Object.ID, n.Distance)
	}
	return bw.Flush()
}

// WritePairs writes one "idA<TAB>idB" line per joined pair
func WritePairs(w io.Writer, pairs []join.Pair) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Dataset_A_ID\tDataset_B_ID")
	for _, p := range pairs {
		fmt.Fprintf(bw, "%s\t%s\n", p.A.ID, p.B.ID)
	}
	return bw.Flush()
}

// WriteObjects writes one line per object with its bounds
func WriteObjects(w io.Writer, objects []model.MBR) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "ID\txmin\tymin\txmax\tymax")
	for _, o := range objects {
		fmt.Fprintf(bw, "%s\t%g\t%g\t%g\t%g\n", o.ID, o.XMin, o.YMin, o.XMax, o.YMax)
	}
	return bw.Flush()
}
