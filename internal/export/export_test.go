package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"

	"spatialgrid/internal/grid"
	"spatialgrid/internal/join"
	"spatialgrid/internal/knn"
	"spatialgrid/internal/model"
)

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	err := WriteNeighbors(&buf, []knn.Neighbor{
		{Object: model.NewMBR("R1", 0, 0, 1, 1), Distance: 0},
		{Object: model.NewMBR("R3", 4, 4, 9, 9), Distance: 4.949747},
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := "Dataset_ID\tDistance\nR1\t0.0000\nR3\t4.9497\n"; buf.String() != want {
		t.Errorf("WriteNeighbors = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	err = WritePairs(&buf, []join.Pair{{A: model.NewMBR("a", 0, 0, 2, 2), B: model.NewMBR("b", 1, 1, 3, 3)}})
	if err != nil {
		t.Fatal(err)
	}
	if want := "Dataset_A_ID\tDataset_B_ID\na\tb\n"; buf.String() != want {
		t.Errorf("WritePairs = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := WriteObjects(&buf, []model.MBR{model.NewMBR("s", 0, 0.5, 1, 1.25)}); err != nil {
		t.Fatal(err)
	}
	if want := "ID\txmin\tymin\txmax\tymax\ns\t0\t0.5\t1\t1.25\n"; buf.String() != want {
		t.Errorf("WriteObjects = %q, want %q", buf.String(), want)
	}
}

func TestObjectsGeoJSON(t *testing.T) {
	fc := ObjectsGeoJSON([]model.MBR{
		model.NewMBR("box", 0, 0, 2, 1),
		model.NewMBR("pt", 3, 3, 3, 3),
	})
	if len(fc.Features) != 2 {
		t.Fatalf("got %d features", len(fc.Features))
	}
	poly, ok := fc.Features[0].Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("box geometry is %T", fc.Features[0].Geometry)
	}
	if b := poly.Bound(); b.Min != (orb.Point{0, 0}) || b.Max != (orb.Point{2, 1}) {
		t.Errorf("box bound = %v", b)
	}
	if _, ok := fc.Features[1].Geometry.(orb.Point); !ok {
		t.Errorf("point geometry is %T", fc.Features[1].Geometry)
	}
	if fc.Features[1].Properties["id"] != "pt" {
		t.Errorf("properties = %v", fc.Features[1].Properties)
	}

	if _, err := json.Marshal(fc); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestNeighborsAndPairsGeoJSON(t *testing.T) {
	fc := NeighborsGeoJSON(5, 5, []knn.Neighbor{{Object: model.NewMBR("R3", 4, 4, 9, 9), Distance: 0}})
	if len(fc.Features) != 2 || fc.Features[1].Properties["role"] != "query" {
		t.Fatalf("unexpected features %v", fc.Features)
	}
	if fc.Features[0].Properties["rank"] != 1 {
		t.Errorf("rank = %v", fc.Features[0].Properties["rank"])
	}

	fc = PairsGeoJSON([]join.Pair{{A: model.NewMBR("a", 0, 0, 2, 2), B: model.NewMBR("b", 1, 1, 3, 3)}})
	poly := fc.Features[0].Geometry.(orb.Polygon)
	if b := poly.Bound(); b.Min != (orb.Point{1, 1}) || b.Max != (orb.Point{2, 2}) {
		t.Errorf("intersection bound = %v", b)
	}
}

func TestGridGeoJSON(t *testing.T) {
	g := grid.New(0, 0, 10, 10, 2)
	g.Load(grid.LabelA, []model.MBR{model.NewMBR("a", 1, 1, 2, 2)})

	fc := GridGeoJSON(g)
	if len(fc.Features) != 4 {
		t.Fatalf("got %d cells", len(fc.Features))
	}
	counts := fc.Features[0].Properties["counts"].(map[string]int)
	if counts[grid.LabelA] != 1 {
		t.Errorf("cell (0,0) counts = %v", counts)
	}
}
