package knn

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sort"
	"strings"
	"testing"

	"spatialgrid/internal/grid"
	"spatialgrid/internal/model"
)

func scenarioGrid() *grid.Grid {
	g := grid.New(0, 0, 10, 10, 2)
	g.Load(grid.DefaultLabel, scenarioData())
	return g
}

func scenarioData() []model.MBR {
	return []model.MBR{
		model.NewMBR("R1", 0, 0, 1, 1),
		model.NewMBR("R2", 6, 6, 7, 7),
		model.NewMBR("R3", 4, 4, 9, 9),
	}
}

func ids(ns []Neighbor) []string {
	var out []string
	for _, n := range ns {
		out = append(out, n.Object.ID)
	}
	return out
}

func TestSearchScenario(t *testing.T) {
	g := scenarioGrid()

	tests := []struct {
		name   string
		x, y   float64
		metric Metric
		wantID string
		dist   float64
	}{
		{"inside R1 box", 0.5, 0.5, BoxDistance, "R1", 0},
		{"inside R1 corner", 0.5, 0.5, CornerDistance, "R1", math.Sqrt(0.5)},
		{"inside R3 box", 5, 5, BoxDistance, "R3", 0},
		{"corner tie keeps insertion order", 5, 5, CornerDistance, "R2", math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stats := Search(g, tt.x, tt.y, 1, Options{Metric: tt.metric})
			if len(got) != 1 {
				t.Fatalf("got %d results: %s", len(got), stats)
			}
			if got[0].Object.ID != tt.wantID {
				t.Errorf("nearest = %s, want %s", got[0].Object.ID, tt.wantID)
			}
			if math.Abs(got[0].Distance-tt.dist) > 1e-12 {
				t.Errorf("distance = %g, want %g", got[0].Distance, tt.dist)
			}
			if stats.Results != 1 || stats.ObjectsExamined == 0 {
				t.Errorf("unexpected stats %+v", stats)
			}
		})
	}
}

func TestSearchExpandsIntoRing(t *testing.T) {
	g := grid.New(0, 0, 10, 10, 2)
	g.Load(grid.DefaultLabel, []model.MBR{model.NewMBR("far", 8, 8, 9, 9)})

	got, stats := Search(g, 1, 1, 1, Options{Metric: BoxDistance})
	if !slices.Equal(ids(got), []string{"far"}) {
		t.Fatalf("got %v", ids(got))
	}
	if stats.HopsExpanded != 1 || stats.NeighborCellsExamined != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestSearchDeduplicatesSpanningObjects(t *testing.T) {
	g := scenarioGrid()
	got, stats := Search(g, 5, 5, 10, Options{})
	if !slices.Equal(ids(got), []string{"R2", "R3", "R1"}) {
		t.Fatalf("got %v", ids(got))
	}
	if stats.ObjectsExamined != 3 {
		t.Errorf("objects examined = %d, want 3", stats.ObjectsExamined)
	}
}

func TestSearchEmptyAnswers(t *testing.T) {
	g := scenarioGrid()

	tests := []struct {
		name    string
		g       *grid.Grid
		x, y    float64
		k       int
		opts    Options
		message string
	}{
		{"zero k", g, 1, 1, 0, Options{}, "not positive"},
		{"negative k", g, 1, 1, -4, Options{}, "not positive"},
		{"outside", g, 11, 1, 3, Options{}, "outside the grid"},
		{"degenerate grid", grid.New(0, 0, 10, 10, 0), 1, 1, 3, Options{}, "no cells"},
		{"unknown label", g, 1, 1, 3, Options{Label: "missing"}, "no objects"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stats := Search(tt.g, tt.x, tt.y, tt.k, tt.opts)
			if len(got) != 0 {
				t.Fatalf("expected no results, got %v", ids(got))
			}
			if !strings.Contains(stats.Message, tt.message) {
				t.Errorf("message %q does not mention %q", stats.Message, tt.message)
			}
			if !strings.Contains(stats.String(), stats.Message) {
				t.Error("statistics text should carry the message")
			}
		})
	}
}

func TestSearchOnGridEdge(t *testing.T) {
	g := scenarioGrid()
	for _, p := range [][2]float64{{10, 10}, {5, 0}, {0, 10}} {
		got, _ := Search(g, p[0], p[1], 1, Options{})
		if len(got) != 1 {
			t.Errorf("point %v on the grid edge returned %d results", p, len(got))
		}
	}
}

func TestSearchTiesFollowInsertionOrder(t *testing.T) {
	g := grid.New(0, 0, 10, 10, 1)
	g.Load(grid.DefaultLabel, []model.MBR{
		model.NewMBR("a", 1, 1, 2, 2),
		model.NewMBR("b", 1, 1, 3, 3),
		model.NewMBR("c", 1, 1, 4, 4),
	})
	got, _ := Search(g, 0, 0, 2, Options{})
	if !slices.Equal(ids(got), []string{"a", "b"}) {
		t.Fatalf("got %v", ids(got))
	}
}

func randomData(rng *rand.Rand, n int, maxSize float64) []model.MBR {
	data := make([]model.MBR, n)
	for i := range data {
		w, h := rng.Float64()*maxSize, rng.Float64()*maxSize
		x := rng.Float64() * (100 - w)
		y := rng.Float64() * (100 - h)
		data[i] = model.NewMBR(fmt.Sprintf("o%d", i), x, y, x+w, y+h)
	}
	return data
}

func TestSearchBoxMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 40; iter++ {
		m := 1 + rng.Intn(12)
		// point rectangles keep distances distinct, boxes may tie at zero
		points := randomData(rng, 1+rng.Intn(150), 0)
		boxes := randomData(rng, 1+rng.Intn(150), 15)

		for _, data := range [][]model.MBR{points, boxes} {
			g := grid.New(0, 0, 100, 100, m)
			g.Load(grid.DefaultLabel, data)
			lin := NewLinearScan(data)

			qx, qy := rng.Float64()*100, rng.Float64()*100
			k := 1 + rng.Intn(10)

			got, stats := Search(g, qx, qy, k, Options{Metric: BoxDistance, MaxHops: m})
			want, _ := lin.KNN(qx, qy, k)
			if len(got) != len(want) {
				t.Fatalf("iter %d: grid returned %d, linear %d (%s)", iter, len(got), len(want), stats)
			}
			for i := range got {
				if math.Abs(got[i].Distance-want[i].Distance) > 1e-9 {
					t.Fatalf("iter %d: distance %d grid=%g linear=%g", iter, i, got[i].Distance, want[i].Distance)
				}
			}
			if data[0].XMin == data[0].XMax {
				gotIDs, wantIDs := ids(got), ids(want)
				sort.Strings(gotIDs)
				sort.Strings(wantIDs)
				if !slices.Equal(gotIDs, wantIDs) {
					t.Fatalf("iter %d: identifiers grid=%v linear=%v", iter, gotIDs, wantIDs)
				}
			}
		}
	}
}

func TestSearchCornerMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for iter := 0; iter < 40; iter++ {
		m := 1 + rng.Intn(10)
		data := randomData(rng, 1+rng.Intn(200), 20)
		g := grid.New(0, 0, 100, 100, m)
		g.Load(grid.DefaultLabel, data)

		qx, qy := rng.Float64()*100, rng.Float64()*100
		k := 1 + rng.Intn(8)

		var want []float64
		for _, o := range data {
			want = append(want, math.Sqrt(model.SquaredDistance(o.XMin, o.YMin, qx, qy)))
		}
		sort.Float64s(want)
		want = want[:min(k, len(want))]

		got, _ := Search(g, qx, qy, k, Options{MaxHops: m})
		if len(got) != len(want) {
			t.Fatalf("iter %d: got %d results, want %d", iter, len(got), len(want))
		}
		for i := range got {
			if math.Abs(got[i].Distance-want[i]) > 1e-9 {
				t.Fatalf("iter %d: distance %d = %g, want %g", iter, i, got[i].Distance, want[i])
			}
		}
	}
}

func TestLinearScan(t *testing.T) {
	lin := NewLinearScan(scenarioData())

	got, stats := lin.KNN(5, 5, 1)
	if !slices.Equal(ids(got), []string{"R3"}) || got[0].Distance != 0 {
		t.Fatalf("got %v", got)
	}
	if stats.Records != 3 || stats.Results != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	got, _ = lin.KNN(0.5, 0.5, 5)
	if !slices.Equal(ids(got), []string{"R1", "R3", "R2"}) {
		t.Fatalf("got %v", ids(got))
	}

	if got, _ := lin.KNN(0, 0, 0); len(got) != 0 {
		t.Fatal("k = 0 should return nothing")
	}
	if got, _ := lin.KNN(0, 0, -1); len(got) != 0 {
		t.Fatal("negative k should return nothing")
	}
}

func TestMetricAsymmetry(t *testing.T) {
	// the grid default measures the minimum corner, the linear scan the rectangle
	gridResult, _ := Search(scenarioGrid(), 5, 5, 1, Options{})
	linResult, _ := NewLinearScan(scenarioData()).KNN(5, 5, 1)
	if gridResult[0].Object.ID != "R2" || linResult[0].Object.ID != "R3" {
		t.Fatalf("grid=%s linear=%s", gridResult[0].Object.ID, linResult[0].Object.ID)
	}
}

func TestParseMetric(t *testing.T) {
	for name, want := range map[string]Metric{"": CornerDistance, "corner": CornerDistance, "BOX": BoxDistance} {
		got, err := ParseMetric(name)
		if err != nil || got != want {
			t.Errorf("ParseMetric(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseMetric("manhattan"); err == nil {
		t.Error("expected error for unknown metric")
	}
}
