package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"spatialgrid/internal/grid"
	"spatialgrid/internal/join"
	"spatialgrid/internal/knn"
	"spatialgrid/internal/loader"
	"spatialgrid/internal/metrics"
	"spatialgrid/internal/model"
	"spatialgrid/internal/skyline"
)

type fakeRepo struct {
	mu       sync.Mutex
	datasets map[string][]model.MBR
	saves    int
	failSave bool
}

func (r *fakeRepo) SaveDataset(_ context.Context, label string, data []model.MBR) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return errors.New("database unavailable")
	}
	r.saves++
	r.datasets[label] = append([]model.MBR(nil), data...)
	return nil
}

func (r *fakeRepo) LoadDatasets(context.Context) (map[string][]model.MBR, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]model.MBR, len(r.datasets))
	for k, v := range r.datasets {
		out[k] = v
	}
	return out, nil
}

type fakeResults struct {
	data map[string][]byte
}

func (f *fakeResults) SaveResult(_ context.Context, kind string, result interface{}) (string, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("result:%s:%d", kind, len(f.data))
	f.data[key] = b
	return key, nil
}

func (f *fakeResults) GetResult(_ context.Context, key string) ([]byte, error) {
	b, ok := f.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func testSettings() Settings {
	return Settings{Bounds: model.MBR{XMax: 10, YMax: 10}, M: 2, MaxHops: 3, JoinWorkers: 2}
}

func scenario() []model.MBR {
	return []model.MBR{
		model.NewMBR("R1", 0, 0, 1, 1),
		model.NewMBR("R2", 6, 6, 7, 7),
		model.NewMBR("R3", 4, 4, 9, 9),
	}
}

func TestInitServiceLoadsRepository(t *testing.T) {
	repo := &fakeRepo{datasets: map[string][]model.MBR{grid.DefaultLabel: scenario()}}
	s := NewQueryService(testSettings(), repo, nil)

	if err := s.InitService(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.InitService(context.Background()); err != nil {
		t.Fatal(err)
	}

	data, err := s.Dataset(grid.DefaultLabel)
	if err != nil || len(data) != 3 {
		t.Fatalf("Dataset = %v, %v", data, err)
	}

	// nothing changed since the datasets came from the repository
	n, err := s.PersistDirtyDatasets(context.Background())
	if err != nil || n != 0 || repo.saves != 0 {
		t.Fatalf("persisted %d datasets (%d saves), err %v", n, repo.saves, err)
	}
}

func TestInitServiceSetsDatasetGauge(t *testing.T) {
	const label = "restored"
	repo := &fakeRepo{datasets: map[string][]model.MBR{label: scenario()}}
	s := NewQueryService(testSettings(), repo, nil)

	if err := s.InitService(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(metrics.DatasetObjects.WithLabelValues(label)); got != 3 {
		t.Fatalf("dataset gauge = %v, want 3", got)
	}
}

func TestQueries(t *testing.T) {
	s := NewQueryService(testSettings(), nil, nil)
	if err := s.InitService(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadDataset(grid.DefaultLabel, scenario()); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadDataset(grid.LabelA, []model.MBR{model.NewMBR("a", 0, 0, 2, 2)}); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadDataset(grid.LabelB, []model.MBR{model.NewMBR("b", 1, 1, 3, 3)}); err != nil {
		t.Fatal(err)
	}

	neighbors, stats := s.KNN(5, 5, 1, knn.Options{Metric: knn.BoxDistance})
	if len(neighbors) != 1 || neighbors[0].Object.ID != "R3" {
		t.Fatalf("KNN = %v (%s)", neighbors, stats)
	}

	linear, _, err := s.LinearKNN(grid.DefaultLabel, 0.5, 0.5, 1)
	if err != nil || linear[0].Object.ID != "R1" {
		t.Fatalf("LinearKNN = %v, %v", linear, err)
	}
	if _, _, err := s.LinearKNN("missing", 0, 0, 1); !errors.Is(err, ErrUnknownDataset) {
		t.Fatalf("expected ErrUnknownDataset, got %v", err)
	}

	for _, alg := range join.Algorithms {
		pairs, _, err := s.Join(alg)
		if err != nil || len(pairs) != 1 {
			t.Fatalf("Join(%s) = %v, %v", alg, pairs, err)
		}
	}

	sky, _ := s.Skyline(grid.DefaultLabel, skyline.Corner2D)
	if len(sky) != 1 || sky[0].ID != "R1" {
		t.Fatalf("Skyline = %v", sky)
	}

	obj, label, err := s.Object("b")
	if err != nil || label != grid.LabelB || obj.XMin != 1 {
		t.Fatalf("Object(b) = %v %q %v", obj, label, err)
	}
	if _, _, err := s.Object("zzz"); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("expected ErrUnknownObject, got %v", err)
	}

	summary := s.GridSummary()
	if len(summary.Datasets) != 3 || summary.M != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if fc := s.GridGeoJSON(); len(fc.Features) != 4 {
		t.Fatalf("grid geojson has %d features", len(fc.Features))
	}
}

func TestLoadDatasetRejectsInvalidRecords(t *testing.T) {
	s := NewQueryService(testSettings(), nil, nil)
	err := s.LoadDataset(grid.DefaultLabel, []model.MBR{model.NewMBR("bad", 5, 0, 1, 1)})
	if !errors.Is(err, loader.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
	if _, err := s.Dataset(grid.DefaultLabel); !errors.Is(err, ErrUnknownDataset) {
		t.Fatal("rejected dataset should not be loaded")
	}
	if err := s.LoadDataset("", nil); err == nil {
		t.Fatal("empty label should be rejected")
	}
}

func TestPersistDirtyDatasets(t *testing.T) {
	repo := &fakeRepo{datasets: map[string][]model.MBR{}}
	s := NewQueryService(testSettings(), repo, nil)
	ctx := context.Background()

	if err := s.LoadDataset(grid.LabelA, scenario()); err != nil {
		t.Fatal(err)
	}
	n, err := s.PersistDirtyDatasets(ctx)
	if err != nil || n != 1 || len(repo.datasets[grid.LabelA]) != 3 {
		t.Fatalf("first persist: n=%d err=%v repo=%v", n, err, repo.datasets)
	}

	n, err = s.PersistDirtyDatasets(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second persist: n=%d err=%v", n, err)
	}

	repo.failSave = true
	if err := s.LoadDataset(grid.LabelB, scenario()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PersistDirtyDatasets(ctx); err == nil {
		t.Fatal("expected save error")
	}
	repo.failSave = false
	if n, err := s.PersistDirtyDatasets(ctx); err != nil || n != 1 {
		t.Fatalf("retry persist: n=%d err=%v", n, err)
	}
}

func TestResults(t *testing.T) {
	s := NewQueryService(testSettings(), nil, nil)
	if _, err := s.SaveResult(context.Background(), "knn", 1); !errors.Is(err, ErrResultsDisabled) {
		t.Fatalf("expected ErrResultsDisabled, got %v", err)
	}

	s = NewQueryService(testSettings(), nil, &fakeResults{data: map[string][]byte{}})
	key, err := s.SaveResult(context.Background(), "knn", map[string]int{"k": 3})
	if err != nil {
		t.Fatal(err)
	}
	data, err := s.GetResult(context.Background(), key)
	if err != nil || string(data) != `{"k":3}` {
		t.Fatalf("GetResult = %s, %v", data, err)
	}
}

func TestConcurrentQueriesAndLoads(t *testing.T) {
	s := NewQueryService(testSettings(), nil, nil)
	if err := s.LoadDataset(grid.DefaultLabel, scenario()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got, _ := s.KNN(0.5, 0.5, 1, knn.Options{}); len(got) != 1 {
					t.Error("KNN returned nothing")
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if err := s.LoadDataset(grid.DefaultLabel, scenario()); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestGetQueryServiceSingleton(t *testing.T) {
	if GetQueryService() != GetQueryService() {
		t.Fatal("GetQueryService should return the same instance")
	}
}
