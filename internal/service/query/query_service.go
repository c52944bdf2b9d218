package query

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"

	"spatialgrid/internal/config"
	"spatialgrid/internal/export"
	"spatialgrid/internal/grid"
	"spatialgrid/internal/join"
	"spatialgrid/internal/knn"
	"spatialgrid/internal/loader"
	"spatialgrid/internal/metrics"
	"spatialgrid/internal/model"
	"spatialgrid/internal/skyline"
)

var (
	ErrUnknownDataset  = errors.New("unknown dataset")
	ErrUnknownObject   = errors.New("unknown object")
	ErrResultsDisabled = errors.New("result store is not configured")
	ErrResultNotFound  = errors.New("result not found")
)

// DatasetRepository persists labelled datasets
type DatasetRepository interface {
	SaveDataset(ctx context.Context, label string, data []model.MBR) error
	LoadDatasets(ctx context.Context) (map[string][]model.MBR, error)
}

// ResultStore keeps serialized query results
type ResultStore interface {
	SaveResult(ctx context.Context, kind string, result interface{}) (string, error)
	GetResult(ctx context.Context, key string) ([]byte, error)
}

// Settings describe the grid and the query defaults
type Settings struct {
	Bounds      model.MBR
	M           int
	MaxHops     int
	JoinWorkers int
}

func SettingsFromConfig(c config.Config) Settings {
	return Settings{
		Bounds:      model.MBR{XMin: c.GridXL, YMin: c.GridYL, XMax: c.GridXU, YMax: c.GridYU},
		M:           c.GridM,
		MaxHops:     c.KNNMaxHops,
		JoinWorkers: c.JoinWorkers,
	}
}

func DefaultSettings() Settings {
	return Settings{
		Bounds:  model.MBR{XMax: 100, YMax: 100},
		M:       10,
		MaxHops: config.DefaultMaxHops,
	}
}

// QueryService owns the grid. Loads take the write lock and queries the
// read lock, so queries run concurrently but never during a load.
type QueryService struct {
	settings Settings
	repo     DatasetRepository
	results  ResultStore

	mu   sync.RWMutex
	grid *grid.Grid

	initialized bool
	initMutex   sync.Mutex
}

var (
	queryServiceInstance *QueryService
	queryServiceOnce     sync.Once
)

// SetupQueryService creates the singleton on the first call, later calls return it unchanged
func SetupQueryService(settings Settings, repo DatasetRepository, results ResultStore) *QueryService {
	queryServiceOnce.Do(func() {
		queryServiceInstance = NewQueryService(settings, repo, results)
	})
	return queryServiceInstance
}

// GetQueryService returns the singleton instance, with default settings if none was set up
func GetQueryService() *QueryService {
	return SetupQueryService(DefaultSettings(), nil, nil)
}

// NewQueryService creates a service with its own grid. repo and results may be nil.
func NewQueryService(settings Settings, repo DatasetRepository, results ResultStore) *QueryService {
	b := settings.Bounds
	return &QueryService{
		settings: settings,
		repo:     repo,
		results:  results,
		grid:     grid.New(b.XMin, b.YMin, b.XMax, b.YMax, settings.M),
	}
}

// InitService loads all stored datasets into the grid once
func (s *QueryService) InitService(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		return nil
	}

	log.Println("Initializing QueryService...")
	startTime := time.Now()

	if s.repo == nil {
		log.Println("No dataset repository configured, starting with an empty grid")
		s.initialized = true
		return nil
	}

	// Step 1: Load datasets from PostgreSQL
	log.Println("Step 1: Loading datasets from PostgreSQL...")
	datasets, err := s.repo.LoadDatasets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load datasets: %w", err)
	}
	log.Printf("Loaded %d datasets in %v", len(datasets), time.Since(startTime))

	// Step 2: Assign them to grid cells
	log.Println("Step 2: Assigning datasets to grid cells...")
	s.mu.Lock()
	labels := make([]string, 0, len(datasets))
	for label, data := range datasets {
		s.grid.Load(label, data)
		labels = append(labels, label)
		metrics.DatasetObjects.WithLabelValues(label).Set(float64(len(data)))
		log.Printf("Dataset %q: %d rectangles", label, len(data))
		s.warnOutside(label, data)
	}
	// Freshly loaded datasets are already stored
	s.grid.MarkPersisted(labels)
	s.mu.Unlock()

	log.Printf("Initialization complete: %d datasets, took %v", len(labels), time.Since(startTime))
	s.initialized = true
	return nil
}

// LoadDataset validates data and replaces the dataset stored under label
func (s *QueryService) LoadDataset(label string, data []model.MBR) error {
	if label == "" {
		return fmt.Errorf("%w: empty label", ErrUnknownDataset)
	}
	for i, m := range data {
		if !m.Valid() {
			return fmt.Errorf("%w: record %d (%s) has invalid bounds", loader.ErrMalformedRecord, i, m.ID)
		}
	}

	startTime := time.Now()
	s.mu.Lock()
	s.grid.Load(label, data)
	s.mu.Unlock()
	metrics.DatasetObjects.WithLabelValues(label).Set(float64(len(data)))

	log.Printf("Loaded dataset %q with %d rectangles in %v", label, len(data), time.Since(startTime))
	s.warnOutside(label, data)
	return nil
}

// warnOutside logs objects reaching outside the grid, the grid bounds never change
func (s *QueryService) warnOutside(label string, data []model.MBR) {
	if n := s.grid.CountOutside(data); n > 0 {
		log.Printf("Warning: dataset %q has %d rectangles outside the grid bounds %s, skyline and PBSM results may be incomplete",
			label, n, s.grid.Bounds())
	}
}

// Dataset returns the objects loaded under label
func (s *QueryService) Dataset(label string) ([]model.MBR, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.grid.HasDataset(label) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, label)
	}
	return s.grid.Dataset(label), nil
}

// Object finds an object by ID in any dataset and returns it with its label
func (s *QueryService) Object(id string) (model.MBR, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, label, ok := s.grid.ObjectByID(id)
	if !ok {
		return model.MBR{}, "", fmt.Errorf("%w: %q", ErrUnknownObject, id)
	}
	return m, label, nil
}

// KNN runs the grid k-NN search, the configured hop limit applies unless opts sets one
func (s *QueryService) KNN(qx, qy float64, k int, opts knn.Options) ([]knn.Neighbor, knn.Stats) {
	if opts.MaxHops <= 0 {
		opts.MaxHops = s.settings.MaxHops
	}

	s.mu.RLock()
	neighbors, stats := knn.Search(s.grid, qx, qy, k, opts)
	s.mu.RUnlock()

	metrics.ObserveQuery("knn", stats.Elapsed, len(neighbors))
	return neighbors, stats
}

// LinearKNN runs the linear scan over the dataset loaded under label
func (s *QueryService) LinearKNN(label string, qx, qy float64, k int) ([]knn.Neighbor, knn.LinearStats, error) {
	data, err := s.Dataset(label)
	if err != nil {
		return nil, knn.LinearStats{}, err
	}
	neighbors, stats := knn.NewLinearScan(data).KNN(qx, qy, k)
	metrics.ObserveQuery("knn-linear", stats.Elapsed, len(neighbors))
	return neighbors, stats, nil
}

// Join joins datasets A and B with alg
func (s *QueryService) Join(alg join.Algorithm) ([]join.Pair, fmt.Stringer, error) {
	startTime := time.Now()
	s.mu.RLock()
	pairs, stats, err := join.Run(alg, s.grid, join.PBSMOptions{Workers: s.settings.JoinWorkers})
	s.mu.RUnlock()
	if err != nil {
		return nil, nil, err
	}

	metrics.ObserveQuery("join-"+string(alg), time.Since(startTime), len(pairs))
	return pairs, stats, nil
}

// Skyline computes the skyline of the dataset loaded under label
func (s *QueryService) Skyline(label string, dims skyline.Dimensions) ([]model.MBR, skyline.Stats) {
	s.mu.RLock()
	result, stats := skyline.Query(s.grid, label, dims)
	s.mu.RUnlock()

	metrics.ObserveQuery("skyline", stats.Elapsed, len(result))
	return result, stats
}

// GridSummary describes the grid layout and its datasets
func (s *QueryService) GridSummary() grid.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid.Summary()
}

// GridGeoJSON exports the cells with their object counts
func (s *QueryService) GridGeoJSON() *geojson.FeatureCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return export.GridGeoJSON(s.grid)
}

// SaveResult stores a query result and returns its key
func (s *QueryService) SaveResult(ctx context.Context, kind string, result interface{}) (string, error) {
	if s.results == nil {
		return "", ErrResultsDisabled
	}
	return s.results.SaveResult(ctx, kind, result)
}

// GetResult returns a stored query result as JSON
func (s *QueryService) GetResult(ctx context.Context, key string) ([]byte, error) {
	if s.results == nil {
		return nil, ErrResultsDisabled
	}
	return s.results.GetResult(ctx, key)
}

// PersistDirtyDatasets writes the datasets loaded since the last snapshot to the repository
func (s *QueryService) PersistDirtyDatasets(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, nil
	}

	s.mu.RLock()
	dirty := s.grid.DirtyDatasets()
	s.mu.RUnlock()
	if len(dirty) == 0 {
		return 0, nil
	}

	saved := make([]string, 0, len(dirty))
	var errs []error
	for label, data := range dirty {
		if err := s.repo.SaveDataset(ctx, label, data); err != nil {
			metrics.SnapshotsTotal.WithLabelValues("failed").Inc()
			errs = append(errs, err)
			continue
		}
		metrics.SnapshotsTotal.WithLabelValues("saved").Inc()
		saved = append(saved, label)
	}

	// Clear flags only after successful save
	s.mu.Lock()
	for _, label := range saved {
		// A reload during the save replaced the dataset, keep it dirty
		if sameDataset(s.grid.Dataset(label), dirty[label]) {
			s.grid.MarkPersisted([]string{label})
		}
	}
	s.mu.Unlock()

	if len(errs) > 0 {
		return len(saved), fmt.Errorf("failed to persist %d datasets: %w", len(errs), errors.Join(errs...))
	}
	log.Printf("Persisted %d datasets", len(saved))
	return len(saved), nil
}

// sameDataset reports whether both slices are the same loaded dataset
func sameDataset(a, b []model.MBR) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
