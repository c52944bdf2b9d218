package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"spatialgrid/internal/api"
	"spatialgrid/internal/config"
	"spatialgrid/internal/localstore"
	"spatialgrid/internal/postgres"
	"spatialgrid/internal/redis"
	"spatialgrid/internal/service/query"
	"spatialgrid/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.LogFile)

	repo, results := initializeDatabaseAndCache(cfg)
	defer closeConnections()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	svc := initializeServices(ctx, cfg, repo, results)

	var workersDone <-chan struct{}
	if repo != nil {
		workersDone = worker.StartAllWorkers(ctx, svc, cfg.SnapshotInterval)
	}

	setupSignalHandler(stop, workersDone)

	reportMemoryStats()

	runAPIServer(cfg, svc)
}

// localResults is the embedded result store, set when Redis is not configured
var localResults *localstore.ResultStore

func setupLogging(path string) {
	if path == "" {
		return
	}

	// Set up logging to file and terminal
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	// Use MultiWriter to output logs to both terminal and file
	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multiWriter)
}

// initializeDatabaseAndCache connects the configured backends. An empty URL
// leaves the backend disabled and the matching return value nil.
func initializeDatabaseAndCache(cfg config.Config) (query.DatasetRepository, query.ResultStore) {
	var (
		repo    query.DatasetRepository
		results query.ResultStore
	)

	if cfg.DBUrl != "" {
		repo = postgres.NewDatasetRepository(postgres.Init(cfg.DBUrl))
	} else {
		log.Println("DB_URL is not set, datasets will not be persisted")
	}

	switch {
	case cfg.RedisUrl != "":
		results = redis.NewResultStore(redis.Init(cfg.RedisUrl), cfg.ResultTTL)
	case cfg.ResultStorePath != "":
		log.Printf("REDIS_URL is not set, saving results to %s", cfg.ResultStorePath)
		store, err := localstore.NewResultStore(cfg.ResultStorePath, cfg.ResultTTL)
		if err != nil {
			log.Fatalf("Failed to open result store: %v", err)
		}
		localResults = store
		results = store
	default:
		log.Println("REDIS_URL and RESULT_STORE_PATH are not set, saving results is disabled")
	}

	return repo, results
}

func initializeServices(ctx context.Context, cfg config.Config, repo query.DatasetRepository, results query.ResultStore) *query.QueryService {
	svc := query.SetupQueryService(query.SettingsFromConfig(cfg), repo, results)

	// Load stored datasets from PostgreSQL
	if err := svc.InitService(ctx); err != nil {
		log.Fatalf("Failed to initialize query service: %v", err)
	}

	return svc
}

func runAPIServer(cfg config.Config, svc *query.QueryService) {
	// Initialize Gin router
	r := gin.Default()

	// Configure API routes
	info := map[string]string{
		"port":     cfg.Port,
		"dbUrl":    cfg.DBUrl,
		"redisUrl": cfg.RedisUrl,
	}
	api.SetupRouter(r, svc, info)

	// Start the server
	if err := r.Run(cfg.Port); err != nil {
		log.Fatalf("API server stopped: %v", err)
	}
}

func reportMemoryStats() {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			log.Printf("Alloc = %v MiB, TotalAlloc = %v MiB, Sys = %v MiB, NumGC = %v",
				m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.NumGC)
		}
	}()
}

func closeConnections() {
	if err := postgres.Close(); err != nil {
		log.Printf("Error closing PostgreSQL connection: %v", err)
	}

	if err := redis.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	if localResults != nil {
		if err := localResults.Close(); err != nil {
			log.Printf("Error closing result store: %v", err)
		}
	}

	log.Println("PostgreSQL and Redis connections closed successfully")
}

// setupSignalHandler stops the workers on shutdown and waits for their final
// snapshot before closing the connections
func setupSignalHandler(stop context.CancelFunc, workersDone <-chan struct{}) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("Shutdown signal received, closing connections...")
		stop()
		if workersDone != nil {
			<-workersDone
		}
		closeConnections()
		os.Exit(0)
	}()
}
