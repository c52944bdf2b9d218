package worker

import (
	"context"
	"log"
	"time"

	"spatialgrid/internal/config"
)

// DatasetPersister writes changed datasets to durable storage
type DatasetPersister interface {
	PersistDirtyDatasets(ctx context.Context) (int, error)
}

// StartSnapshotWorker starts the worker that saves datasets loaded since the
// last tick. A final snapshot runs when ctx is cancelled, the returned channel
// is closed after it.
func StartSnapshotWorker(ctx context.Context, persister DatasetPersister, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = config.SnapshotWorkerInterval
	}

	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				snapshot(context.Background(), persister)
				return
			case <-ticker.C:
				snapshot(ctx, persister)
			}
		}
	}()

	log.Println("Snapshot worker started with interval:", interval)
	return done
}

func snapshot(ctx context.Context, persister DatasetPersister) {
	ctx, cancel := context.WithTimeout(ctx, config.SnapshotTimeout)
	defer cancel()

	saved, err := persister.PersistDirtyDatasets(ctx)
	if err != nil {
		log.Printf("Snapshot failed: %v", err)
		return
	}
	if saved > 0 {
		log.Printf("Snapshot saved %d datasets", saved)
	}
}
