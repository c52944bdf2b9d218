package worker

import (
	"context"
	"log"
	"time"
)

// StartAllWorkers initializes and starts all background workers.
// Workers stop when ctx is cancelled, the returned channel is closed once they all did.
func StartAllWorkers(ctx context.Context, persister DatasetPersister, snapshotInterval time.Duration) <-chan struct{} {
	log.Println("Starting all workers...")

	snapshotDone := StartSnapshotWorker(ctx, persister, snapshotInterval)

	log.Println("All workers started")
	return snapshotDone
}
