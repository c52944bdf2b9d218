package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingPersister struct {
	mu    sync.Mutex
	calls int
	fail  bool
	done  chan struct{}
}

func (p *countingPersister) PersistDirtyDatasets(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls == 2 {
		close(p.done)
	}
	if p.fail {
		return 0, errors.New("database unavailable")
	}
	return 1, nil
}

func (p *countingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestSnapshotWorkerTicks(t *testing.T) {
	for _, fail := range []bool{false, true} {
		p := &countingPersister{fail: fail, done: make(chan struct{})}
		ctx, cancel := context.WithCancel(context.Background())

		StartSnapshotWorker(ctx, p, 5*time.Millisecond)

		select {
		case <-p.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("fail=%v: worker ticked %d times, want at least 2", fail, p.count())
		}
		cancel()
	}
}

func TestSnapshotWorkerFinalSnapshot(t *testing.T) {
	p := &countingPersister{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	done := StartAllWorkers(ctx, p, time.Hour)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
	if p.count() != 1 {
		t.Errorf("snapshots = %d, want the final one", p.count())
	}
}
