package workers

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/alimgiray/gfame/internal/models"
)

// Worker interface defines the contract for all workers
type Worker interface {
	// Start begins the worker process and returns when its queue is drained
	Start(ctx context.Context) error

	// Stop gracefully stops the worker
	Stop() error

	// GetWorkerID returns the unique identifier for this worker
	GetWorkerID() string
}

// Processor turns one repository target into repository stats
type Processor interface {
	Process(ctx context.Context, target models.RepositoryTarget) (*models.RepositoryStats, error)
}

// Task is one repository queued at a fixed position of the input
type Task struct {
	Index  int
	Target models.RepositoryTarget
}

// Result is the outcome of one task
type Result struct {
	Target models.RepositoryTarget
	Stats  *models.RepositoryStats
	Err    error
}

// BaseWorker provides common functionality for all workers
type BaseWorker struct {
	WorkerID string
	StopChan chan struct{}
	running  atomic.Bool
	stopOnce sync.Once
}

// NewBaseWorker creates a new base worker
func NewBaseWorker(workerID string) *BaseWorker {
	return &BaseWorker{
		WorkerID: workerID,
		StopChan: make(chan struct{}),
	}
}

// GetWorkerID returns the worker's unique identifier
func (w *BaseWorker) GetWorkerID() string {
	return w.WorkerID
}

// Stop gracefully stops the worker
func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(func() {
		close(w.StopChan)
	})
	return nil
}

// IsRunning checks if the worker is currently running
func (w *BaseWorker) IsRunning() bool {
	return w.running.Load()
}

func (w *BaseWorker) setRunning(running bool) {
	w.running.Store(running)
}
