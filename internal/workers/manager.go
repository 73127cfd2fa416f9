package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/pkg/logger"
)

// ErrStopped marks targets left undispatched by StopAll
var ErrStopped = errors.New("worker pool stopped")

// WorkerManager fans repository targets out over a fixed pool of workers
type WorkerManager struct {
	processor   Processor
	workerCount int
	workers     []Worker
	mu          sync.Mutex
	wg          sync.WaitGroup
}

// NewWorkerManager creates a new worker manager. A count below one runs a
// single worker.
func NewWorkerManager(processor Processor, workerCount int) *WorkerManager {
	if workerCount < 1 {
		workerCount = 1
	}
	return &WorkerManager{
		processor:   processor,
		workerCount: workerCount,
	}
}

// Run processes every target and returns once all workers are done. Results
// are in input order. Targets not dispatched before ctx is cancelled carry
// the context error.
func (wm *WorkerManager) Run(ctx context.Context, targets []models.RepositoryTarget) []Result {
	results := make([]Result, len(targets))
	if len(targets) == 0 {
		return results
	}

	count := wm.workerCount
	if count > len(targets) {
		count = len(targets)
	}

	tasks := make(chan Task)

	wm.mu.Lock()
	wm.workers = make([]Worker, 0, count)
	for i := 0; i < count; i++ {
		worker := NewRepositoryWorker(fmt.Sprintf("repository-%d", i+1), wm.processor, tasks, results)
		wm.workers = append(wm.workers, worker)
		wm.startWorker(ctx, worker)
	}
	wm.mu.Unlock()

	logger.Infof("Started %d repository workers for %d repositories", count, len(targets))

	allDone := make(chan struct{})
	go func() {
		wm.wg.Wait()
		close(allDone)
	}()

	dispatched := 0
dispatch:
	for i, target := range targets {
		select {
		case <-ctx.Done():
			break dispatch
		case <-allDone:
			break dispatch
		case tasks <- Task{Index: i, Target: target}:
			dispatched++
		}
	}
	close(tasks)
	<-allDone

	if dispatched < len(targets) {
		err := ctx.Err()
		if err == nil {
			err = ErrStopped
		}
		logger.Warnf("Stopped with %d repositories not started", len(targets)-dispatched)
		for i := dispatched; i < len(targets); i++ {
			results[i] = Result{Target: targets[i], Err: err}
		}
	}

	return results
}

// StopAll gracefully stops all workers and waits for them
func (wm *WorkerManager) StopAll() error {
	wm.mu.Lock()
	workers := wm.workers
	wm.mu.Unlock()

	for _, worker := range workers {
		if err := worker.Stop(); err != nil {
			logger.Warnf("Error stopping worker %s: %v", worker.GetWorkerID(), err)
		}
	}

	wm.wg.Wait()
	return nil
}

func (wm *WorkerManager) startWorker(ctx context.Context, worker Worker) {
	wm.wg.Add(1)
	go func() {
		defer wm.wg.Done()
		if err := worker.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Warnf("Worker %s stopped with error: %v", worker.GetWorkerID(), err)
		}
	}()
}

// GetWorkerStatus returns the status of all workers
func (wm *WorkerManager) GetWorkerStatus() map[string]bool {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	status := make(map[string]bool, len(wm.workers))
	for _, worker := range wm.workers {
		if repositoryWorker, ok := worker.(*RepositoryWorker); ok {
			status[worker.GetWorkerID()] = repositoryWorker.IsRunning()
		} else {
			status[worker.GetWorkerID()] = false
		}
	}
	return status
}
