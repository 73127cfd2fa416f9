package workers

import (
	"context"

	"github.com/alimgiray/gfame/pkg/logger"
)

// RepositoryWorker processes repository tasks until its queue is closed
type RepositoryWorker struct {
	*BaseWorker
	processor Processor
	tasks     <-chan Task
	results   []Result
}

// NewRepositoryWorker creates a worker that writes each result at its task
// index. Indexes are unique, so workers never write the same slot.
func NewRepositoryWorker(workerID string, processor Processor, tasks <-chan Task, results []Result) *RepositoryWorker {
	return &RepositoryWorker{
		BaseWorker: NewBaseWorker(workerID),
		processor:  processor,
		tasks:      tasks,
		results:    results,
	}
}

// Start begins the repository worker process
func (w *RepositoryWorker) Start(ctx context.Context) error {
	w.setRunning(true)
	defer w.setRunning(false)
	logger.WithField("worker", w.WorkerID).Debugf("Repository worker started")

	for {
		select {
		case <-ctx.Done():
			logger.WithField("worker", w.WorkerID).Debugf("Repository worker stopping due to context cancellation")
			return ctx.Err()
		case <-w.StopChan:
			logger.WithField("worker", w.WorkerID).Debugf("Repository worker stopping")
			return nil
		case task, ok := <-w.tasks:
			if !ok {
				return nil
			}
			w.process(ctx, task)
		}
	}
}

func (w *RepositoryWorker) process(ctx context.Context, task Task) {
	log := logger.WithRepository(task.Target.DisplayName).WithField("worker", w.WorkerID)
	log.Debugf("Processing repository")

	stats, err := w.processor.Process(ctx, task.Target)
	if err != nil {
		log.WithError(err).Warnf("Repository failed")
	}

	w.results[task.Index] = Result{Target: task.Target, Stats: stats, Err: err}
}
