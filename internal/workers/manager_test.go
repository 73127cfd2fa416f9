package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimgiray/gfame/internal/models"
)

type fakeProcessor struct {
	delay    time.Duration
	failFor  map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	seen     []string
}

func (p *fakeProcessor) Process(ctx context.Context, target models.RepositoryTarget) (*models.RepositoryStats, error) {
	current := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if current <= peak || p.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	p.mu.Lock()
	p.seen = append(p.seen, target.Name)
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.failFor[target.Name] {
		return nil, fmt.Errorf("failed to process %s", target.Name)
	}

	stats := models.NewRepositoryStats(target.DisplayName)
	stats.RepositoryTotals = models.NewAuthorStats(len(target.Name), 1, 1)
	return stats, nil
}

func targets(names ...string) []models.RepositoryTarget {
	out := make([]models.RepositoryTarget, 0, len(names))
	for _, name := range names {
		out = append(out, models.RepositoryTarget{Name: name, DisplayName: name})
	}
	return out
}

func TestWorkerManagerRunKeepsInputOrder(t *testing.T) {
	processor := &fakeProcessor{delay: 5 * time.Millisecond, failFor: map[string]bool{"c": true}}
	manager := NewWorkerManager(processor, 3)

	results := manager.Run(context.Background(), targets("a", "bb", "c", "dddd", "eeeee"))

	require.Len(t, results, 5)
	for i, name := range []string{"a", "bb", "c", "dddd", "eeeee"} {
		assert.Equal(t, name, results[i].Target.Name)
	}
	assert.Equal(t, 4, results[3].Stats.RepositoryTotals.LOC)
	assert.Error(t, results[2].Err)
	assert.Nil(t, results[2].Stats)
	assert.LessOrEqual(t, processor.peak.Load(), int32(3))
	assert.Len(t, processor.seen, 5)
}

func TestWorkerManagerSingleWorkerIsSequential(t *testing.T) {
	processor := &fakeProcessor{delay: time.Millisecond}

	results := NewWorkerManager(processor, 0).Run(context.Background(), targets("a", "b", "c"))

	assert.Len(t, results, 3)
	assert.Equal(t, int32(1), processor.peak.Load())
	assert.Equal(t, []string{"a", "b", "c"}, processor.seen)
}

func TestWorkerManagerRunEmpty(t *testing.T) {
	results := NewWorkerManager(&fakeProcessor{}, 2).Run(context.Background(), nil)

	assert.Empty(t, results)
}

func TestWorkerManagerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewWorkerManager(&fakeProcessor{}, 2).Run(ctx, targets("a", "b", "c"))

	require.Len(t, results, 3)
	for _, result := range results {
		if result.Stats == nil {
			assert.True(t, errors.Is(result.Err, context.Canceled))
		}
	}
}

func TestWorkerManagerGetWorkerStatus(t *testing.T) {
	manager := NewWorkerManager(&fakeProcessor{}, 2)
	manager.Run(context.Background(), targets("a", "b"))

	status := manager.GetWorkerStatus()

	assert.Equal(t, map[string]bool{"repository-1": false, "repository-2": false}, status)
	assert.NoError(t, manager.StopAll())
}

func TestBaseWorkerStopIsIdempotent(t *testing.T) {
	worker := NewBaseWorker("w")

	assert.NoError(t, worker.Stop())
	assert.NoError(t, worker.Stop())
	assert.Equal(t, "w", worker.GetWorkerID())
}
