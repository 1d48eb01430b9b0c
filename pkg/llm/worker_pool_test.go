package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestProcess_Success(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	items := []WorkItem[string]{
		{ID: "task1", Execute: func(ctx context.Context) (string, error) { return "result1", nil }},
		{ID: "task2", Execute: func(ctx context.Context) (string, error) { return "result2", nil }},
		{ID: "task3", Execute: func(ctx context.Context) (string, error) { return "result3", nil }},
	}

	results := Process(context.Background(), pool, items, nil)

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	// Verify all results are present (order may vary)
	resultsByID := make(map[string]string)
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("task %s failed: %v", r.ID, r.Err)
		}
		resultsByID[r.ID] = r.Result
	}

	if resultsByID["task1"] != "result1" || resultsByID["task2"] != "result2" || resultsByID["task3"] != "result3" {
		t.Errorf("unexpected results: %v", resultsByID)
	}
}

func TestProcess_WithErrors(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	expectedErr := errors.New("task failed")
	items := []WorkItem[string]{
		{ID: "task1", Execute: func(ctx context.Context) (string, error) { return "result1", nil }},
		{ID: "task2", Execute: func(ctx context.Context) (string, error) { return "", expectedErr }},
		{ID: "task3", Execute: func(ctx context.Context) (string, error) { return "result3", nil }},
	}

	results := Process(context.Background(), pool, items, nil)

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	resultsByID := make(map[string]WorkResult[string])
	for _, r := range results {
		resultsByID[r.ID] = r
	}

	if resultsByID["task1"].Err != nil {
		t.Errorf("task1 should succeed, got error: %v", resultsByID["task1"].Err)
	}
	if resultsByID["task2"].Err != expectedErr {
		t.Errorf("task2 should fail with expectedErr, got: %v", resultsByID["task2"].Err)
	}
	if resultsByID["task3"].Err != nil {
		t.Errorf("task3 should succeed, got error: %v", resultsByID["task3"].Err)
	}
}

func TestProcess_EmptyItems(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	results := Process(context.Background(), pool, []WorkItem[string]{}, nil)

	if results != nil {
		t.Errorf("expected nil results for empty items, got %v", results)
	}
}

func TestProcess_ContextCancellation(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	items := []WorkItem[string]{
		{ID: "task1", Execute: func(ctx context.Context) (string, error) {
			cancel()
			time.Sleep(10 * time.Millisecond)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
				return "result1", nil
			}
		}},
		{ID: "task2", Execute: func(ctx context.Context) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
				return "result2", nil
			}
		}},
	}

	results := Process(ctx, pool, items, nil)

	// At least one task should detect cancellation
	foundCancellation := false
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			foundCancellation = true
		}
	}
	if !foundCancellation {
		t.Error("expected at least one task to detect context cancellation")
	}
}

func TestProcess_ConcurrencyLimit(t *testing.T) {
	maxConcurrent := 3
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: maxConcurrent}, zap.NewNop())

	var currentConcurrent atomic.Int32
	var maxObservedConcurrent atomic.Int32

	items := make([]WorkItem[string], 10)
	for i := 0; i < 10; i++ {
		items[i] = WorkItem[string]{
			ID: fmt.Sprintf("task%d", i),
			Execute: func(ctx context.Context) (string, error) {
				current := currentConcurrent.Add(1)
				defer currentConcurrent.Add(-1)

				for {
					max := maxObservedConcurrent.Load()
					if current <= max || maxObservedConcurrent.CompareAndSwap(max, current) {
						break
					}
				}

				time.Sleep(50 * time.Millisecond)
				return "done", nil
			},
		}
	}

	results := Process(context.Background(), pool, items, nil)

	if len(results) != 10 {
		t.Errorf("expected 10 results, got %d", len(results))
	}

	maxObserved := maxObservedConcurrent.Load()
	if maxObserved > int32(maxConcurrent) {
		t.Errorf("concurrency limit violated: observed %d concurrent tasks, limit was %d", maxObserved, maxConcurrent)
	}

	if maxObserved < 2 {
		t.Errorf("expected some concurrency, but max observed was %d", maxObserved)
	}
}

func TestProcess_ProgressCallback(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	items := []WorkItem[string]{
		{ID: "task1", Execute: func(ctx context.Context) (string, error) { return "result1", nil }},
		{ID: "task2", Execute: func(ctx context.Context) (string, error) { return "result2", nil }},
		{ID: "task3", Execute: func(ctx context.Context) (string, error) { return "result3", nil }},
	}

	var mu sync.Mutex
	progressUpdates := []int{}

	results := Process(context.Background(), pool, items, func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		progressUpdates = append(progressUpdates, completed)

		if total != 3 {
			t.Errorf("expected total=3, got total=%d", total)
		}
	})

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	mu.Lock()
	defer mu.Unlock()
	if len(progressUpdates) != 3 {
		t.Errorf("expected 3 progress updates, got %d", len(progressUpdates))
	}

	foundThree := false
	for _, p := range progressUpdates {
		if p == 3 {
			foundThree = true
		}
	}
	if !foundThree {
		t.Errorf("expected final progress of 3, got updates: %v", progressUpdates)
	}
}

func TestNewWorkerPool_ConfigDefault(t *testing.T) {
	want := DefaultWorkerPoolConfig().MaxConcurrent

	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 0}, zap.NewNop())
	if pool.config.MaxConcurrent != want {
		t.Errorf("expected default MaxConcurrent=%d, got %d", want, pool.config.MaxConcurrent)
	}

	pool = NewWorkerPool(WorkerPoolConfig{MaxConcurrent: -1}, zap.NewNop())
	if pool.config.MaxConcurrent != want {
		t.Errorf("expected default MaxConcurrent=%d, got %d", want, pool.config.MaxConcurrent)
	}
}
