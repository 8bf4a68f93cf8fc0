package queue

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildstream/datashield/pkg/config"
	"github.com/buildstream/datashield/pkg/database"
	"github.com/buildstream/datashield/pkg/models"
)

// fakeQueue is an in-memory RunQueue for worker tests.
type fakeQueue struct {
	mu   sync.Mutex
	runs map[string]*models.SanitizationRun
}

func newFakeQueue(runs ...*models.SanitizationRun) *fakeQueue {
	q := &fakeQueue{runs: map[string]*models.SanitizationRun{}}
	for _, run := range runs {
		q.runs[run.ID] = run
	}
	return q
}

func (q *fakeQueue) ClaimNext(_ context.Context, workerID string) (*models.SanitizationRun, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var pending []*models.SanitizationRun
	for _, run := range q.runs {
		if run.Status == models.RunStatusPending {
			pending = append(pending, run)
		}
	}
	if len(pending) == 0 {
		return nil, database.ErrNoPendingRuns
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	claimed := pending[0]
	claimed.Status = models.RunStatusInProgress
	claimed.WorkerID = workerID
	now := time.Now()
	claimed.StartedAt = &now

	cp := *claimed
	return &cp, nil
}

func (q *fakeQueue) Complete(_ context.Context, run *models.SanitizationRun) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	stored, ok := q.runs[run.ID]
	if !ok {
		return database.ErrRunNotFound
	}
	stored.Status = run.Status
	stored.Message = run.Message
	stored.NewVersionID = run.NewVersionID
	stored.ObjectsProcessed = run.ObjectsProcessed
	return nil
}

func (q *fakeQueue) CountByStatus(_ context.Context, status models.RunStatus) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	count := 0
	for _, run := range q.runs {
		if run.Status == status {
			count++
		}
	}
	return count, nil
}

func (q *fakeQueue) ResetOrphans(_ context.Context, cutoff time.Time) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	reset := 0
	for _, run := range q.runs {
		if run.Status == models.RunStatusInProgress &&
			run.StartedAt != nil && run.StartedAt.Before(cutoff) {
			run.Status = models.RunStatusPending
			run.WorkerID = ""
			run.StartedAt = nil
			reset++
		}
	}
	return reset, nil
}

func (q *fakeQueue) get(id string) *models.SanitizationRun {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := *q.runs[id]
	return &cp
}

// stubExecutor returns a fixed result and records the runs it saw.
type stubExecutor struct {
	mu     sync.Mutex
	result *ExecutionResult
	seen   []string
}

func (s *stubExecutor) Execute(_ context.Context, run *models.SanitizationRun) *ExecutionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, run.ID)
	return s.result
}

// noopRegistry satisfies RunRegistry for direct worker tests.
type noopRegistry struct{}

func (noopRegistry) RegisterRun(string, context.CancelFunc) {}
func (noopRegistry) UnregisterRun(string)                   {}

func testQueueConfig() *config.QueueConfig {
	return &config.QueueConfig{
		WorkerCount:        1,
		MaxConcurrentRuns:  2,
		PollInterval:       5 * time.Millisecond,
		PollIntervalJitter: time.Millisecond,
		RunTimeout:         time.Second,
	}
}

func pendingRun(id string, createdAt time.Time) *models.SanitizationRun {
	return &models.SanitizationRun{
		ID:               id,
		ProjectID:        "proj-1",
		ModelID:          "model-1",
		VersionID:        "ver-1",
		SanitizationMode: config.ModePrefixMatching,
		ParameterInput:   "ifc_",
		Status:           models.RunStatusPending,
		CreatedAt:        createdAt,
	}
}

func TestWorker_PollAndProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("claims and completes a run", func(t *testing.T) {
		store := newFakeQueue(pendingRun("run-1", time.Now()))
		executor := &stubExecutor{result: &ExecutionResult{
			Status:           models.RunStatusCompleted,
			Message:          "done",
			NewVersionID:     "ver-2",
			ObjectsProcessed: 7,
		}}
		w := NewWorker("w-0", "pod-1", store, testQueueConfig(), executor, noopRegistry{})

		require.NoError(t, w.pollAndProcess(ctx))

		run := store.get("run-1")
		assert.Equal(t, models.RunStatusCompleted, run.Status)
		assert.Equal(t, "done", run.Message)
		assert.Equal(t, "ver-2", run.NewVersionID)
		assert.Equal(t, 7, run.ObjectsProcessed)
		assert.Equal(t, []string{"run-1"}, executor.seen)
		assert.Equal(t, 1, w.Health().RunsProcessed)
	})

	t.Run("empty queue", func(t *testing.T) {
		w := NewWorker("w-0", "pod-1", newFakeQueue(), testQueueConfig(),
			&stubExecutor{}, noopRegistry{})
		assert.ErrorIs(t, w.pollAndProcess(ctx), ErrNoRunsAvailable)
	})

	t.Run("at capacity", func(t *testing.T) {
		busy := pendingRun("run-busy", time.Now())
		busy.Status = models.RunStatusInProgress
		store := newFakeQueue(busy, pendingRun("run-1", time.Now()))

		cfg := testQueueConfig()
		cfg.MaxConcurrentRuns = 1
		w := NewWorker("w-0", "pod-1", store, cfg, &stubExecutor{}, noopRegistry{})

		assert.ErrorIs(t, w.pollAndProcess(ctx), ErrAtCapacity)
		assert.Equal(t, models.RunStatusPending, store.get("run-1").Status)
	})

	t.Run("nil executor result marks run failed", func(t *testing.T) {
		store := newFakeQueue(pendingRun("run-1", time.Now()))
		w := NewWorker("w-0", "pod-1", store, testQueueConfig(),
			&stubExecutor{result: nil}, noopRegistry{})

		require.NoError(t, w.pollAndProcess(ctx))

		run := store.get("run-1")
		assert.Equal(t, models.RunStatusFailed, run.Status)
		assert.Contains(t, run.Message, "nil result")
	})

	t.Run("claims oldest pending first", func(t *testing.T) {
		now := time.Now()
		store := newFakeQueue(
			pendingRun("run-new", now),
			pendingRun("run-old", now.Add(-time.Minute)),
		)
		executor := &stubExecutor{result: &ExecutionResult{
			Status: models.RunStatusCompleted,
		}}
		w := NewWorker("w-0", "pod-1", store, testQueueConfig(), executor, noopRegistry{})

		require.NoError(t, w.pollAndProcess(ctx))
		assert.Equal(t, []string{"run-old"}, executor.seen)
	})
}

func TestWorker_StopDuringIdlePolling(t *testing.T) {
	w := NewWorker("w-0", "pod-1", newFakeQueue(), testQueueConfig(),
		&stubExecutor{}, noopRegistry{})

	w.Start(context.Background())
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop in time")
	}

	// Stop is idempotent.
	w.Stop()
}
