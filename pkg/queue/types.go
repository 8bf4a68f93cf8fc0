// Package queue provides run queue management and processing infrastructure.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/buildstream/datashield/pkg/models"
)

// Sentinel errors for queue operations.
var (
	// ErrNoRunsAvailable indicates no pending runs are in the queue.
	ErrNoRunsAvailable = errors.New("no runs available")

	// ErrAtCapacity indicates the global concurrent run limit has been reached.
	ErrAtCapacity = errors.New("at capacity")
)

// RunQueue is the persistence surface workers claim and complete runs
// through. The database run store satisfies it.
type RunQueue interface {
	ClaimNext(ctx context.Context, workerID string) (*models.SanitizationRun, error)
	Complete(ctx context.Context, run *models.SanitizationRun) error
	CountByStatus(ctx context.Context, status models.RunStatus) (int, error)
	ResetOrphans(ctx context.Context, cutoff time.Time) (int, error)
}

// RunExecutor executes one claimed run end to end. The executor drives the
// model store itself; the worker only handles claiming, timeout, and the
// terminal status update.
type RunExecutor interface {
	Execute(ctx context.Context, run *models.SanitizationRun) *ExecutionResult
}

// ExecutionResult is the terminal state of one run execution.
type ExecutionResult struct {
	Status  models.RunStatus // completed or failed
	Message string           // status message recorded on the run

	NewVersionID     string
	ObjectsProcessed int

	Error error // error details (if failed)
}

// PoolHealth contains health information for the entire worker pool.
type PoolHealth struct {
	IsHealthy     bool           `json:"is_healthy"`
	DBReachable   bool           `json:"db_reachable"`
	DBError       string         `json:"db_error,omitempty"`
	PodID         string         `json:"pod_id"`
	ActiveWorkers int            `json:"active_workers"`
	TotalWorkers  int            `json:"total_workers"`
	ActiveRuns    int            `json:"active_runs"`
	MaxConcurrent int            `json:"max_concurrent"`
	QueueDepth    int            `json:"queue_depth"`
	WorkerStats   []WorkerHealth `json:"worker_stats"`

	LastOrphanScan   time.Time `json:"last_orphan_scan"`
	OrphansRecovered int       `json:"orphans_recovered"`
}

// WorkerHealth contains health information for a single worker.
type WorkerHealth struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"` // "idle" or "working"
	CurrentRunID  string    `json:"current_run_id,omitempty"`
	RunsProcessed int       `json:"runs_processed"`
	LastActivity  time.Time `json:"last_activity"`
}
