package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/buildstream/datashield/pkg/metrics"
	"github.com/buildstream/datashield/pkg/models"
	"github.com/buildstream/datashield/pkg/modelstore"
	"github.com/buildstream/datashield/pkg/sanitize"
)

// Executor runs the sanitization engine against the model store for each
// claimed run.
type Executor struct {
	store   *modelstore.Client
	metrics *metrics.Registry // may be nil (metrics disabled)
}

// NewExecutor creates an executor bound to a model store client.
func NewExecutor(store *modelstore.Client, m *metrics.Registry) *Executor {
	if store == nil {
		panic("NewExecutor: store must not be nil")
	}
	return &Executor{store: store, metrics: m}
}

// Execute runs one sanitization run end to end and returns its terminal
// state. All model-store interaction happens through a client scoped to the
// run's coordinates.
func (e *Executor) Execute(ctx context.Context, run *models.SanitizationRun) *ExecutionResult {
	start := time.Now()

	engine := sanitize.NewEngine(e.store.ForRun(run))
	outcome, err := engine.Run(ctx, sanitize.Inputs{
		SanitizationMode: run.SanitizationMode,
		ParameterInput:   run.ParameterInput,
		StrictMode:       run.StrictMode,
	})

	result := &ExecutionResult{}
	switch {
	case err != nil:
		result.Status = models.RunStatusFailed
		result.Message = err.Error()
		result.Error = err
	case outcome.Succeeded:
		result.Status = models.RunStatusCompleted
		result.Message = outcome.Message
		result.NewVersionID = outcome.NewVersionID
		result.ObjectsProcessed = outcome.ObjectsProcessed
	default:
		result.Status = models.RunStatusFailed
		result.Message = outcome.Message
		result.ObjectsProcessed = outcome.ObjectsProcessed
	}

	e.record(run, result, outcome, time.Since(start))
	return result
}

func (e *Executor) record(run *models.SanitizationRun, result *ExecutionResult, outcome *sanitize.Outcome, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordRun(string(run.SanitizationMode), string(result.Status), elapsed)
	if outcome != nil {
		e.metrics.RecordOutcome(
			outcome.RemovedParameters,
			outcome.AnonymizedParameters,
			outcome.RemovalFailures,
			outcome.ObjectsProcessed)
	}

	slog.Debug("Run execution recorded",
		"run_id", run.ID,
		"status", result.Status,
		"duration", elapsed)
}
