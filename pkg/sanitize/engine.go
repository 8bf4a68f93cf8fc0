package sanitize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/buildstream/datashield/pkg/config"
	"github.com/buildstream/datashield/pkg/graph"
	"github.com/buildstream/datashield/pkg/masking"
)

// Inputs are the per-run settings the engine executes with.
type Inputs struct {
	SanitizationMode config.SanitizationMode
	ParameterInput   string
	StrictMode       bool
}

// Outcome summarizes a finished run. Succeeded mirrors the status recorded
// against the model store; Message is the status message shown there.
type Outcome struct {
	Succeeded bool
	Message   string

	ObjectsProcessed int
	NewModelID       string
	NewVersionID     string

	RemovedParameters    int
	AnonymizedParameters int
	RemovalFailures      int
}

// Engine runs the sanitization state machine against one model version.
type Engine struct {
	collab Collaborator
	log    *slog.Logger
}

// NewEngine creates an engine bound to a collaborator.
func NewEngine(collab Collaborator) *Engine {
	if collab == nil {
		panic("NewEngine: collab must not be nil")
	}
	return &Engine{
		collab: collab,
		log:    slog.With("component", "sanitize_engine"),
	}
}

// selectAction builds the action for the requested mode. A non-empty failMsg
// means a configuration failure the run is marked failed with; err carries
// the underlying cause for the caller's records.
func selectAction(in Inputs) (action masking.Action, failMsg string, err error) {
	switch in.SanitizationMode {
	case config.ModePrefixMatching:
		if in.ParameterInput == "" {
			return nil, "No parameter prefix has been set for PREFIX_MATCHING mode.",
				fmt.Errorf("%w: empty prefix", masking.ErrEmptyPattern)
		}
		return masking.NewPrefixRemovalAction(in.ParameterInput, in.StrictMode), "", nil

	case config.ModePatternMatching:
		if in.ParameterInput == "" {
			return nil, "No parameter pattern has been set for PATTERN_MATCHING mode.",
				fmt.Errorf("%w: empty pattern", masking.ErrEmptyPattern)
		}
		a, err := masking.NewPatternRemovalAction(in.ParameterInput, in.StrictMode)
		if err != nil {
			return nil, "Failed to create a valid action.", err
		}
		return a, "", nil

	case config.ModeAnonymization:
		return masking.NewAnonymizationAction(), "", nil

	default:
		return nil, "Failed to create a valid action.",
			fmt.Errorf("unknown sanitization mode %q", in.SanitizationMode)
	}
}

// Run executes the full state machine: select action, receive the version,
// process the tree, report, commit a new version, pin the view, and record
// the run status. Configuration and commit failures mark the run failed and
// return a completed Outcome; infrastructure errors are returned after a
// best-effort failure mark.
func (e *Engine) Run(ctx context.Context, in Inputs) (*Outcome, error) {
	log := e.log.With("mode", in.SanitizationMode, "strict", in.StrictMode)

	action, failMsg, cfgErr := selectAction(in)
	if failMsg != "" {
		log.Warn("Run failed on configuration", "reason", failMsg, "error", cfgErr)
		if err := e.collab.MarkRunFailed(ctx, failMsg); err != nil {
			return nil, fmt.Errorf("failed to mark run failed: %w", err)
		}
		return &Outcome{Succeeded: false, Message: failMsg}, nil
	}

	root, err := e.collab.ReceiveVersion(ctx)
	if err != nil {
		return nil, e.failInfra(ctx, fmt.Errorf("failed to receive version: %w", err))
	}

	processor := NewParameterProcessor(action)
	for _, tc := range graph.Traverse(root) {
		processor.ProcessContext(tc)
	}

	outcome := &Outcome{ObjectsProcessed: processor.ObjectsProcessed()}
	fillCounts(outcome, action)

	if !processor.HasProcessed() {
		const msg = "No parameters were processed."
		log.Info("Run finished without matches")
		if err := e.collab.MarkRunSuccess(ctx, msg); err != nil {
			return nil, fmt.Errorf("failed to mark run success: %w", err)
		}
		outcome.Succeeded = true
		outcome.Message = msg
		return outcome, nil
	}

	if err := action.Report(ctx, e.collab); err != nil {
		return nil, e.failInfra(ctx, fmt.Errorf("failed to attach run report: %w", err))
	}

	// Parameters that matched but could not be removed are surfaced in their
	// own report; the run still succeeds with everything that did work.
	if fr, ok := action.(masking.FailureReporter); ok && fr.FailureCount() > 0 {
		log.Warn("Some parameters could not be removed", "count", fr.FailureCount())
		if err := fr.ReportFailures(ctx, e.collab); err != nil {
			return nil, e.failInfra(ctx, fmt.Errorf("failed to attach failure report: %w", err))
		}
	}

	modelName, err := e.collab.ModelName(ctx)
	if err != nil {
		return nil, e.failInfra(ctx, fmt.Errorf("failed to resolve model name: %w", err))
	}

	newModelID, newVersionID, err := e.collab.CreateNewVersion(ctx, root,
		"processed/"+modelName, "Processed Parameters")
	if err != nil || newVersionID == "" {
		const msg = "Failed to create a new version."
		log.Error("Version creation failed", "error", err)
		if markErr := e.collab.MarkRunFailed(ctx, msg); markErr != nil {
			return nil, fmt.Errorf("failed to mark run failed: %w", markErr)
		}
		outcome.Succeeded = false
		outcome.Message = msg
		return outcome, nil
	}
	outcome.NewModelID = newModelID
	outcome.NewVersionID = newVersionID

	// Pinning the result view is best-effort: the new version exists either
	// way.
	view := fmt.Sprintf("%s@%s", newModelID, newVersionID)
	if err := e.collab.SetContextView(ctx, []string{view}, false); err != nil {
		log.Warn("Failed to pin context view", "view", view, "error", err)
	}

	msg := fmt.Sprintf("Parameters processed successfully with shield function %s", in.SanitizationMode)
	if in.StrictMode {
		msg += " running in strict mode"
	}
	msg += "."

	if err := e.collab.MarkRunSuccess(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to mark run success: %w", err)
	}

	log.Info("Run finished",
		"objects_processed", outcome.ObjectsProcessed,
		"new_version_id", newVersionID)

	outcome.Succeeded = true
	outcome.Message = msg
	return outcome, nil
}

// failInfra marks the run failed with the error text, best-effort, and
// returns the original error.
func (e *Engine) failInfra(ctx context.Context, err error) error {
	if markErr := e.collab.MarkRunFailed(ctx, err.Error()); markErr != nil {
		e.log.Warn("Failed to mark run failed", "error", markErr)
	}
	return err
}

func fillCounts(outcome *Outcome, action masking.Action) {
	switch a := action.(type) {
	case *masking.RemovalAction:
		outcome.RemovedParameters = a.AffectedParameterCount()
		outcome.RemovalFailures = a.FailureCount()
	case *masking.AnonymizationAction:
		outcome.AnonymizedParameters = a.MaskedCount()
	}
}
