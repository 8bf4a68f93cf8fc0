// Package services contains the domain logic between the HTTP handlers and
// the database layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildstream/datashield/pkg/config"
	"github.com/buildstream/datashield/pkg/database"
	"github.com/buildstream/datashield/pkg/masking"
	"github.com/buildstream/datashield/pkg/models"
)

// RunStore is the persistence surface RunService needs.
type RunStore interface {
	Create(ctx context.Context, run *models.SanitizationRun) error
	Get(ctx context.Context, id string) (*models.SanitizationRun, error)
	List(ctx context.Context, filters models.RunFilters) (*models.RunListResponse, error)
	CountByStatus(ctx context.Context, status models.RunStatus) (int, error)
}

// RunService handles sanitization run submission and retrieval.
type RunService struct {
	store    RunStore
	defaults *config.Defaults
}

// NewRunService creates a new RunService.
func NewRunService(store RunStore, defaults *config.Defaults) *RunService {
	if store == nil {
		panic("NewRunService: store must not be nil")
	}
	if defaults == nil {
		panic("NewRunService: defaults must not be nil")
	}
	return &RunService{
		store:    store,
		defaults: defaults,
	}
}

// SubmitRun creates a new sanitization run from a submission.
// The run starts in "pending" status and is picked up by the worker pool.
func (s *RunService) SubmitRun(ctx context.Context, req models.CreateRunRequest) (*models.SanitizationRun, error) {
	if req.ProjectID == "" {
		return nil, NewValidationError("project_id", "project ID is required")
	}
	if req.ModelID == "" {
		return nil, NewValidationError("model_id", "model ID is required")
	}
	if req.VersionID == "" {
		return nil, NewValidationError("version_id", "version ID is required")
	}

	// Resolve submission against configured defaults.
	mode := req.SanitizationMode
	if mode == "" {
		mode = s.defaults.SanitizationMode
	}
	if !mode.IsValid() {
		return nil, NewValidationError("sanitization_mode",
			fmt.Sprintf("unknown sanitization mode '%s'", mode))
	}

	strict := s.defaults.StrictMode
	if req.StrictMode != nil {
		strict = *req.StrictMode
	}

	if mode.RequiresParameterInput() {
		if req.ParameterInput == "" {
			return nil, NewValidationError("parameter_input",
				fmt.Sprintf("parameter input is required for %s mode", mode))
		}
		// Reject malformed patterns at submission time rather than letting
		// the worker fail the run later.
		if mode == config.ModePatternMatching {
			if _, err := masking.NewPatternMatcher(req.ParameterInput, strict); err != nil {
				return nil, NewValidationError("parameter_input", err.Error())
			}
		}
	}

	run := &models.SanitizationRun{
		ID:               uuid.New().String(),
		ProjectID:        req.ProjectID,
		ModelID:          req.ModelID,
		VersionID:        req.VersionID,
		SanitizationMode: mode,
		ParameterInput:   req.ParameterInput,
		StrictMode:       strict,
		Status:           models.RunStatusPending,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.store.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// GetRun returns a run by ID.
func (s *RunService) GetRun(ctx context.Context, id string) (*models.SanitizationRun, error) {
	if id == "" {
		return nil, NewValidationError("id", "run ID is required")
	}

	run, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrRunNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs matching the filters.
func (s *RunService) ListRuns(ctx context.Context, filters models.RunFilters) (*models.RunListResponse, error) {
	if filters.Status != "" {
		switch filters.Status {
		case models.RunStatusPending, models.RunStatusInProgress,
			models.RunStatusCompleted, models.RunStatusFailed:
		default:
			return nil, NewValidationError("status",
				fmt.Sprintf("unknown status '%s'", filters.Status))
		}
	}
	if filters.Limit < 0 || filters.Limit > 500 {
		return nil, NewValidationError("limit", "limit must be between 0 and 500")
	}
	if filters.Offset < 0 {
		return nil, NewValidationError("offset", "offset must not be negative")
	}

	resp, err := s.store.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return resp, nil
}

// PendingCount returns the number of runs waiting for a worker.
func (s *RunService) PendingCount(ctx context.Context) (int, error) {
	return s.store.CountByStatus(ctx, models.RunStatusPending)
}
