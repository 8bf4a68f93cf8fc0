// Package models defines the shared data types exchanged between the API,
// service, and queue layers.
package models

import (
	"time"

	"github.com/buildstream/datashield/pkg/config"
)

// RunStatus tracks a sanitization run through its lifecycle.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// IsTerminal reports whether the status is a final state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// SanitizationRun is a single request to sanitize one model version.
type SanitizationRun struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	ModelID   string `json:"model_id"`
	VersionID string `json:"version_id"`

	SanitizationMode config.SanitizationMode `json:"sanitization_mode"`
	// ParameterInput is the prefix or pattern to match against parameter
	// names. Unused in anonymization mode.
	ParameterInput string `json:"parameter_input,omitempty"`
	StrictMode     bool   `json:"strict_mode"`

	Status  RunStatus `json:"status"`
	Message string    `json:"message,omitempty"`

	// Results, populated when the run completes.
	NewVersionID     string `json:"new_version_id,omitempty"`
	ObjectsProcessed int    `json:"objects_processed"`

	WorkerID string `json:"worker_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CreateRunRequest contains fields for submitting a new sanitization run.
type CreateRunRequest struct {
	ProjectID string `json:"project_id"`
	ModelID   string `json:"model_id"`
	VersionID string `json:"version_id"`

	SanitizationMode config.SanitizationMode `json:"sanitization_mode,omitempty"`
	ParameterInput   string                  `json:"parameter_input,omitempty"`
	StrictMode       *bool                   `json:"strict_mode,omitempty"`
}

// RunFilters contains filtering options for listing runs.
type RunFilters struct {
	Status    RunStatus `json:"status,omitempty"`
	ProjectID string    `json:"project_id,omitempty"`
	ModelID   string    `json:"model_id,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Offset    int       `json:"offset,omitempty"`
}

// RunListResponse contains a paginated run list.
type RunListResponse struct {
	Runs       []*SanitizationRun `json:"runs"`
	TotalCount int                `json:"total_count"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}
