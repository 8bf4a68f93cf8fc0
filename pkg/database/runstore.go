package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buildstream/datashield/pkg/config"
	"github.com/buildstream/datashield/pkg/models"
)

var (
	// ErrRunNotFound is returned when a run ID does not exist.
	ErrRunNotFound = errors.New("sanitization run not found")
	// ErrNoPendingRuns is returned by ClaimNext when the queue is empty.
	ErrNoPendingRuns = errors.New("no pending runs available")
)

const runColumns = `id, project_id, model_id, version_id, sanitization_mode,
	parameter_input, strict_mode, status, message, new_version_id,
	objects_processed, worker_id, created_at, started_at, completed_at`

// RunStore persists sanitization runs in PostgreSQL.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a run store backed by the given connection.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Create inserts a new run in pending state.
func (s *RunStore) Create(ctx context.Context, run *models.SanitizationRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sanitization_runs (
			id, project_id, model_id, version_id, sanitization_mode,
			parameter_input, strict_mode, status, objects_processed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.ProjectID, run.ModelID, run.VersionID,
		string(run.SanitizationMode), run.ParameterInput, run.StrictMode,
		string(run.Status), run.ObjectsProcessed, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Get returns the run with the given ID.
func (s *RunStore) Get(ctx context.Context, id string) (*models.SanitizationRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM sanitization_runs WHERE id = $1`, id)
	return scanRun(row)
}

// List returns runs matching the filters, newest first.
func (s *RunStore) List(ctx context.Context, filters models.RunFilters) (*models.RunListResponse, error) {
	var conds []string
	var args []any

	addCond := func(expr string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if filters.Status != "" {
		addCond("status = $%d", string(filters.Status))
	}
	if filters.ProjectID != "" {
		addCond("project_id = $%d", filters.ProjectID)
	}
	if filters.ModelID != "" {
		addCond("model_id = $%d", filters.ModelID)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sanitization_runs`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filters.Offset)
	query := fmt.Sprintf(`SELECT %s FROM sanitization_runs%s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		runColumns, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.SanitizationRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	return &models.RunListResponse{
		Runs:       runs,
		TotalCount: total,
		Limit:      limit,
		Offset:     filters.Offset,
	}, nil
}

// ClaimNext atomically claims the oldest pending run for a worker.
// SKIP LOCKED keeps concurrent workers from claiming the same run.
func (s *RunStore) ClaimNext(ctx context.Context, workerID string) (*models.SanitizationRun, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE sanitization_runs
		SET status = $1, worker_id = $2, started_at = $3
		WHERE id = (
			SELECT id FROM sanitization_runs
			WHERE status = $4
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+runColumns,
		string(models.RunStatusInProgress), workerID, time.Now().UTC(),
		string(models.RunStatusPending))

	run, err := scanRun(row)
	if errors.Is(err, ErrRunNotFound) {
		return nil, ErrNoPendingRuns
	}
	return run, err
}

// Complete moves a run to a terminal state and records its results.
func (s *RunStore) Complete(ctx context.Context, run *models.SanitizationRun) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sanitization_runs
		SET status = $1, message = $2, new_version_id = $3,
			objects_processed = $4, completed_at = $5
		WHERE id = $6`,
		string(run.Status), run.Message, run.NewVersionID,
		run.ObjectsProcessed, time.Now().UTC(), run.ID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// ResetOrphans returns runs claimed before the cutoff but never completed
// back to pending, so another worker can pick them up. Returns the number of
// runs reset.
func (s *RunStore) ResetOrphans(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sanitization_runs
		SET status = $1, worker_id = NULL, started_at = NULL
		WHERE status = $2 AND started_at < $3`,
		string(models.RunStatusPending), string(models.RunStatusInProgress), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to reset orphaned runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}

// CountByStatus returns the number of runs in the given status.
func (s *RunStore) CountByStatus(ctx context.Context, status models.RunStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sanitization_runs WHERE status = $1`,
		string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs by status: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.SanitizationRun, error) {
	var (
		run          models.SanitizationRun
		mode         string
		status       string
		message      sql.NullString
		newVersionID sql.NullString
		workerID     sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&run.ID, &run.ProjectID, &run.ModelID, &run.VersionID, &mode,
		&run.ParameterInput, &run.StrictMode, &status, &message, &newVersionID,
		&run.ObjectsProcessed, &workerID, &run.CreatedAt, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.SanitizationMode = config.SanitizationMode(mode)
	run.Status = models.RunStatus(status)
	run.Message = message.String
	run.NewVersionID = newVersionID.String
	run.WorkerID = workerID.String
	if startedAt.Valid {
		t := startedAt.Time
		run.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}
