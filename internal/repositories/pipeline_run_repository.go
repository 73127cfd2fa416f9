package repositories

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/alimgiray/gfame/internal/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// PipelineRunRepository handles database operations for pipeline runs
type PipelineRunRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewPipelineRunRepository creates a new PipelineRunRepository
func NewPipelineRunRepository(db *sql.DB) *PipelineRunRepository {
	return &PipelineRunRepository{db: db}
}

const pipelineRunColumns = `id, status, error_message, repositories_requested, repositories_processed, repositories_failed, started_at, completed_at, created_at, updated_at`

// Create creates a new pipeline run
func (r *PipelineRunRepository) Create(run *models.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO pipeline_runs (` + pipelineRunColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID,
		run.Status,
		run.ErrorMessage,
		run.RepositoriesRequested,
		run.RepositoriesProcessed,
		run.RepositoriesFailed,
		run.StartedAt,
		run.CompletedAt,
		run.CreatedAt,
		run.UpdatedAt,
	)
	return err
}

// Update updates an existing pipeline run
func (r *PipelineRunRepository) Update(run *models.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		UPDATE pipeline_runs
		SET status = ?, error_message = ?, repositories_requested = ?, repositories_processed = ?,
			repositories_failed = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.Status,
		run.ErrorMessage,
		run.RepositoriesRequested,
		run.RepositoriesProcessed,
		run.RepositoriesFailed,
		run.StartedAt,
		run.CompletedAt,
		run.UpdatedAt,
		run.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a pipeline run by ID
func (r *PipelineRunRepository) GetByID(id string) (*models.PipelineRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + pipelineRunColumns + ` FROM pipeline_runs WHERE id = ?`

	run, err := scanPipelineRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// GetLatest retrieves the most recently created pipeline run
func (r *PipelineRunRepository) GetLatest() (*models.PipelineRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + pipelineRunColumns + ` FROM pipeline_runs ORDER BY created_at DESC, rowid DESC LIMIT 1`

	run, err := scanPipelineRun(r.db.QueryRow(query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// List retrieves up to limit runs, newest first
func (r *PipelineRunRepository) List(limit int) ([]*models.PipelineRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + pipelineRunColumns + ` FROM pipeline_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*models.PipelineRun, 0)
	for rows.Next() {
		run, err := scanPipelineRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPipelineRun(row rowScanner) (*models.PipelineRun, error) {
	run := &models.PipelineRun{}
	err := row.Scan(
		&run.ID,
		&run.Status,
		&run.ErrorMessage,
		&run.RepositoriesRequested,
		&run.RepositoriesProcessed,
		&run.RepositoriesFailed,
		&run.StartedAt,
		&run.CompletedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
