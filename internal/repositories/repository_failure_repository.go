package repositories

import (
	"database/sql"
	"sync"

	"github.com/alimgiray/gfame/internal/models"
)

// RepositoryFailureRepository handles database operations for repository failures
type RepositoryFailureRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewRepositoryFailureRepository creates a new RepositoryFailureRepository
func NewRepositoryFailureRepository(db *sql.DB) *RepositoryFailureRepository {
	return &RepositoryFailureRepository{db: db}
}

// Create creates a new failure record
func (r *RepositoryFailureRepository) Create(failure *models.RepositoryFailure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO repository_failures (id, run_id, repository, stage, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		failure.ID,
		failure.RunID,
		failure.Repository,
		failure.Stage,
		failure.ErrorMessage,
		failure.CreatedAt,
	)
	return err
}

// GetByRunID retrieves the failures of a run
func (r *RepositoryFailureRepository) GetByRunID(runID string) ([]*models.RepositoryFailure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, run_id, repository, stage, error_message, created_at
		FROM repository_failures
		WHERE run_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	failures := make([]*models.RepositoryFailure, 0)
	for rows.Next() {
		failure := &models.RepositoryFailure{}
		err := rows.Scan(
			&failure.ID,
			&failure.RunID,
			&failure.Repository,
			&failure.Stage,
			&failure.ErrorMessage,
			&failure.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		failures = append(failures, failure)
	}

	return failures, rows.Err()
}
