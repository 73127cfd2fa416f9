package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alimgiray/gfame/internal/models"
)

// UnifiedStatsRepository stores the unified snapshot of a run as JSON
type UnifiedStatsRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewUnifiedStatsRepository creates a new UnifiedStatsRepository
func NewUnifiedStatsRepository(db *sql.DB) *UnifiedStatsRepository {
	return &UnifiedStatsRepository{db: db}
}

// Save stores or replaces the snapshot of a run
func (r *UnifiedStatsRepository) Save(runID string, unified *models.UnifiedStats, findings []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payload, err := json.Marshal(unified)
	if err != nil {
		return fmt.Errorf("failed to encode unified stats: %w", err)
	}
	if findings == nil {
		findings = []string{}
	}
	encodedFindings, err := json.Marshal(findings)
	if err != nil {
		return fmt.Errorf("failed to encode validation findings: %w", err)
	}

	query := `
		INSERT INTO unified_stats (run_id, payload, validation_errors, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload, validation_errors = excluded.validation_errors
	`

	_, err = r.db.Exec(query, runID, string(payload), string(encodedFindings), time.Now())
	return err
}

// GetByRunID retrieves the snapshot and validation findings of a run
func (r *UnifiedStatsRepository) GetByRunID(runID string) (*models.UnifiedStats, []string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var payload, encodedFindings string
	err := r.db.QueryRow(`SELECT payload, validation_errors FROM unified_stats WHERE run_id = ?`, runID).
		Scan(&payload, &encodedFindings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	unified := models.NewUnifiedStats()
	if err := json.Unmarshal([]byte(payload), unified); err != nil {
		return nil, nil, fmt.Errorf("failed to decode unified stats: %w", err)
	}
	var findings []string
	if err := json.Unmarshal([]byte(encodedFindings), &findings); err != nil {
		return nil, nil, fmt.Errorf("failed to decode validation findings: %w", err)
	}

	return unified, findings, nil
}
