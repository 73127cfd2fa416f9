package repositories

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alimgiray/gfame/internal/models"
)

// RepositoryStatsRepository stores per-repository stats of a run
type RepositoryStatsRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewRepositoryStatsRepository creates a new RepositoryStatsRepository
func NewRepositoryStatsRepository(db *sql.DB) *RepositoryStatsRepository {
	return &RepositoryStatsRepository{db: db}
}

// CreateForRun stores every repository and its language stats in one
// transaction
func (r *RepositoryStatsRepository) CreateForRun(runID string, stats []*models.RepositoryStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statsQuery := `
		INSERT INTO repository_stats (id, run_id, display_name, designated_loc, designated_commits, designated_files,
			total_loc, total_commits, total_files, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	languageQuery := `
		INSERT INTO repository_language_stats (repository_stats_id, language, loc, commits, files)
		VALUES (?, ?, ?, ?, ?)
	`

	now := time.Now()
	for _, repo := range stats {
		id := uuid.New().String()
		_, err := tx.Exec(statsQuery,
			id,
			runID,
			repo.DisplayName,
			repo.DesignatedAuthorStats.LOC,
			repo.DesignatedAuthorStats.Commits,
			repo.DesignatedAuthorStats.Files,
			repo.RepositoryTotals.LOC,
			repo.RepositoryTotals.Commits,
			repo.RepositoryTotals.Files,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert stats for %s: %w", repo.DisplayName, err)
		}

		for _, language := range repo.LanguageStats.Languages() {
			s := repo.LanguageStats[language]
			if _, err := tx.Exec(languageQuery, id, language, s.LOC, s.Commits, s.Files); err != nil {
				return fmt.Errorf("failed to insert %s language stats for %s: %w", language, repo.DisplayName, err)
			}
		}
	}

	return tx.Commit()
}

// GetByRunID retrieves the repositories of a run in insertion order
func (r *RepositoryStatsRepository) GetByRunID(runID string) ([]*models.RepositoryStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, display_name, designated_loc, designated_commits, designated_files, total_loc, total_commits, total_files
		FROM repository_stats
		WHERE run_id = ?
		ORDER BY rowid ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, err
	}

	result := make([]*models.RepositoryStats, 0)
	byID := make(map[string]*models.RepositoryStats)
	for rows.Next() {
		var id string
		repo := models.NewRepositoryStats("")
		err := rows.Scan(
			&id,
			&repo.DisplayName,
			&repo.DesignatedAuthorStats.LOC,
			&repo.DesignatedAuthorStats.Commits,
			&repo.DesignatedAuthorStats.Files,
			&repo.RepositoryTotals.LOC,
			&repo.RepositoryTotals.Commits,
			&repo.RepositoryTotals.Files,
		)
		if err != nil {
			rows.Close()
			return nil, err
		}
		result = append(result, repo)
		byID[id] = repo
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	languageQuery := `
		SELECT l.repository_stats_id, l.language, l.loc, l.commits, l.files
		FROM repository_language_stats l
		JOIN repository_stats s ON s.id = l.repository_stats_id
		WHERE s.run_id = ?
	`

	langRows, err := r.db.Query(languageQuery, runID)
	if err != nil {
		return nil, err
	}
	defer langRows.Close()

	for langRows.Next() {
		var id, language string
		var s models.AuthorStats
		if err := langRows.Scan(&id, &language, &s.LOC, &s.Commits, &s.Files); err != nil {
			return nil, err
		}
		if repo, ok := byID[id]; ok {
			repo.LanguageStats[language] = s
		}
	}

	return result, langRows.Err()
}
