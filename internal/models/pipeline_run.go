package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of a pipeline run
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in-progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// PipelineRun represents one aggregation over a set of repositories
type PipelineRun struct {
	ID                    string     `json:"id"`
	Status                RunStatus  `json:"status"`
	ErrorMessage          *string    `json:"error_message"`
	RepositoriesRequested int        `json:"repositories_requested"`
	RepositoriesProcessed int        `json:"repositories_processed"`
	RepositoriesFailed    int        `json:"repositories_failed"`
	StartedAt             *time.Time `json:"started_at"`
	CompletedAt           *time.Time `json:"completed_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// NewPipelineRun creates a pending run with a generated UUID
func NewPipelineRun(repositoriesRequested int) *PipelineRun {
	now := time.Now()
	return &PipelineRun{
		ID:                    uuid.New().String(),
		Status:                RunStatusPending,
		RepositoriesRequested: repositoriesRequested,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// MarkStarted marks the run as started
func (r *PipelineRun) MarkStarted() {
	now := time.Now()
	r.Status = RunStatusInProgress
	r.StartedAt = &now
	r.UpdatedAt = now
}

// MarkCompleted marks the run as completed
func (r *PipelineRun) MarkCompleted() {
	now := time.Now()
	r.Status = RunStatusCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkFailed marks the run as failed with a message
func (r *PipelineRun) MarkFailed(message string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.ErrorMessage = &message
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// IsCompleted checks if the run is completed
func (r *PipelineRun) IsCompleted() bool {
	return r.Status == RunStatusCompleted
}

// IsFailed checks if the run is failed
func (r *PipelineRun) IsFailed() bool {
	return r.Status == RunStatusFailed
}

// Stages at which a repository can fail
const (
	StageCheckout = "checkout"
	StageAuthors  = "authors"
	StageValidate = "validate"
)

// RepositoryFailure records why a repository produced no stats in a run
type RepositoryFailure struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	Repository   string    `json:"repository"`
	Stage        string    `json:"stage"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewRepositoryFailure creates a failure record with a generated UUID
func NewRepositoryFailure(runID, repository, stage string, err error) *RepositoryFailure {
	return &RepositoryFailure{
		ID:           uuid.New().String(),
		RunID:        runID,
		Repository:   repository,
		Stage:        stage,
		ErrorMessage: err.Error(),
		CreatedAt:    time.Now(),
	}
}

// RepositoryTarget is one repository queued for processing
type RepositoryTarget struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Path        string `json:"path"`
	CloneURL    string `json:"clone_url,omitempty"`
}
