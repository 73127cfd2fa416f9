package services

import (
	"errors"
	"fmt"
)

var (
	// ErrExtractionTimeout is returned when an external tool exceeds its timeout
	ErrExtractionTimeout = errors.New("external tool timed out")
	// ErrInvalidToolOutput is returned when tool output fails validation
	ErrInvalidToolOutput = errors.New("invalid tool output")
	// ErrNotARepository is returned when the path is not a git working copy
	ErrNotARepository = errors.New("path is not a git repository")
	// ErrNoRepositoriesProcessed is returned when a run produced no repository stats
	ErrNoRepositoriesProcessed = errors.New("no repositories processed")
)

// ExtractionError means a repository could not be processed at all. It is
// never turned into an empty author list.
type ExtractionError struct {
	Repository string
	Stage      string
	Err        error
}

func (e *ExtractionError) Error() string {
	if e.Repository == "" {
		return fmt.Sprintf("%s extraction failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s extraction failed for %s: %v", e.Stage, e.Repository, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
