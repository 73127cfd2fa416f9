package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorStatsAdd(t *testing.T) {
	a := NewAuthorStats(100, 10, 5)
	b := NewAuthorStats(20, 2, 1)

	sum := a.Add(b)

	assert.Equal(t, AuthorStats{LOC: 120, Commits: 12, Files: 6}, sum)
	// operands are untouched
	assert.Equal(t, AuthorStats{LOC: 100, Commits: 10, Files: 5}, a)
	assert.Equal(t, AuthorStats{LOC: 20, Commits: 2, Files: 1}, b)
}

func TestNewAuthorStatsClampsNegatives(t *testing.T) {
	assert.Equal(t, AuthorStats{LOC: 0, Commits: 3, Files: 0}, NewAuthorStats(-5, 3, -1))
	assert.Equal(t, AuthorRecord{Name: "x", LOC: 0, Commits: 0, Files: 2}, NewAuthorRecord("x", -1, -2, 2))
}

func TestAuthorStatsCovers(t *testing.T) {
	total := NewAuthorStats(10, 10, 10)

	assert.True(t, total.Covers(NewAuthorStats(10, 0, 10)))
	assert.False(t, total.Covers(NewAuthorStats(11, 0, 0)))
	assert.False(t, total.Covers(NewAuthorStats(0, 0, 11)))
	assert.True(t, AuthorStats{}.IsZero())
}

func TestLanguageStatsMergeAndTotal(t *testing.T) {
	a := LanguageStats{"Go": NewAuthorStats(100, 1, 2)}
	b := LanguageStats{"Go": NewAuthorStats(50, 0, 1), "Python": NewAuthorStats(10, 0, 1)}

	merged := a.Clone()
	merged.MergeFrom(b)

	assert.Equal(t, LanguageStats{
		"Go":     NewAuthorStats(150, 1, 3),
		"Python": NewAuthorStats(10, 0, 1),
	}, merged)
	assert.Equal(t, NewAuthorStats(160, 1, 4), merged.Total())
	assert.Equal(t, LanguageStats{"Go": NewAuthorStats(100, 1, 2)}, a, "clone must not alias the source")
}

func TestLanguageStatsLanguagesOrder(t *testing.T) {
	stats := LanguageStats{
		"Rust":   NewAuthorStats(10, 0, 0),
		"Go":     NewAuthorStats(300, 0, 0),
		"Python": NewAuthorStats(10, 0, 0),
	}

	assert.Equal(t, []string{"Go", "Python", "Rust"}, stats.Languages())
}

func TestRepositoryStatsValidate(t *testing.T) {
	stats := NewRepositoryStats("api")
	stats.RepositoryTotals = NewAuthorStats(100, 10, 5)
	stats.DesignatedAuthorStats = NewAuthorStats(50, 5, 5)
	assert.NoError(t, stats.Validate())

	stats.DesignatedAuthorStats = NewAuthorStats(150, 5, 5)
	assert.Error(t, stats.Validate())

	assert.Error(t, NewRepositoryStats("").Validate())
}

func TestRepositoryStatsCloneIsDeep(t *testing.T) {
	stats := NewRepositoryStats("api")
	stats.LanguageStats["Go"] = NewAuthorStats(10, 0, 1)
	stats.LineCounterStats = map[string]LineCount{"Go": {Code: 9, Files: 1}}

	clone := stats.Clone()
	clone.LanguageStats["Go"] = NewAuthorStats(99, 0, 1)
	clone.LineCounterStats["Go"] = LineCount{Code: 1}

	assert.Equal(t, 10, stats.LanguageStats["Go"].LOC)
	assert.Equal(t, 9, stats.LineCounterStats["Go"].Code)
}

func TestComputeLanguageDivergence(t *testing.T) {
	divergence := ComputeLanguageDivergence(800, LanguageStats{"Python": NewAuthorStats(500, 0, 1)})

	assert.Equal(t, 800, divergence.AuthorLOC)
	assert.Equal(t, 500, divergence.LanguageLOC)
	assert.Equal(t, 300, divergence.DivergenceLOC)
	assert.InDelta(t, 0.375, divergence.Ratio, 1e-9)

	assert.Equal(t, 0.0, ComputeLanguageDivergence(0, LanguageStats{}).Ratio)
}

func TestUnifiedStatsAverages(t *testing.T) {
	unified := NewUnifiedStats()
	assert.Equal(t, Averages{}, unified.Averages())

	unified.TotalLOC = 300
	unified.TotalCommits = 30
	unified.TotalFiles = 15
	unified.RepositoriesProcessed = 2

	assert.Equal(t, Averages{
		LOCPerRepository:     150,
		CommitsPerRepository: 15,
		FilesPerRepository:   7.5,
		LOCPerFile:           20,
	}, unified.Averages())
}

func TestPipelineRunLifecycle(t *testing.T) {
	run := NewPipelineRun(3)
	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusPending, run.Status)

	run.MarkStarted()
	assert.Equal(t, RunStatusInProgress, run.Status)
	assert.NotNil(t, run.StartedAt)

	run.MarkCompleted()
	assert.True(t, run.IsCompleted())
	assert.NotNil(t, run.CompletedAt)

	failed := NewPipelineRun(1)
	failed.MarkFailed("no repositories processed")
	assert.True(t, failed.IsFailed())
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "no repositories processed", *failed.ErrorMessage)
}

func TestNewRepositoryFailure(t *testing.T) {
	failure := NewRepositoryFailure("run-1", "api", StageAuthors, errors.New("git fame timed out"))

	assert.Equal(t, "run-1", failure.RunID)
	assert.Equal(t, "api", failure.Repository)
	assert.Equal(t, StageAuthors, failure.Stage)
	assert.Equal(t, "git fame timed out", failure.ErrorMessage)
	assert.NotEmpty(t, failure.ID)
}
