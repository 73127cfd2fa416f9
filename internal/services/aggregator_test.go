package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimgiray/gfame/internal/models"
)

func newTestAggregator(t *testing.T) *RepositoryAggregator {
	t.Helper()
	classifier, err := NewAuthorClassifier([]string{"alice"}, []string{`\[bot\]`})
	require.NoError(t, err)
	return NewRepositoryAggregator(classifier, NewLanguageResolver())
}

func repoWithTotals(name string, loc, commits, files int) *models.RepositoryStats {
	stats := models.NewRepositoryStats(name)
	stats.RepositoryTotals = models.NewAuthorStats(loc, commits, files)
	return stats
}

func TestProcessRepositoryExcludesBots(t *testing.T) {
	records := []models.AuthorRecord{
		models.NewAuthorRecord("alice", 100, 10, 5),
		models.NewAuthorRecord("bot[bot]", 50, 5, 2),
		models.NewAuthorRecord("bob", 20, 2, 1),
	}

	stats := newTestAggregator(t).ProcessRepository(records, "api")

	assert.Equal(t, "api", stats.DisplayName)
	assert.Equal(t, models.NewAuthorStats(120, 12, 6), stats.RepositoryTotals)
	assert.Equal(t, models.NewAuthorStats(100, 10, 5), stats.DesignatedAuthorStats)
	assert.NoError(t, stats.Validate())
}

func TestProcessRepositoryIsDeterministic(t *testing.T) {
	aggregator := newTestAggregator(t)
	records := []models.AuthorRecord{
		models.NewAuthorRecord("Alice", 7, 1, 1),
		models.NewAuthorRecord("dependabot[bot]", 1000, 100, 40),
		models.NewAuthorRecord("", 3, 1, 1),
	}

	first := aggregator.ProcessRepository(records, "web")
	second := aggregator.ProcessRepository(records, "web")

	assert.Equal(t, first, second)
	assert.Equal(t, models.NewAuthorStats(10, 2, 2), first.RepositoryTotals)

	// removing a bot record changes nothing
	withoutBot := aggregator.ProcessRepository([]models.AuthorRecord{records[0], records[2]}, "web")
	assert.Equal(t, first, withoutBot)
}

func TestProcessRepositoryEmpty(t *testing.T) {
	stats := newTestAggregator(t).ProcessRepository(nil, "empty")

	assert.True(t, stats.RepositoryTotals.IsZero())
	assert.True(t, stats.DesignatedAuthorStats.IsZero())
	assert.NotNil(t, stats.LanguageStats)
}

func TestAttachLanguageStats(t *testing.T) {
	aggregator := newTestAggregator(t)
	stats := aggregator.ProcessRepository([]models.AuthorRecord{models.NewAuthorRecord("alice", 800, 3, 2)}, "api")

	aggregator.AttachLanguageStats(stats, map[string]models.AuthorStats{".py": {LOC: 500}, ".json": {LOC: 300}})

	assert.Equal(t, models.LanguageStats{"Python": {LOC: 500}}, stats.LanguageStats)
	assert.Equal(t, 800, stats.RepositoryTotals.LOC)
}

func TestAggregateSumsRepositories(t *testing.T) {
	a := repoWithTotals("api", 100, 10, 5)
	a.DesignatedAuthorStats = models.NewAuthorStats(40, 4, 2)
	a.LanguageStats["Go"] = models.NewAuthorStats(90, 0, 4)
	b := repoWithTotals("web", 200, 20, 10)
	b.LanguageStats["Go"] = models.NewAuthorStats(10, 0, 1)
	b.LanguageStats["TypeScript"] = models.NewAuthorStats(150, 0, 8)

	unified := NewCrossRepoAggregator().Aggregate([]*models.RepositoryStats{a, b})

	assert.Equal(t, 300, unified.TotalLOC)
	assert.Equal(t, 30, unified.TotalCommits)
	assert.Equal(t, 15, unified.TotalFiles)
	assert.Equal(t, 2, unified.RepositoriesProcessed)
	assert.Equal(t, models.NewAuthorStats(40, 4, 2), unified.DesignatedAuthorUnified)
	assert.Equal(t, models.LanguageStats{
		"Go":         models.NewAuthorStats(100, 0, 5),
		"TypeScript": models.NewAuthorStats(150, 0, 8),
	}, unified.UnifiedLanguageStats)
	assert.Equal(t, models.LanguageDivergence{AuthorLOC: 300, LanguageLOC: 250, DivergenceLOC: 50, Ratio: 50.0 / 300.0}, unified.LanguageDivergence)
	assert.Len(t, unified.RepositoryBreakdown, 2)
}

func TestAggregateBreakdownIsIndependentCopy(t *testing.T) {
	a := repoWithTotals("api", 100, 10, 5)
	a.LanguageStats["Go"] = models.NewAuthorStats(100, 0, 5)

	unified := NewCrossRepoAggregator().Aggregate([]*models.RepositoryStats{a})
	a.LanguageStats["Go"] = models.NewAuthorStats(1, 0, 1)
	a.RepositoryTotals = models.AuthorStats{}

	assert.Equal(t, 100, unified.RepositoryBreakdown["api"].LanguageStats["Go"].LOC)
	assert.Equal(t, 100, unified.RepositoryBreakdown["api"].RepositoryTotals.LOC)
	assert.Equal(t, 100, unified.UnifiedLanguageStats["Go"].LOC)
}

func TestAggregateOrderIndependent(t *testing.T) {
	a := repoWithTotals("api", 100, 10, 5)
	a.LanguageStats["Go"] = models.NewAuthorStats(60, 0, 3)
	b := repoWithTotals("web", 200, 20, 10)
	b.LanguageStats["Go"] = models.NewAuthorStats(10, 0, 1)
	c := repoWithTotals("cli", 5, 1, 1)

	aggregator := NewCrossRepoAggregator()
	forward := aggregator.Aggregate([]*models.RepositoryStats{a, b, c})
	reverse := aggregator.Aggregate([]*models.RepositoryStats{c, b, a})

	assert.Equal(t, forward, reverse)
	assert.Equal(t, forward, aggregator.Aggregate([]*models.RepositoryStats{a, b, c}))
}

func TestAggregateDuplicateDisplayNameLastWins(t *testing.T) {
	first := repoWithTotals("api", 100, 10, 5)
	second := repoWithTotals("api", 200, 20, 10)

	aggregator := NewCrossRepoAggregator()
	unified := aggregator.Aggregate([]*models.RepositoryStats{first, second})

	require.Len(t, unified.RepositoryBreakdown, 1)
	assert.Equal(t, second, unified.RepositoryBreakdown["api"])
	assert.Equal(t, 300, unified.TotalLOC)
	assert.Equal(t, 2, unified.RepositoriesProcessed)

	findings := aggregator.Validate(unified)
	require.Len(t, findings, 2)
	assert.Equal(t, FindingNoDesignatedContributions, findings[0])
	assert.Contains(t, findings[1], "do not match")
}

func TestAggregateEmpty(t *testing.T) {
	aggregator := NewCrossRepoAggregator()
	unified := aggregator.Aggregate(nil)

	assert.Equal(t, 0, unified.RepositoriesProcessed)
	assert.Empty(t, unified.RepositoryBreakdown)
	assert.Equal(t, []string{
		FindingNoDesignatedContributions,
		FindingNoRepositories,
		FindingNoLinesOfCode,
		FindingNoBreakdown,
	}, aggregator.Validate(unified))
}

func TestValidate(t *testing.T) {
	aggregator := NewCrossRepoAggregator()

	t.Run("healthy", func(t *testing.T) {
		repo := repoWithTotals("api", 100, 10, 5)
		repo.DesignatedAuthorStats = models.NewAuthorStats(50, 5, 2)

		assert.Empty(t, aggregator.Validate(aggregator.Aggregate([]*models.RepositoryStats{repo})))
	})

	t.Run("no designated contributions", func(t *testing.T) {
		findings := aggregator.Validate(aggregator.Aggregate([]*models.RepositoryStats{repoWithTotals("api", 100, 10, 5)}))

		assert.Equal(t, []string{FindingNoDesignatedContributions}, findings)
	})

	t.Run("subset violation", func(t *testing.T) {
		repo := repoWithTotals("api", 10, 1, 1)
		repo.DesignatedAuthorStats = models.NewAuthorStats(50, 1, 1)

		findings := aggregator.Validate(aggregator.Aggregate([]*models.RepositoryStats{repo}))

		require.Len(t, findings, 1)
		assert.Contains(t, findings[0], "Repository api")
	})
}

func TestPercentages(t *testing.T) {
	aggregator := NewCrossRepoAggregator()

	tests := []struct {
		name                string
		subset, total       models.AuthorStats
		loc, commits, files float64
	}{
		{"half", models.NewAuthorStats(50, 5, 1), models.NewAuthorStats(100, 10, 4), 50, 50, 25},
		{"zero totals", models.NewAuthorStats(0, 0, 0), models.AuthorStats{}, 0, 0, 0},
		{"partial zero", models.NewAuthorStats(3, 0, 1), models.NewAuthorStats(12, 0, 1), 25, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, commits, files := aggregator.Percentages(tt.subset, tt.total)
			assert.InDelta(t, tt.loc, loc, 1e-9)
			assert.InDelta(t, tt.commits, commits, 1e-9)
			assert.InDelta(t, tt.files, files, 1e-9)
		})
	}
}
