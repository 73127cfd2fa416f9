package services

import (
	"fmt"
	"sort"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/pkg/logger"
)

// Validation findings
const (
	FindingNoDesignatedContributions = "No designated author contributions found"
	FindingNoRepositories            = "No repositories processed"
	FindingNoLinesOfCode             = "No lines of code found"
	FindingNoBreakdown               = "No repository breakdown data"
)

// CrossRepoAggregator combines repository stats into unified stats
type CrossRepoAggregator struct{}

// NewCrossRepoAggregator creates a new cross repository aggregator
func NewCrossRepoAggregator() *CrossRepoAggregator {
	return &CrossRepoAggregator{}
}

// Aggregate sums every repository into one UnifiedStats. The breakdown keeps
// a copy of each repository keyed by display name, and a later repository
// with the same name replaces the earlier entry while still counting towards
// the totals.
func (a *CrossRepoAggregator) Aggregate(repos []*models.RepositoryStats) *models.UnifiedStats {
	unified := models.NewUnifiedStats()

	for _, repo := range repos {
		if repo == nil {
			continue
		}

		unified.TotalLOC += repo.RepositoryTotals.LOC
		unified.TotalCommits += repo.RepositoryTotals.Commits
		unified.TotalFiles += repo.RepositoryTotals.Files
		unified.DesignatedAuthorUnified = unified.DesignatedAuthorUnified.Add(repo.DesignatedAuthorStats)
		unified.UnifiedLanguageStats.MergeFrom(repo.LanguageStats)

		if _, exists := unified.RepositoryBreakdown[repo.DisplayName]; exists {
			logger.WithRepository(repo.DisplayName).Warnf("Duplicate display name, breakdown entry replaced")
		}
		unified.RepositoryBreakdown[repo.DisplayName] = repo.Clone()
		unified.RepositoriesProcessed++
	}

	unified.LanguageDivergence = models.ComputeLanguageDivergence(unified.TotalLOC, unified.UnifiedLanguageStats)
	return unified
}

// Validate returns advisory findings about unified. An empty result means
// nothing looked wrong.
func (a *CrossRepoAggregator) Validate(unified *models.UnifiedStats) []string {
	var findings []string

	if unified.DesignatedAuthorUnified.LOC == 0 {
		findings = append(findings, FindingNoDesignatedContributions)
	}
	if unified.RepositoriesProcessed == 0 {
		findings = append(findings, FindingNoRepositories)
	}
	if unified.TotalLOC == 0 {
		findings = append(findings, FindingNoLinesOfCode)
	}
	if len(unified.RepositoryBreakdown) == 0 {
		findings = append(findings, FindingNoBreakdown)
	} else if breakdown := unified.BreakdownTotals(); breakdown != unified.Totals() {
		findings = append(findings, fmt.Sprintf(
			"Repository breakdown totals (loc=%d commits=%d files=%d) do not match unified totals (loc=%d commits=%d files=%d)",
			breakdown.LOC, breakdown.Commits, breakdown.Files,
			unified.TotalLOC, unified.TotalCommits, unified.TotalFiles))
	}

	names := make([]string, 0, len(unified.RepositoryBreakdown))
	for name := range unified.RepositoryBreakdown {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		repo := unified.RepositoryBreakdown[name]
		if !repo.RepositoryTotals.Covers(repo.DesignatedAuthorStats) {
			findings = append(findings, fmt.Sprintf("Repository %s: designated author stats exceed repository totals", name))
		}
	}

	return findings
}

// Percentages returns subset as a percentage of total for loc, commits and
// files. A zero total yields 0 for that figure.
func (a *CrossRepoAggregator) Percentages(subset, total models.AuthorStats) (float64, float64, float64) {
	return percentage(subset.LOC, total.LOC),
		percentage(subset.Commits, total.Commits),
		percentage(subset.Files, total.Files)
}

func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
