package services

import (
	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/pkg/logger"
)

// RepositoryAggregator folds author records into per-repository stats
type RepositoryAggregator struct {
	classifier *AuthorClassifier
	resolver   *LanguageResolver
}

// NewRepositoryAggregator creates a new repository aggregator
func NewRepositoryAggregator(classifier *AuthorClassifier, resolver *LanguageResolver) *RepositoryAggregator {
	return &RepositoryAggregator{
		classifier: classifier,
		resolver:   resolver,
	}
}

// ProcessRepository sums records into repository totals. Bot authors are
// left out of every figure, designated authors are counted in both the
// totals and the designated stats.
func (a *RepositoryAggregator) ProcessRepository(records []models.AuthorRecord, displayName string) *models.RepositoryStats {
	stats := models.NewRepositoryStats(displayName)
	bots := 0

	for _, record := range records {
		contribution := record.Stats()

		switch a.classifier.Classify(record.Name) {
		case models.AuthorRoleBot:
			bots++
			continue
		case models.AuthorRoleDesignated:
			stats.DesignatedAuthorStats = stats.DesignatedAuthorStats.Add(contribution)
		}
		stats.RepositoryTotals = stats.RepositoryTotals.Add(contribution)
	}

	logger.WithRepository(displayName).WithField("bots_excluded", bots).
		Debugf("Processed %d author records", len(records))

	return stats
}

// AttachLanguageStats resolves per-extension stats into the repository's
// language map, replacing any previous value
func (a *RepositoryAggregator) AttachLanguageStats(stats *models.RepositoryStats, extensionStats map[string]models.AuthorStats) {
	stats.LanguageStats = a.resolver.AggregateByLanguage(extensionStats)
}
