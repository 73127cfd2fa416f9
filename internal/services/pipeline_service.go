package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/internal/repositories"
	"github.com/alimgiray/gfame/internal/workers"
	"github.com/alimgiray/gfame/pkg/config"
	"github.com/alimgiray/gfame/pkg/logger"
)

// RunResult is everything a pipeline run produced
type RunResult struct {
	Run          *models.PipelineRun         `json:"run"`
	Repositories []*models.RepositoryStats   `json:"repositories"`
	Unified      *models.UnifiedStats        `json:"unified"`
	Findings     []string                    `json:"validation_errors"`
	Failures     []*models.RepositoryFailure `json:"failures"`
}

// RunStore persists pipeline runs. Any field may be nil to skip that part.
type RunStore struct {
	Runs     *repositories.PipelineRunRepository
	Stats    *repositories.RepositoryStatsRepository
	Unified  *repositories.UnifiedStatsRepository
	Failures *repositories.RepositoryFailureRepository
}

// PipelineService runs checkout, extraction and aggregation for a set of
// repositories
type PipelineService struct {
	checkout    *CheckoutService
	extractor   *BlameExtractor
	aggregator  *RepositoryAggregator
	cross       *CrossRepoAggregator
	store       RunStore
	workerCount int
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	checkout *CheckoutService,
	extractor *BlameExtractor,
	aggregator *RepositoryAggregator,
	cross *CrossRepoAggregator,
	store RunStore,
	workerCount int,
) *PipelineService {
	return &PipelineService{
		checkout:    checkout,
		extractor:   extractor,
		aggregator:  aggregator,
		cross:       cross,
		store:       store,
		workerCount: workerCount,
	}
}

// NewPipelineServiceFromConfig wires a pipeline from configuration
func NewPipelineServiceFromConfig(cfg *config.Config, runner CommandRunner, store RunStore) (*PipelineService, error) {
	classifier, err := NewAuthorClassifier(cfg.AuthorPatterns.Designated, cfg.AuthorPatterns.Bots)
	if err != nil {
		return nil, err
	}

	extractor, err := NewBlameExtractor(
		runner,
		time.Duration(cfg.Processing.TimeoutSeconds)*time.Second,
		cfg.Processing.BlameCommand,
		cfg.Processing.LineCounterCommand,
	)
	if err != nil {
		return nil, &config.ConfigError{Problems: []string{err.Error()}}
	}

	return NewPipelineService(
		NewCheckoutService(runner, cfg.Processing.ReposDir, cfg.GitHub.Token),
		extractor,
		NewRepositoryAggregator(classifier, NewLanguageResolver(cfg.Languages.Exclude...)),
		NewCrossRepoAggregator(),
		store,
		cfg.Processing.Workers,
	), nil
}

// TargetsFromConfig lists the configured repositories in file order
func TargetsFromConfig(cfg *config.Config) []models.RepositoryTarget {
	targets := make([]models.RepositoryTarget, 0, len(cfg.Repositories))
	for _, repo := range cfg.Repositories {
		target := models.RepositoryTarget{
			Name:        repo.Name,
			DisplayName: repo.DisplayNameFor(),
			Path:        repo.Path,
		}
		if target.Path == "" {
			target.CloneURL = cfg.CloneURLFor(repo)
		}
		targets = append(targets, target)
	}
	return targets
}

// Process turns one repository into stats. Only checkout and author
// extraction are fatal, language and line counter failures leave those
// parts empty.
func (s *PipelineService) Process(ctx context.Context, target models.RepositoryTarget) (*models.RepositoryStats, error) {
	log := logger.WithRepository(target.DisplayName)

	repoPath, err := s.checkout.Checkout(ctx, target)
	if err != nil {
		return nil, err
	}

	records, err := s.extractor.ExtractAuthors(ctx, repoPath)
	if err != nil {
		var extractionErr *ExtractionError
		if errors.As(err, &extractionErr) {
			extractionErr.Repository = target.DisplayName
		}
		return nil, err
	}

	stats := s.aggregator.ProcessRepository(records, target.DisplayName)

	extensionStats, err := s.extractor.ExtractExtensionStats(ctx, repoPath)
	if err != nil {
		log.WithError(err).Warnf("Language extraction failed, language stats left empty")
	}
	s.aggregator.AttachLanguageStats(stats, extensionStats)

	lineCounts, err := s.extractor.ExtractLineCounts(ctx, repoPath)
	if err != nil {
		log.WithError(err).Warnf("Line counter failed, ignoring")
	}
	stats.LineCounterStats = lineCounts

	if err := stats.Validate(); err != nil {
		return nil, &ExtractionError{Repository: target.DisplayName, Stage: models.StageValidate, Err: err}
	}

	log.WithFields(map[string]interface{}{
		"loc":            stats.RepositoryTotals.LOC,
		"designated_loc": stats.DesignatedAuthorStats.LOC,
		"languages":      len(stats.LanguageStats),
	}).Info("Repository processed")

	return stats, nil
}

// Run processes every target, aggregates the successful ones and records
// the run. It returns ErrNoRepositoriesProcessed when nothing succeeded.
func (s *PipelineService) Run(ctx context.Context, targets []models.RepositoryTarget) (*RunResult, error) {
	run := models.NewPipelineRun(len(targets))
	log := logger.WithField("run_id", run.ID)

	if s.store.Runs != nil {
		if err := s.store.Runs.Create(run); err != nil {
			return nil, fmt.Errorf("failed to create pipeline run: %w", err)
		}
	}

	run.MarkStarted()
	s.updateRun(run)
	log.Infof("Pipeline run started for %d repositories", len(targets))

	results := workers.NewWorkerManager(s, s.workerCount).Run(ctx, targets)

	result := &RunResult{Run: run}
	for _, r := range results {
		if r.Err != nil {
			result.Failures = append(result.Failures, s.recordFailure(run.ID, r))
			continue
		}
		result.Repositories = append(result.Repositories, r.Stats)
	}

	run.RepositoriesProcessed = len(result.Repositories)
	run.RepositoriesFailed = len(result.Failures)

	if len(result.Repositories) == 0 {
		msg := ErrNoRepositoriesProcessed.Error()
		if ctxErr := ctx.Err(); ctxErr != nil {
			msg = fmt.Sprintf("%s: %v", msg, ctxErr)
		}
		run.MarkFailed(msg)
		s.updateRun(run)
		log.Errorf("Pipeline run failed: %s", msg)
		return result, ErrNoRepositoriesProcessed
	}

	result.Unified = s.cross.Aggregate(result.Repositories)
	result.Findings = s.cross.Validate(result.Unified)
	for _, finding := range result.Findings {
		log.Warnf("Validation: %s", finding)
	}

	if err := s.persist(run.ID, result); err != nil {
		run.MarkFailed(err.Error())
		s.updateRun(run)
		return result, err
	}

	run.MarkCompleted()
	s.updateRun(run)

	log.WithFields(map[string]interface{}{
		"processed": run.RepositoriesProcessed,
		"failed":    run.RepositoriesFailed,
		"total_loc": result.Unified.TotalLOC,
	}).Info("Pipeline run completed")

	return result, nil
}

func (s *PipelineService) recordFailure(runID string, r workers.Result) *models.RepositoryFailure {
	stage := models.StageCheckout
	var extractionErr *ExtractionError
	if errors.As(r.Err, &extractionErr) {
		stage = extractionErr.Stage
	}

	failure := models.NewRepositoryFailure(runID, r.Target.DisplayName, stage, r.Err)
	logger.WithRepository(r.Target.DisplayName).WithField("stage", stage).WithError(r.Err).Warnf("Repository skipped")

	if s.store.Failures != nil {
		if err := s.store.Failures.Create(failure); err != nil {
			logger.WithError(err).Errorf("Failed to record failure for %s", r.Target.DisplayName)
		}
	}
	return failure
}

func (s *PipelineService) persist(runID string, result *RunResult) error {
	if s.store.Stats != nil {
		if err := s.store.Stats.CreateForRun(runID, result.Repositories); err != nil {
			return fmt.Errorf("failed to store repository stats: %w", err)
		}
	}
	if s.store.Unified != nil {
		if err := s.store.Unified.Save(runID, result.Unified, result.Findings); err != nil {
			return fmt.Errorf("failed to store unified stats: %w", err)
		}
	}
	return nil
}

func (s *PipelineService) updateRun(run *models.PipelineRun) {
	if s.store.Runs == nil {
		return
	}
	if err := s.store.Runs.Update(run); err != nil {
		logger.WithField("run_id", run.ID).WithError(err).Errorf("Failed to update pipeline run")
	}
}
