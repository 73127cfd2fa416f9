package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alimgiray/gfame/internal/models"
	"github.com/alimgiray/gfame/internal/repositories"
	"github.com/alimgiray/gfame/internal/services"
	"github.com/alimgiray/gfame/pkg/logger"
)

const maxRunsLimit = 200

// RunHandler serves stored pipeline runs as JSON
type RunHandler struct {
	runRepo     *repositories.PipelineRunRepository
	statsRepo   *repositories.RepositoryStatsRepository
	unifiedRepo *repositories.UnifiedStatsRepository
	failureRepo *repositories.RepositoryFailureRepository
	cross       *services.CrossRepoAggregator
}

func NewRunHandler(
	runRepo *repositories.PipelineRunRepository,
	statsRepo *repositories.RepositoryStatsRepository,
	unifiedRepo *repositories.UnifiedStatsRepository,
	failureRepo *repositories.RepositoryFailureRepository,
	cross *services.CrossRepoAggregator,
) *RunHandler {
	return &RunHandler{
		runRepo:     runRepo,
		statsRepo:   statsRepo,
		unifiedRepo: unifiedRepo,
		failureRepo: failureRepo,
		cross:       cross,
	}
}

type repositoryResponse struct {
	*models.RepositoryStats
	DesignatedPercentages percentagesResponse `json:"designated_percentages"`
}

type percentagesResponse struct {
	LOC     float64 `json:"loc"`
	Commits float64 `json:"commits"`
	Files   float64 `json:"files"`
}

type languageResponse struct {
	Language string  `json:"language"`
	LOC      int     `json:"loc"`
	Commits  int     `json:"commits"`
	Files    int     `json:"files"`
	Share    float64 `json:"share"`
}

// ListRuns returns the newest runs, at most ?limit= of them
func (h *RunHandler) ListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxRunsLimit)
	}

	runs, err := h.runRepo.List(limit)
	if err != nil {
		h.internalError(c, "Failed to list runs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// LatestRun returns the most recent run with its unified stats
func (h *RunHandler) LatestRun(c *gin.Context) {
	run, err := h.runRepo.GetLatest()
	if err != nil {
		h.lookupError(c, err)
		return
	}
	h.writeRun(c, run)
}

// GetRun returns one run with its unified stats and failures
func (h *RunHandler) GetRun(c *gin.Context) {
	run, err := h.runRepo.GetByID(c.Param("id"))
	if err != nil {
		h.lookupError(c, err)
		return
	}
	h.writeRun(c, run)
}

func (h *RunHandler) writeRun(c *gin.Context, run *models.PipelineRun) {
	failures, err := h.failureRepo.GetByRunID(run.ID)
	if err != nil {
		h.internalError(c, "Failed to load failures", err)
		return
	}

	body := gin.H{
		"run":               run,
		"failures":          failures,
		"unified":           nil,
		"validation_errors": []string{},
	}

	unified, findings, err := h.unifiedRepo.GetByRunID(run.ID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		// failed runs have no snapshot
	case err != nil:
		h.internalError(c, "Failed to load unified stats", err)
		return
	default:
		body["unified"] = unified
		body["averages"] = unified.Averages()
		if findings != nil {
			body["validation_errors"] = findings
		}
	}

	c.JSON(http.StatusOK, body)
}

// GetRunRepositories returns the per-repository stats of a run
func (h *RunHandler) GetRunRepositories(c *gin.Context) {
	run, err := h.runRepo.GetByID(c.Param("id"))
	if err != nil {
		h.lookupError(c, err)
		return
	}

	stats, err := h.statsRepo.GetByRunID(run.ID)
	if err != nil {
		h.internalError(c, "Failed to load repository stats", err)
		return
	}

	repos := make([]repositoryResponse, 0, len(stats))
	for _, repo := range stats {
		loc, commits, files := h.cross.Percentages(repo.DesignatedAuthorStats, repo.RepositoryTotals)
		repos = append(repos, repositoryResponse{
			RepositoryStats:       repo,
			DesignatedPercentages: percentagesResponse{LOC: loc, Commits: commits, Files: files},
		})
	}

	c.JSON(http.StatusOK, gin.H{"run_id": run.ID, "repositories": repos})
}

// GetRunLanguages returns the unified language breakdown of a run, largest
// first
func (h *RunHandler) GetRunLanguages(c *gin.Context) {
	run, err := h.runRepo.GetByID(c.Param("id"))
	if err != nil {
		h.lookupError(c, err)
		return
	}

	unified, _, err := h.unifiedRepo.GetByRunID(run.ID)
	if err != nil {
		h.lookupError(c, err)
		return
	}

	total := unified.UnifiedLanguageStats.Total()
	languages := make([]languageResponse, 0, len(unified.UnifiedLanguageStats))
	for _, language := range unified.UnifiedLanguageStats.Languages() {
		stats := unified.UnifiedLanguageStats[language]
		share, _, _ := h.cross.Percentages(stats, total)
		languages = append(languages, languageResponse{
			Language: language,
			LOC:      stats.LOC,
			Commits:  stats.Commits,
			Files:    stats.Files,
			Share:    share,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":              run.ID,
		"languages":           languages,
		"language_divergence": unified.LanguageDivergence,
	})
}

func (h *RunHandler) lookupError(c *gin.Context, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	h.internalError(c, "Failed to load run", err)
}

func (h *RunHandler) internalError(c *gin.Context, msg string, err error) {
	logger.WithError(err).Errorf("%s", msg)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
