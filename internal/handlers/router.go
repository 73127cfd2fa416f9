package handlers

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/alimgiray/gfame/internal/middleware"
	"github.com/alimgiray/gfame/internal/repositories"
	"github.com/alimgiray/gfame/internal/services"
)

// NewRouter builds the read-only HTTP API over the run history in db
func NewRouter(db *sql.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	healthHandler := NewHealthHandler(db)
	notFoundHandler := NewNotFoundHandler()
	runHandler := NewRunHandler(
		repositories.NewPipelineRunRepository(db),
		repositories.NewRepositoryStatsRepository(db),
		repositories.NewUnifiedStatsRepository(db),
		repositories.NewRepositoryFailureRepository(db),
		services.NewCrossRepoAggregator(),
	)

	router.GET("/health", healthHandler.Health)

	api := router.Group("/api")
	{
		api.GET("/runs", runHandler.ListRuns)
		api.GET("/runs/latest", runHandler.LatestRun)
		api.GET("/runs/:id", runHandler.GetRun)
		api.GET("/runs/:id/repositories", runHandler.GetRunRepositories)
		api.GET("/runs/:id/languages", runHandler.GetRunLanguages)
	}

	router.NoRoute(notFoundHandler.NotFound)

	return router
}
