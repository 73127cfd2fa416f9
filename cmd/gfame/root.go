package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/alimgiray/gfame/internal/repositories"
	"github.com/alimgiray/gfame/internal/services"
	"github.com/alimgiray/gfame/pkg/config"
	"github.com/alimgiray/gfame/pkg/database"
	"github.com/alimgiray/gfame/pkg/logger"
)

const (
	exitFailure      = 1
	exitConfig       = 2
	exitNothingFound = 3
)

type rootOptions struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gfame",
		Short: "Designated author contribution stats across git repositories",
		Long: `gfame runs git fame over a set of repositories, classifies authors by
configured patterns, and rolls per-repository stats up into a unified
report with a per-language breakdown.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init()
			logger.SetVerbose(opts.verbose)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", config.DefaultConfigPath, "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(
		newRunCmd(opts),
		newProcessCmd(opts),
		newAggregateCmd(),
		newServeCmd(opts),
		newExportCmd(opts),
		newValidateConfigCmd(opts),
	)

	return cmd
}

// loadConfig loads the config file. A missing default file is not an error,
// settings then come from the environment alone.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := o.cfgFile
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logger.Debugf("No %s found, using environment only", path)
			path = ""
		}
	}
	return config.Load(path)
}

// openStore opens the run history database named in cfg
func openStore(cfg *config.Config) (services.RunStore, func(), error) {
	if err := database.Init(cfg.Database.Path); err != nil {
		return services.RunStore{}, nil, err
	}

	store := services.RunStore{
		Runs:     repositories.NewPipelineRunRepository(database.DB),
		Stats:    repositories.NewRepositoryStatsRepository(database.DB),
		Unified:  repositories.NewUnifiedStatsRepository(database.DB),
		Failures: repositories.NewRepositoryFailureRepository(database.DB),
	}
	closeStore := func() {
		if err := database.Close(); err != nil {
			logger.WithError(err).Warnf("Failed to close database")
		}
	}
	return store, closeStore, nil
}

func exitCode(err error) int {
	switch {
	case config.IsConfigError(err):
		return exitConfig
	case errors.Is(err, services.ErrNoRepositoriesProcessed):
		return exitNothingFound
	default:
		return exitFailure
	}
}
