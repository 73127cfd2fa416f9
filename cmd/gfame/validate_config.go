package main

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/alimgiray/gfame/internal/services"
	"github.com/alimgiray/gfame/pkg/config"
)

func newValidateConfigCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Check the configuration and compile the author patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				var cfgErr *config.ConfigError
				if errors.As(err, &cfgErr) {
					for _, problem := range cfgErr.Problems {
						fmt.Fprintf(cmd.OutOrStdout(), "Error: %s\n", problem)
					}
				}
				return err
			}

			if _, err := services.NewAuthorClassifier(cfg.AuthorPatterns.Designated, cfg.AuthorPatterns.Bots); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cfg.Repositories) == 0 {
				fmt.Fprintln(out, "Warning: no repositories configured")
			}
			for _, name := range duplicateNames(cfg) {
				fmt.Fprintf(out, "Warning: repository name %q is configured more than once\n", name)
			}
			for _, command := range [][]string{cfg.Processing.BlameCommand, cfg.Processing.LineCounterCommand} {
				if len(command) == 0 {
					continue
				}
				if _, err := exec.LookPath(command[0]); err != nil {
					fmt.Fprintf(out, "Warning: %s not found in PATH\n", command[0])
				}
			}
			for _, name := range cfg.DuplicateDisplayNames() {
				fmt.Fprintf(out, "Warning: display name %q is used by more than one repository\n", name)
			}
			for _, target := range services.TargetsFromConfig(cfg) {
				if target.Path == "" && target.CloneURL == "" {
					fmt.Fprintf(out, "Warning: repository %q has neither a path nor a clone URL, only an earlier clone in %s can be used\n",
						target.Name, cfg.Processing.ReposDir)
				}
			}

			fmt.Fprintf(out, "Configuration OK: %d designated patterns, %d bot patterns, %d repositories\n",
				len(cfg.AuthorPatterns.Designated), len(cfg.AuthorPatterns.Bots), len(cfg.Repositories))
			return nil
		},
	}
}

func duplicateNames(cfg *config.Config) []string {
	seen := make(map[string]int)
	var duplicates []string
	for _, repo := range cfg.Repositories {
		seen[repo.Name]++
		if seen[repo.Name] == 2 {
			duplicates = append(duplicates, repo.Name)
		}
	}
	return duplicates
}
