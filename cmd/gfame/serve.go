package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/alimgiray/gfame/internal/handlers"
	"github.com/alimgiray/gfame/pkg/database"
	"github.com/alimgiray/gfame/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run history as a JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			if port == "" {
				port = cfg.Server.Port
			}

			gin.SetMode(cfg.Server.Mode)

			if err := database.Init(cfg.Database.Path); err != nil {
				return err
			}
			defer database.Close()

			server := &http.Server{
				Addr:    ":" + port,
				Handler: handlers.NewRouter(database.DB),
			}

			serveErr := make(chan error, 1)
			go func() {
				logger.Infof("Server starting on :%s", port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("failed to start server: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
			}

			logger.Info("Shutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			logger.Info("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default server.port)")

	return cmd
}
