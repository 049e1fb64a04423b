package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/mantonx/moviecatalog/internal/config"
	"github.com/mantonx/moviecatalog/internal/database"
	"github.com/mantonx/moviecatalog/internal/logger"
	"github.com/mantonx/moviecatalog/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	db, registry, _, err := a.openCatalog()
	if err != nil {
		return err
	}
	defer database.Close()

	a.manager.AddWatcher(registry.ReloadConfig)
	a.manager.AddWatcher(func(oldConfig, newConfig *config.Config) {
		if oldConfig.Logging.Level != newConfig.Logging.Level {
			logger.SetLevel(newConfig.Logging.Level)
		}
	})
	if a.manager.Path() != "" {
		watcher, err := config.NewFileWatcher(a.manager, a.logger, config.DefaultReloadDelay)
		if err != nil {
			a.logger.Warn("config hot reload disabled", "error", err)
		} else {
			watcher.Start(ctx)
			defer watcher.Stop()
		}
	}

	srv, err := server.New(a.config(), db, registry, a.logger)
	if err != nil {
		return err
	}
	if err := srv.Run(ctx); err != nil {
		return err
	}
	a.logger.Info("server shutdown complete")
	return nil
}
