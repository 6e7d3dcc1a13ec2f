package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"NewsRadar/internal/app"
	"NewsRadar/internal/config"
	"NewsRadar/internal/logging"
	"NewsRadar/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "newsradar",
		Short:         "Discover fresh news mentions of tracked keywords",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				return os.Setenv("NEWSRADAR_CONFIG", configPath)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the discovery pipeline once",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOnce(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "schedule",
			Short: "Run the discovery pipeline on the configured cron schedule",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), func(ctx context.Context, application *app.Application) error {
					return application.Schedule(ctx)
				})
			},
		},
	)
	return root
}

func runOnce(ctx context.Context) error {
	return withApp(ctx, func(ctx context.Context, application *app.Application) error {
		_, err := application.Run(ctx)
		return err
	})
}

func withApp(ctx context.Context, fn func(context.Context, *app.Application) error) error {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application", "error", err)
		}
	}()

	if err := fn(ctx, application); err != nil {
		if errors.Is(err, usecase.ErrNothingToReport) {
			logger.Info("nothing to report", "reason", err)
			return nil
		}
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}
