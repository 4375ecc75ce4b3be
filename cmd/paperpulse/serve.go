package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/paperpulse/paperpulse/internal/ops"
	"github.com/paperpulse/paperpulse/internal/scheduler"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the digest pipeline on its daily schedule",
		Long: `Run continuously, executing one digest run per day at the configured
schedule time. Also serves the operational HTTP endpoints (health and
Prometheus metrics) unless disabled.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadApp()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			a, err := buildApp(cfg, logger, reg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var opsServer *ops.Server
			if cfg.Ops.Enabled {
				opsServer = ops.NewServer(ops.Config{
					Address:     cfg.Ops.Address,
					MetricsPath: cfg.Ops.MetricsPath,
				}, reg, logger)
				go func() {
					if err := opsServer.Start(); err != nil {
						logger.Error().Err(err).Msg("ops server failed")
					}
				}()
			}

			daily, err := scheduler.NewDaily(cfg.Schedule.At, cfg.Schedule.Location(), logger)
			if err != nil {
				return err
			}

			err = daily.Run(ctx, func(runCtx context.Context, day time.Time) error {
				report, runErr := a.orchestrator.Run(runCtx, day)
				if runErr != nil {
					return runErr
				}
				logger.Info().
					Str("run_id", report.RunID).
					Str("status", string(report.Status)).
					Msg("scheduled run complete")
				return nil
			})

			if opsServer != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := opsServer.Shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("ops server shutdown failed")
				}
			}

			if errors.Is(err, context.Canceled) {
				logger.Info().Msg("shutdown signal received")
				return nil
			}
			return err
		},
	}
}
