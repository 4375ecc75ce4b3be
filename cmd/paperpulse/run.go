package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/paperpulse/paperpulse/internal/scheduler"
)

func newRunCommand() *cobra.Command {
	var dayFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one digest run and exit",
		Long: `Execute one full pipeline pass: discover papers, process them, and
deliver the digest. Exits zero when the digest was delivered (even with
per-paper failures) and non-zero when the run aborted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadApp()
			if err != nil {
				return err
			}

			a, err := buildApp(cfg, logger, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer a.Close()

			day, err := resolveDay(dayFlag, cfg.Schedule.Location())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := a.orchestrator.Run(ctx, day)
			if err != nil {
				return err
			}

			logger.Info().
				Str("run_id", report.RunID).
				Str("status", string(report.Status)).
				Int("succeeded", report.Succeeded).
				Int("failed", report.Failed).
				Msg("run complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&dayFlag, "day", "", `day to digest, formatted "2006-01-02" (default: yesterday)`)
	return cmd
}

// resolveDay parses --day, defaulting to yesterday in the schedule
// timezone.
func resolveDay(flag string, loc *time.Location) (time.Time, error) {
	if flag == "" {
		return scheduler.CoverageDay(time.Now(), loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", flag, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --day %q: %w", flag, err)
	}
	return day, nil
}
