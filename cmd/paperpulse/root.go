// Command paperpulse discovers the day's research papers, analyzes them,
// and delivers a digest to a chat channel.
package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/paperpulse/paperpulse/internal/config"
	"github.com/paperpulse/paperpulse/internal/observability"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "paperpulse",
		Short: "Daily research paper digest pipeline",
		Long: `paperpulse discovers newly published research papers, extracts and
summarizes their content, and delivers a digest to a messaging channel.

Configuration comes from config.yaml (searched in ., ./config, and
/etc/paperpulse) and PAPERPULSE_* environment variables. API keys and
webhook URLs are read from the environment only.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCommand(), newServeCommand(), newVersionCommand())
	return root
}

// loadApp loads configuration and builds the process logger.
func loadApp() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	return cfg, logger, nil
}
