package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	fundarblog "github.com/sawpanic/fundarb/internal/log"
)

func Execute(ctx context.Context) error {
	var (
		configPath string
		human      bool
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "fundarb",
		Short: "Cross-venue funding-rate arbitrage scanner",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			fundarblog.Setup(logLevel, human)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to YAML config")
	root.PersistentFlags().BoolVar(&human, "human", true, "human-readable console log output instead of JSON")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")

	root.AddCommand(runCmd(ctx, &configPath))
	root.AddCommand(scanCmd(ctx, &configPath))
	root.AddCommand(healthCmd(&configPath))

	log.Info().Msg("fundarb starting")
	return root.ExecuteContext(ctx)
}
