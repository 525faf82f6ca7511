package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sawpanic/fundarb/internal/config"
)

// healthCmd validates the configuration file and reports it fit to run,
// without starting any venue connection or the engine itself — a fast
// pre-flight check an operator or a deploy pipeline can script against.
func healthCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Validate configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}
			enabled := 0
			for _, v := range cfg.Venues {
				if v.Enabled {
					enabled++
				}
			}
			fmt.Printf("config ok: %d venues enabled, dashboard http addr %s\n", enabled, cfg.Dashboard.HTTPAddr)
			return nil
		},
	}
}
