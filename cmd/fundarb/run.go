package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/fundarb/internal/config"
	"github.com/sawpanic/fundarb/internal/dashboard"
	"github.com/sawpanic/fundarb/internal/engine"
	"github.com/sawpanic/fundarb/internal/metrics"
	"github.com/sawpanic/fundarb/internal/scoring"
	"github.com/sawpanic/fundarb/internal/stream"
	"github.com/sawpanic/fundarb/internal/venue"
)

// runCmd wires every long-running task together: venue adapters into the
// engine's SnapshotQueue, the engine's worker pool, the text dashboard
// loop, the HTTP status server, and (with --tui) the bubbletea view. All
// but the bubbletea view are cancelled cooperatively off the one context
// cobra hands in; the bubbletea view is not tied to that context and runs
// until the user quits it.
func runCmd(ctx context.Context, configPath *string) *cobra.Command {
	var (
		symbols  []string
		useTUI   bool
		redisAdr string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the live funding-rate arbitrage engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			adapters, err := venue.BuildAll(cfg.Venues, symbols)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			metricsReg := metrics.NewRegistry(reg)
			venue.SetMetrics(metricsReg)

			in := stream.NewSnapshotQueue(0)
			out := stream.NewSignalQueue(0)
			if redisAdr == "" {
				redisAdr = cfg.Redis.Addr
			}
			cooldown := engine.NewCooldownStore(redisAdr)
			eng := engine.New(cfg, scoring.ConfigFromAppConfig(cfg), in, out, cooldown)
			eng.SetMetrics(metricsReg)

			httpSrv, err := dashboard.NewServer(cfg.Dashboard.HTTPAddr, eng.Opportunities, reg)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(cmd.Context())
			for _, a := range adapters {
				a := a
				g.Go(func() error { return a.Run(gctx, in) })
			}
			g.Go(func() error { return eng.Run(gctx) })
			g.Go(func() error { return httpSrv.Start() })
			g.Go(func() error {
				<-gctx.Done()
				return httpSrv.Shutdown(context.Background())
			})
			if useTUI {
				g.Go(func() error {
					return dashboard.RunTUI(cfg.Dashboard.Interval(), cfg.Dashboard.TopN, eng.Opportunities)
				})
			} else {
				g.Go(func() error {
					return dashboard.Run(gctx, os.Stdout, cfg.Dashboard.Interval(), cfg.Dashboard.TopN, eng.Opportunities)
				})
			}

			log.Info().Int("venues", len(adapters)).Str("http_addr", cfg.Dashboard.HTTPAddr).Msg("engine started")
			return g.Wait()
		},
	}
	cmd.Flags().StringSliceVar(&symbols, "symbols", []string{"BTCUSDT", "ETHUSDT"}, "comma-separated symbols to track")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "use the bubbletea live terminal view instead of the text sink")
	cmd.Flags().StringVar(&redisAdr, "redis-addr", "", "Redis address for shared cooldown state; defaults to the config's redis.addr, then REDIS_ADDR, then in-memory")
	return cmd
}
