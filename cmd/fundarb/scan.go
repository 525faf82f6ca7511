package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/fundarb/internal/config"
	"github.com/sawpanic/fundarb/internal/dashboard"
	"github.com/sawpanic/fundarb/internal/model"
	"github.com/sawpanic/fundarb/internal/scoring"
)

// scanCmd runs one scoring pass against a small built-in fixture snapshot
// pair — no network, no engine goroutines — so an operator can sanity-check
// fee tables and thresholds against a known-good opportunity before wiring
// in live venues.
func scanCmd(ctx context.Context, configPath *string) *cobra.Command {
	var symbol string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "One-shot dry-run scoring pass against a fixture snapshot set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			scorer := scoring.NewScorer(scoring.ConfigFromAppConfig(cfg))
			now := time.Now().UnixMilli()
			future := now + 10*60*1000

			fixture := []model.Snapshot{
				{
					VenueID: "binance", Symbol: symbol,
					Bid: 100.00, Ask: 100.00, MarkPrice: 100.00, IndexPrice: 100.00,
					FundingRate: -0.0005, NextFundingTS: future,
					BaseVolume: 100_000, QuoteVolume: 10_000_000,
					ObservedAt: time.Now().Unix(),
				},
				{
					VenueID: "bybit", Symbol: symbol,
					Bid: 100.20, Ask: 100.20, MarkPrice: 100.20, IndexPrice: 100.20,
					FundingRate: 0.0005, NextFundingTS: future,
					BaseVolume: 100_000, QuoteVolume: 10_000_000,
					ObservedAt: time.Now().Unix(),
				},
			}

			opps := scorer.Score(fixture, now)
			dashboard.Render(os.Stdout, opps, cfg.Dashboard.TopN)
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "BTC/USDT", "symbol to score against the fixture pair")
	return cmd
}
