package scoring

import "github.com/sawpanic/fundarb/internal/config"

// Config holds the fee tables and thresholds the Scorer evaluates candidates
// against. It is constructed once from internal/config and injected into
// NewScorer so tests (and operators) can vary parameters without touching
// package-level state.
type Config struct {
	MakerFees      map[string]float64 // per-venue maker fee, fractional (e.g. 0.0002 = 2bps); "default" fallback
	TakerFees      map[string]float64 // per-venue taker fee, fractional; "default" fallback
	MinVolumeUSD   float64
	MinProfitBps   float64
	MaxValidSpread float64
	MinScoreThresh float64
}

// DefaultConfig returns the built-in threshold values, with a maker/taker
// fee table covering binance, bybit, bitget, okx, plus a "default"
// fallback for any other venue.
func DefaultConfig() Config {
	return Config{
		MakerFees: map[string]float64{
			"binance": 0.00020,
			"bybit":   0.00020,
			"bitget":  0.00020,
			"okx":     0.00020,
			"default": 0.00020,
		},
		TakerFees: map[string]float64{
			"binance": 0.00046,
			"bybit":   0.00055,
			"bitget":  0.00060,
			"okx":     0.00050,
			"default": 0.00060,
		},
		MinVolumeUSD:   1_000_000,
		MinProfitBps:   2.0,
		MaxValidSpread: 200.0,
		MinScoreThresh: 5.0,
	}
}

// ConfigFromAppConfig builds a Scorer Config from the loaded application
// config, so an operator's configs/config.yaml edits to scoring: and fees:
// actually reach the scorer instead of being shadowed by DefaultConfig.
// Falls back to DefaultConfig's fee tables when a side is left empty.
func ConfigFromAppConfig(cfg config.Config) Config {
	out := Config{
		MakerFees:      cfg.Fees.Maker,
		TakerFees:      cfg.Fees.Taker,
		MinVolumeUSD:   cfg.Scoring.MinVolumeUSD,
		MinProfitBps:   cfg.Scoring.MinProfitBps,
		MaxValidSpread: cfg.Scoring.MaxValidSpreadBps,
		MinScoreThresh: cfg.Scoring.MinScoreThreshold,
	}
	if len(out.MakerFees) == 0 {
		out.MakerFees = DefaultConfig().MakerFees
	}
	if len(out.TakerFees) == 0 {
		out.TakerFees = DefaultConfig().TakerFees
	}
	return out
}

func (c Config) maker(venue string) float64 {
	if v, ok := c.MakerFees[venue]; ok {
		return v
	}
	return c.MakerFees["default"]
}

func (c Config) taker(venue string) float64 {
	if v, ok := c.TakerFees[venue]; ok {
		return v
	}
	return c.TakerFees["default"]
}
