package venue

import (
	"fmt"

	"github.com/sawpanic/fundarb/internal/config"
)

// New builds the Adapter for a named venue, dispatching to the concrete
// constructor. "sim" is not a real exchange; it is the synthetic feed
// used for local runs and tests.
func New(name string, cfg config.VenueConfig, symbols []string) (Adapter, error) {
	switch name {
	case "binance":
		return NewBinance(cfg, symbols), nil
	case "bybit":
		return NewBybit(cfg, symbols), nil
	case "bitget":
		return NewBitget(cfg, symbols), nil
	case "okx":
		return NewOKX(cfg, symbols), nil
	case "sim":
		return NewSim("sim", symbols, 42), nil
	default:
		return nil, fmt.Errorf("unknown venue %q", name)
	}
}

// BuildAll constructs every enabled venue in cfg against a shared symbol
// universe, skipping venues whose config marks them disabled.
func BuildAll(venues map[string]config.VenueConfig, symbols []string) ([]Adapter, error) {
	out := make([]Adapter, 0, len(venues))
	for name, vcfg := range venues {
		if !vcfg.Enabled {
			continue
		}
		a, err := New(name, vcfg, symbols)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
