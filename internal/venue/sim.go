package venue

import (
	"context"
	"math"
	"time"

	"github.com/sawpanic/fundarb/internal/config"
	"github.com/sawpanic/fundarb/internal/model"
	"github.com/sawpanic/fundarb/internal/stream"
)

// simAdapter drives a synthetic venue with geometric-Brownian price paths
// and slowly-wandering funding rates, for local development and the venue
// package tests without a network dependency. Paths are independent: each
// symbol draws its own returns and each adapter has its own seed. Each
// tick is a daily-vol-scaled gaussian log-return, driven by a small
// xorshift generator rather than a heavier math/rand dependency.
type simAdapter struct {
	venueID    string
	symbols    []string
	seed       uint64
	tickPeriod time.Duration
	basePrices map[string]float64
	fundingBps map[string]float64
}

// NewSim constructs a deterministic synthetic feed for venueID, seeded so
// repeated runs with the same seed reproduce the same price path.
func NewSim(venueID string, symbols []string, seed uint64) Adapter {
	base := make(map[string]float64, len(symbols))
	funding := make(map[string]float64, len(symbols))
	for i, s := range symbols {
		base[s] = 100 * (1 + float64(i)*0.01)
		funding[s] = 0
	}
	return &simAdapter{
		venueID: venueID, symbols: symbols, seed: seed + hashVenue(venueID),
		tickPeriod: time.Second, basePrices: base, fundingBps: funding,
	}
}

func hashVenue(v string) uint64 {
	var h uint64 = 1469598103934665603
	for _, c := range v {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}

// Venue satisfies Adapter.
func (a *simAdapter) Venue() string { return a.venueID }

const (
	simDailyVol  = 0.02
	simTicksPerDay = 86400.0
)

// Run ticks every symbol on each period, publishing a full Snapshot
// (unified-ticker shape) until ctx is cancelled.
func (a *simAdapter) Run(ctx context.Context, out *stream.SnapshotQueue) error {
	rng := newXorshift(a.seed)
	ticker := time.NewTicker(a.tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := time.Now()
			for _, symbol := range a.symbols {
				price := a.tick(symbol, rng)
				spreadBps := 1.0 + rng.float64()*2.0
				bid := price * (1 - spreadBps/2/10000)
				ask := price * (1 + spreadBps/2/10000)
				a.fundingBps[symbol] += (rng.float64() - 0.5) * 0.0001
				snap := model.Snapshot{
					VenueID: a.venueID, Symbol: symbol, Bid: bid, Ask: ask,
					MarkPrice: price, IndexPrice: price * (1 + (rng.float64()-0.5)/100000),
					FundingRate:   a.fundingBps[symbol],
					NextFundingTS: now.Add(8 * time.Hour).UnixMilli(),
					BaseVolume:    1_000_000 * (1 + rng.float64()),
					QuoteVolume:   price * 1_000_000 * (1 + rng.float64()),
					ObservedAt:    now.Unix(),
				}
				if snap.IsValid() {
					out.Publish(snap)
				}
			}
		}
	}
}

// tick advances symbol's price one GBM step, per MarketEngine.Tick.
func (a *simAdapter) tick(symbol string, rng *xorshift) float64 {
	price := a.basePrices[symbol]
	tickVol := simDailyVol / math.Sqrt(simTicksPerDay)
	z := rng.gaussian()
	price *= math.Exp(tickVol * z)
	if price < 0.0001 {
		price = 0.0001
	}
	a.basePrices[symbol] = price
	return price
}

// xorshift is a minimal deterministic PRNG; reproducibility under a fixed
// seed matters more here than statistical strength.
type xorshift struct{ state uint64 }

func newXorshift(seed uint64) *xorshift {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &xorshift{state: seed}
}

func (x *xorshift) next() uint64 {
	x.state ^= x.state << 13
	x.state ^= x.state >> 7
	x.state ^= x.state << 17
	return x.state
}

func (x *xorshift) float64() float64 {
	return float64(x.next()>>11) / float64(1<<53)
}

// gaussian draws an approximate standard-normal sample via Box-Muller.
func (x *xorshift) gaussian() float64 {
	u1 := x.float64()
	if u1 < 1e-12 {
		u1 = 1e-12
	}
	u2 := x.float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
