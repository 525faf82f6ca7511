// Package scoring implements the pure pair-enumeration and ranking pipeline
// that turns a per-symbol set of venue snapshots into scored opportunities.
// The Scorer is a total function of its inputs and its Config: it never
// reads wall-clock time except via the explicit now argument, and never
// depends on map iteration order (it sorts explicitly before returning).
package scoring

import (
	"math"
	"sort"

	"github.com/sawpanic/fundarb/internal/model"
)

// Scorer evaluates ordered cross-venue pairs for one symbol at a time.
type Scorer struct {
	cfg Config
}

// NewScorer constructs a Scorer against an immutable fee/threshold Config.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// candidate carries the long/short pair's raw numbers through the pipeline
// before rounding; it is never exposed outside this package.
type candidate struct {
	long, short       model.Snapshot
	earliestTS        int64
	effFundingLong    float64
	effFundingShort   float64
	grossYieldBps     float64
	feesBps           float64
	entrySpreadBps    float64
	markDivergenceBps float64
	netProfitBps      float64
	liquidityScore    float64
	finalScore        float64
}

// Score runs the full pre-filter/pair-evaluation/post-filter pipeline over
// the snapshots of a single symbol and returns the surviving opportunities
// sorted by FinalScore descending. len(snapshots) should be >= 2; fewer
// than two distinct venues can never produce a pair and yields an empty
// result.
func (s *Scorer) Score(snapshots []model.Snapshot, nowMs int64) []model.Opportunity {
	if len(snapshots) < 2 {
		return nil
	}

	// Step 1: pre-filter — funding event still ahead of us, volume floor.
	live := make([]model.Snapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.NextFundingTS > nowMs && snap.QuoteVolume > s.cfg.MinVolumeUSD {
			live = append(live, snap)
		}
	}
	if len(live) < 2 {
		return nil
	}

	// Step 2: enumerate ordered pairs, L != S venue. Both orderings of every
	// venue pair are evaluated; ordering fixes which side is long/short.
	candidates := make([]candidate, 0, len(live)*(len(live)-1))
	for _, long := range live {
		for _, short := range live {
			if long.VenueID == short.VenueID {
				continue
			}
			candidates = append(candidates, s.evaluate(long, short, nowMs))
		}
	}

	// Steps 7 & 9 & 11: drop candidates that failed a filter along the way.
	survivors := candidates[:0]
	for _, c := range candidates {
		if c.entrySpreadBps >= s.cfg.MaxValidSpread {
			continue
		}
		if c.netProfitBps <= s.cfg.MinProfitBps {
			continue
		}
		if c.finalScore < s.cfg.MinScoreThresh {
			continue
		}
		survivors = append(survivors, c)
	}

	// Step 12: sort by final score descending, then round and emit.
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].finalScore > survivors[j].finalScore
	})

	out := make([]model.Opportunity, 0, len(survivors))
	for _, c := range survivors {
		out = append(out, model.Opportunity{
			Symbol:            c.long.Symbol,
			LongVenue:         c.long.VenueID,
			ShortVenue:        c.short.VenueID,
			GrossYieldBps:     round2(c.grossYieldBps),
			FeesBps:           round2(c.feesBps),
			EntrySpreadBps:    round2(c.entrySpreadBps),
			NetProfitBps:      round2(c.netProfitBps),
			LiquidityScore:    round2(c.liquidityScore),
			MarkDivergenceBps: round2(c.markDivergenceBps),
			TimeToFundingMin:  round1(float64(c.earliestTS-nowMs) / 1000.0 / 60.0),
			EarliestTS:        c.earliestTS,
			FinalScore:        round1(c.finalScore),
			AskLong:           c.long.Ask,
			BidShort:          c.short.Bid,
		})
	}
	return out
}

// evaluate computes every raw (unrounded) field for one ordered (long,
// short) candidate: funding attribution, entry spread, fees, liquidity,
// and mark-divergence penalty.
func (s *Scorer) evaluate(long, short model.Snapshot, nowMs int64) candidate {
	c := candidate{long: long, short: short}

	// Step 3: effective funding attribution — only the leg whose funding
	// event fires first pays/receives at the earliest boundary.
	c.earliestTS = long.NextFundingTS
	if short.NextFundingTS < c.earliestTS {
		c.earliestTS = short.NextFundingTS
	}
	if long.NextFundingTS == c.earliestTS {
		c.effFundingLong = long.FundingRate
	}
	if short.NextFundingTS == c.earliestTS {
		c.effFundingShort = short.FundingRate
	}

	// Step 4: the short side pays the long side funding; receiving when
	// shorting a positive-rate venue is a gain.
	c.grossYieldBps = (c.effFundingShort - c.effFundingLong) * 10_000

	// Step 5: entry assumed maker both legs, exit assumed taker both legs.
	entryFeesBps := (s.cfg.maker(long.VenueID) + s.cfg.maker(short.VenueID)) * 10_000
	exitFeesBps := (s.cfg.taker(long.VenueID) + s.cfg.taker(short.VenueID)) * 10_000
	c.feesBps = entryFeesBps + exitFeesBps

	// Step 6: entry spread, positive means sell-high-buy-low at entry.
	c.entrySpreadBps = (short.Bid - long.Ask) / long.Ask * 10_000

	// Step 8: mark divergence.
	avgMark := (long.MarkPrice + short.MarkPrice) / 2
	c.markDivergenceBps = math.Abs(long.MarkPrice-short.MarkPrice) / avgMark * 10_000

	// Step 9: net profit.
	c.netProfitBps = c.grossYieldBps + c.entrySpreadBps - c.feesBps

	// Step 10: liquidity score, clamped log-volume scale.
	minVol := long.QuoteVolume
	if short.QuoteVolume < minVol {
		minVol = short.QuoteVolume
	}
	c.liquidityScore = clamp((math.Log10(minVol)-5.0)/2.5, 0.1, 1.2)

	// Step 11: final score, basis-divergence penalized, clamped to [0,100].
	raw := (c.netProfitBps - 0.25*c.markDivergenceBps) * c.liquidityScore
	c.finalScore = clamp(raw, 0, 100)

	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
