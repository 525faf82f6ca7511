package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/fundarb/internal/model"
)

func mkSnap(venue, symbol string, bid, ask, mark, index, funding float64, nextFundingTS int64, quoteVol float64) model.Snapshot {
	return model.Snapshot{
		VenueID:       venue,
		Symbol:        symbol,
		Bid:           bid,
		Ask:           ask,
		MarkPrice:     mark,
		IndexPrice:    index,
		FundingRate:   funding,
		NextFundingTS: nextFundingTS,
		BaseVolume:    1000,
		QuoteVolume:   quoteVol,
		ObservedAt:    1,
	}
}

func TestScorer_Purity(t *testing.T) {
	cfg := DefaultConfig()
	scorer := NewScorer(cfg)
	now := int64(1_000_000)
	snaps := []model.Snapshot{
		mkSnap("binance", "BTC/USDT:USDT", 100, 100, 100, 100, -0.0005, now+60_000, 10_000_000),
		mkSnap("bybit", "BTC/USDT:USDT", 100.20, 100.20, 100, 100, 0.0005, now+60_000, 10_000_000),
	}

	first := scorer.Score(snaps, now)
	second := scorer.Score(snaps, now)
	assert.Equal(t, first, second, "repeated calls over identical inputs must be equal")
}

func TestScorer_NoPairWhenFlat(t *testing.T) {
	// S1: two venues, zero funding, bid==ask, equal volume.
	cfg := DefaultConfig()
	scorer := NewScorer(cfg)
	now := int64(1_000_000)
	snaps := []model.Snapshot{
		mkSnap("binance", "BTC/USDT:USDT", 100, 100, 100, 100, 0, now+60_000, 10_000_000),
		mkSnap("bybit", "BTC/USDT:USDT", 100, 100, 100, 100, 0, now+60_000, 10_000_000),
	}
	out := scorer.Score(snaps, now)
	assert.Empty(t, out)
}

func TestScorer_FundingOnlyInsufficient(t *testing.T) {
	// S2: funding differential alone doesn't clear the fee+profit floor.
	cfg := DefaultConfig()
	scorer := NewScorer(cfg)
	now := int64(1_000_000)
	snaps := []model.Snapshot{
		mkSnap("binance", "BTC/USDT:USDT", 100, 100, 100, 100, 0.0005, now+60_000, 10_000_000),
		mkSnap("bybit", "BTC/USDT:USDT", 100, 100, 100, 100, -0.0005, now+60_000, 10_000_000),
	}
	out := scorer.Score(snaps, now)
	assert.Empty(t, out)
}

func TestScorer_FundingPlusSpreadPasses(t *testing.T) {
	// S3: funding + positive entry spread clears every filter. Long leg
	// (binance) has the negative funding rate and the lower ask; short leg
	// (bybit) has the positive funding rate and the higher bid.
	cfg := DefaultConfig()
	scorer := NewScorer(cfg)
	now := int64(1_000_000)
	snaps := []model.Snapshot{
		mkSnap("binance", "BTC/USDT:USDT", 100, 100, 100, 100, -0.0005, now+60_000, 10_000_000),
		mkSnap("bybit", "BTC/USDT:USDT", 100.20, 100.20, 100, 100, 0.0005, now+60_000, 10_000_000),
	}
	out := scorer.Score(snaps, now)
	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, "binance", got.LongVenue)
	assert.Equal(t, "bybit", got.ShortVenue)
	assert.InDelta(t, 10.0, got.GrossYieldBps, 0.01)
	assert.InDelta(t, 20.0, got.EntrySpreadBps, 0.01)
	assert.InDelta(t, 12.7, got.FinalScore, 0.1)
}

func TestScorer_SanityClipDropsHaltedSpread(t *testing.T) {
	// S4: a 500bps spread is an anomaly, never a trade.
	cfg := DefaultConfig()
	scorer := NewScorer(cfg)
	now := int64(1_000_000)
	snaps := []model.Snapshot{
		mkSnap("binance", "BTC/USDT:USDT", 100, 100, 100, 100, 0.01, now+60_000, 10_000_000),
		mkSnap("bybit", "BTC/USDT:USDT", 105, 105, 100, 100, -0.01, now+60_000, 10_000_000),
	}
	out := scorer.Score(snaps, now)
	assert.Empty(t, out)
}

func TestScorer_ExpirySweepViaPreFilter(t *testing.T) {
	// S5: funding boundary already in the past, pre-filter removes both legs.
	cfg := DefaultConfig()
	scorer := NewScorer(cfg)
	now := int64(1_000_000)
	snaps := []model.Snapshot{
		mkSnap("binance", "BTC/USDT:USDT", 100, 100, 100, 100, 0.0005, now-1, 10_000_000),
		mkSnap("bybit", "BTC/USDT:USDT", 100.20, 100.20, 100, 100, -0.0005, now-1, 10_000_000),
	}
	out := scorer.Score(snaps, now)
	assert.Empty(t, out)
}

func TestScorer_ValidityGate(t *testing.T) {
	cfg := DefaultConfig()
	scorer := NewScorer(cfg)
	now := int64(1_000_000)
	snaps := []model.Snapshot{
		mkSnap("binance", "BTC/USDT:USDT", 100, 100, 100, 100, 0.01, now+60_000, 10_000_000),
		mkSnap("bybit", "BTC/USDT:USDT", 105, 105, 100, 100, -0.01, now+60_000, 10_000_000),
		mkSnap("okx", "BTC/USDT:USDT", 100.20, 100.20, 100, 100, -0.0005, now+60_000, 10_000_000),
	}
	for _, o := range scorer.Score(snaps, now) {
		assert.Less(t, o.EntrySpreadBps, cfg.MaxValidSpread)
		assert.Greater(t, o.NetProfitBps, cfg.MinProfitBps)
		assert.GreaterOrEqual(t, o.FinalScore, cfg.MinScoreThresh)
	}
}

func TestScorer_FundingAttributionExclusivity(t *testing.T) {
	cfg := DefaultConfig()
	scorer := NewScorer(cfg)
	now := int64(1_000_000)

	// Distinct funding boundaries: only the earlier one should be credited.
	long := mkSnap("binance", "ETH/USDT:USDT", 100, 100, 100, 100, 0.001, now+30_000, 10_000_000)
	short := mkSnap("bybit", "ETH/USDT:USDT", 100.5, 100.5, 100, 100, 0.002, now+90_000, 10_000_000)
	c := scorer.evaluate(long, short, now)
	assert.NotZero(t, c.effFundingLong)
	assert.Zero(t, c.effFundingShort)

	// Equal funding boundaries: both sides credited.
	short.NextFundingTS = long.NextFundingTS
	c = scorer.evaluate(long, short, now)
	assert.Equal(t, long.FundingRate, c.effFundingLong)
	assert.Equal(t, short.FundingRate, c.effFundingShort)
}

func TestScorer_MonotoneRanking(t *testing.T) {
	cfg := DefaultConfig()
	scorer := NewScorer(cfg)
	now := int64(1_000_000)
	snaps := []model.Snapshot{
		mkSnap("binance", "BTC/USDT:USDT", 100, 100, 100, 100, 0.002, now+60_000, 20_000_000),
		mkSnap("bybit", "BTC/USDT:USDT", 100.30, 100.30, 100, 100, -0.002, now+60_000, 20_000_000),
		mkSnap("okx", "BTC/USDT:USDT", 100.35, 100.35, 100, 100, -0.0025, now+60_000, 20_000_000),
	}
	out := scorer.Score(snaps, now)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].FinalScore, out[i].FinalScore)
	}
}

func TestScorer_PairSymmetryEvaluatesBothOrderings(t *testing.T) {
	cfg := DefaultConfig()
	scorer := NewScorer(cfg)
	now := int64(1_000_000)
	a := mkSnap("binance", "BTC/USDT:USDT", 100, 100, 100, 100, 0.0005, now+60_000, 10_000_000)
	b := mkSnap("bybit", "BTC/USDT:USDT", 100.20, 100.20, 100, 100, -0.0005, now+60_000, 10_000_000)

	forward := scorer.evaluate(a, b, now)
	reverse := scorer.evaluate(b, a, now)
	// Reversing long/short flips the sign of the funding differential.
	assert.InDelta(t, forward.grossYieldBps, -reverse.grossYieldBps, 0.001)
}
