package engine_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sawpanic/fundarb/internal/config"
	"github.com/sawpanic/fundarb/internal/engine"
	"github.com/sawpanic/fundarb/internal/model"
	"github.com/sawpanic/fundarb/internal/scoring"
	"github.com/sawpanic/fundarb/internal/stream"
)

// snap builds a valid Snapshot for the given venue/symbol, defaulting mark
// and index price to that venue's own mid of bid/ask. Mark divergence is
// therefore zero only when both venues share a mid; a scenario that needs
// zero divergence across differently-priced venues overrides MarkPrice.
func snap(venue, symbol string, bid, ask, funding float64, nextFundingTS int64, volumeUSD float64) model.Snapshot {
	mid := (bid + ask) / 2
	return model.Snapshot{
		VenueID:       venue,
		Symbol:        symbol,
		Bid:           bid,
		Ask:           ask,
		MarkPrice:     mid,
		IndexPrice:    mid,
		FundingRate:   funding,
		NextFundingTS: nextFundingTS,
		BaseVolume:    volumeUSD / mid,
		QuoteVolume:   volumeUSD,
		ObservedAt:    time.Now().Unix(),
	}
}

// runOneIngestCycle feeds snapshots into a fresh engine, lets exactly one
// scoring pass settle, and returns the resulting opportunity set plus any
// signal that made it onto the out queue within the window. A fresh engine
// and fresh cooldown store are used per scenario so cross-scenario state
// never leaks.
func runOneIngestCycle(cfg config.Config, scorerCfg scoring.Config, cooldown engine.CooldownStore, snapshots ...model.Snapshot) (*engine.Engine, []model.Opportunity, []model.TradeSignal) {
	in := stream.NewSnapshotQueue(0)
	out := stream.NewSignalQueue(0)
	e := engine.New(cfg, scorerCfg, in, out, cooldown)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = e.Run(ctx)
		close(done)
	}()

	for _, s := range snapshots {
		in.Publish(s)
	}

	// Give the single ingest goroutine + worker pool time to drain and
	// score before we sample the table.
	time.Sleep(60 * time.Millisecond)

	var signals []model.TradeSignal
	for {
		select {
		case sig := <-out.Chan():
			signals = append(signals, sig)
		default:
			goto collected
		}
	}
collected:
	opps := e.Opportunities()
	cancel()
	<-done
	return e, opps, signals
}

var _ = Describe("cross-venue funding arbitrage engine", func() {
	var (
		cfg       config.Config
		scorerCfg scoring.Config
		cooldown  engine.CooldownStore
	)

	BeforeEach(func() {
		cfg = config.Defaults()
		scorerCfg = scoring.DefaultConfig()
		cooldown = engine.NewMemoryCooldown()
	})

	// S1 — No pair opportunity: equal funding, equal prices, ample volume.
	It("emits no opportunity when two venues agree on price and funding", func() {
		now := time.Now().UnixMilli()
		future := now + 10*60*1000
		a := snap("binance", "BTC/USDT", 100, 100, 0, future, 10_000_000)
		b := snap("bybit", "BTC/USDT", 100, 100, 0, future, 10_000_000)

		_, opps, signals := runOneIngestCycle(cfg, scorerCfg, cooldown, a, b)

		Expect(opps).To(BeEmpty())
		Expect(signals).To(BeEmpty())
	})

	// S2 — Funding-only positive, but fees exceed the net profit floor.
	It("drops a funding-only edge once fees exceed the minimum profit floor", func() {
		now := time.Now().UnixMilli()
		future := now + 10*60*1000
		venueA := snap("binance", "BTC/USDT", 100, 100, -0.0005, future, 10_000_000)
		venueB := snap("bybit", "BTC/USDT", 100, 100, 0.0005, future, 10_000_000)

		_, opps, signals := runOneIngestCycle(cfg, scorerCfg, cooldown, venueA, venueB)

		Expect(opps).To(BeEmpty())
		Expect(signals).To(BeEmpty())
	})

	// S3 — Funding plus a favorable entry spread clears every filter and
	// fires exactly one signal. binance carries the negative funding rate
	// and the lower ask (long leg); bybit carries the positive rate and the
	// higher bid (short leg).
	It("scores and signals a single opportunity once entry spread compensates for fees", func() {
		now := time.Now().UnixMilli()
		future := now + 10*60*1000
		venueA := snap("binance", "BTC/USDT", 100.00, 100.00, -0.0005, future, 10_000_000)
		venueB := snap("bybit", "BTC/USDT", 100.20, 100.20, 0.0005, future, 10_000_000)
		// Equal marks keep the mark-divergence penalty at zero, so the
		// score is (10 + 20 - 14.1) * 0.8 = 12.72.
		venueB.MarkPrice, venueB.IndexPrice = venueA.MarkPrice, venueA.IndexPrice

		_, opps, signals := runOneIngestCycle(cfg, scorerCfg, cooldown, venueA, venueB)

		Expect(opps).To(HaveLen(1))
		Expect(opps[0].LongVenue).To(Equal("binance"))
		Expect(opps[0].ShortVenue).To(Equal("bybit"))
		Expect(opps[0].FinalScore).To(BeNumerically("~", 12.7, 0.1))

		Expect(signals).To(HaveLen(1))
		Expect(signals[0].Symbol).To(Equal("BTC/USDT"))
		Expect(signals[0].Score).To(BeNumerically(">=", cfg.Scoring.SignalScoreThreshold))
	})

	// S4 — Sanity clip: a halted-venue-sized spread is dropped outright,
	// regardless of how large the underlying funding edge would be.
	It("drops a candidate whose entry spread exceeds the sanity clip", func() {
		now := time.Now().UnixMilli()
		future := now + 10*60*1000
		venueA := snap("binance", "BTC/USDT", 100, 100, 0.01, future, 10_000_000)
		venueB := snap("bybit", "BTC/USDT", 600, 600, -0.01, future, 10_000_000)

		_, opps, signals := runOneIngestCycle(cfg, scorerCfg, cooldown, venueA, venueB)

		Expect(opps).To(BeEmpty())
		Expect(signals).To(BeEmpty())
	})

	// S5 — Expiry sweep: both snapshots' funding boundary is already in the
	// past, so the scorer's pre-filter empties the candidate set and any
	// previously-held opportunity for the symbol is evicted from the table.
	It("evicts a stale opportunity once its funding boundary has passed", func() {
		nowMs := time.Now().UnixMilli()
		future := nowMs + 10*60*1000
		venueA := snap("binance", "BTC/USDT", 100.00, 100.00, -0.0005, future, 10_000_000)
		venueB := snap("bybit", "BTC/USDT", 100.20, 100.20, 0.0005, future, 10_000_000)

		in := stream.NewSnapshotQueue(0)
		out := stream.NewSignalQueue(0)
		e := engine.New(cfg, scorerCfg, in, out, cooldown)
		ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		defer cancel()
		done := make(chan struct{})
		go func() { _ = e.Run(ctx); close(done) }()

		in.Publish(venueA)
		in.Publish(venueB)
		time.Sleep(60 * time.Millisecond)
		Expect(e.Opportunities()).To(HaveLen(1))

		past := nowMs - 1
		staleA := snap("binance", "BTC/USDT", 100.00, 100.00, -0.0005, past, 10_000_000)
		staleB := snap("bybit", "BTC/USDT", 100.20, 100.20, 0.0005, past, 10_000_000)
		in.Publish(staleA)
		in.Publish(staleB)
		time.Sleep(60 * time.Millisecond)

		Expect(e.Opportunities()).To(BeEmpty())

		cancel()
		<-done
	})

	// S6 — Cooldown suppression: the same opportunity (final score ≈19.5,
	// above the signal threshold) recurs on a second ingest tick before
	// COOLDOWN_SECONDS has elapsed; only the first tick emits a signal.
	It("suppresses the second of two consecutive signals inside the cooldown window", func() {
		now := time.Now().UnixMilli()
		future := now + 10*60*1000
		venueA := snap("binance", "BTC/USDT", 100.00, 100.00, -0.0008, future, 10_000_000)
		venueB := snap("bybit", "BTC/USDT", 100.30, 100.30, 0.0008, future, 10_000_000)

		in := stream.NewSnapshotQueue(0)
		out := stream.NewSignalQueue(0)
		e := engine.New(cfg, scorerCfg, in, out, cooldown)
		ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		defer cancel()
		done := make(chan struct{})
		go func() { _ = e.Run(ctx); close(done) }()

		in.Publish(venueA)
		in.Publish(venueB)
		time.Sleep(60 * time.Millisecond)

		in.Publish(venueA)
		in.Publish(venueB)
		time.Sleep(60 * time.Millisecond)

		var signals []model.TradeSignal
		for {
			select {
			case sig := <-out.Chan():
				signals = append(signals, sig)
			default:
				goto collected
			}
		}
	collected:
		Expect(signals).To(HaveLen(1))

		cancel()
		<-done
	})
})
