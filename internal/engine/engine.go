// Package engine implements the single-writer ingest coordinator: it
// drains venue snapshots, maintains the SnapshotTable and
// OpportunityTable, offloads scoring to a worker pool so ingestion never
// blocks, and gates signal emission through a per-symbol cooldown. The
// ingest goroutine is the only writer of the SnapshotTable; scoring work
// fans out to a bounded errgroup-backed pool, the same fan-out shape the
// venue adapters use for their own concurrent connections, and each
// worker writes its pass into the OpportunityTable under that table's lock.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/fundarb/internal/config"
	fundarblog "github.com/sawpanic/fundarb/internal/log"
	"github.com/sawpanic/fundarb/internal/metrics"
	"github.com/sawpanic/fundarb/internal/model"
	"github.com/sawpanic/fundarb/internal/scoring"
	"github.com/sawpanic/fundarb/internal/stream"
)

// Engine owns the SnapshotTable and OpportunityTable exclusively; only the
// engine's own ingest and scoring goroutines mutate them.
type Engine struct {
	cfg      config.Config
	scorer   *scoring.Scorer
	cooldown CooldownStore

	snapshots *model.Table
	opps      *OpportunityTable

	in  *stream.SnapshotQueue
	out *stream.SignalQueue

	scoreWork chan string
	logger    zerolog.Logger
	metrics   *metrics.Registry
}

// SetMetrics wires a Prometheus registry into the engine. Safe to call
// before Run; a nil Engine.metrics (the default) makes every recording
// call a no-op, so metrics wiring is strictly optional.
func (e *Engine) SetMetrics(m *metrics.Registry) { e.metrics = m }

// New constructs an Engine. out may be nil, meaning no executor is wired:
// signal emission is then suppressed, but scoring and the dashboard
// projection continue regardless.
func New(cfg config.Config, scorerCfg scoring.Config, in *stream.SnapshotQueue, out *stream.SignalQueue, cooldown CooldownStore) *Engine {
	if cooldown == nil {
		cooldown = NewMemoryCooldown()
	}
	return &Engine{
		cfg:       cfg,
		scorer:    scoring.NewScorer(scorerCfg),
		cooldown:  cooldown,
		snapshots: model.NewTable(),
		opps:      NewOpportunityTable(),
		in:        in,
		out:       out,
		scoreWork: make(chan string, 4096),
		logger:    fundarblog.Venue("engine"),
	}
}

// Opportunities exposes a read-only snapshot for dashboard projections.
func (e *Engine) Opportunities() []model.Opportunity { return e.opps.Snapshot() }

// Run drains the ingest queue and drives the scoring worker pool until
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	workers := e.cfg.Engine.ScoringWorkers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error { return e.scoreWorker(ctx) })
	}

	g.Go(func() error { return e.ingestLoop(ctx) })

	return g.Wait()
}

// ingestLoop is the sole writer to snapshots and the sole dispatcher of
// scoring work: validate, store, dispatch if at least two venues now
// report the symbol, then evict any opportunity whose funding boundary
// has passed.
func (e *Engine) ingestLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-e.in.Chan():
			if !ok {
				return nil
			}
			if !snap.IsValid() {
				if e.metrics != nil {
					e.metrics.SnapshotsInvalid.WithLabelValues(snap.VenueID).Inc()
				}
				continue
			}
			e.snapshots.Put(snap)
			if e.metrics != nil {
				e.metrics.SnapshotsIngested.WithLabelValues(snap.VenueID).Inc()
			}

			if e.snapshots.VenueCount(snap.Symbol) >= 2 {
				select {
				case e.scoreWork <- snap.Symbol:
				default:
					e.logger.Warn().Str("symbol", snap.Symbol).Msg("scoring queue full, dropping dispatch")
				}
			}
			if e.metrics != nil {
				e.metrics.ScoreWorkQueueDepth.Set(float64(len(e.scoreWork)))
			}

			e.opps.EvictExpired(time.Now().UnixMilli())
			if e.metrics != nil {
				e.metrics.OpportunityTableSize.Set(float64(e.opps.Len()))
			}
		}
	}
}

// scoreWorker drains scoreWork, scores one symbol's current venue set,
// replaces its opportunity-table entries, and emits signals for any
// opportunity crossing the signal threshold. Scoring panics are
// recovered so one bad symbol can never bring the engine down.
func (e *Engine) scoreWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case symbol, ok := <-e.scoreWork:
			if !ok {
				return nil
			}
			e.scoreSymbol(symbol)
		}
	}
}

func (e *Engine) scoreSymbol(symbol string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("symbol", symbol).Msg("scorer panic recovered")
			if e.metrics != nil {
				e.metrics.ScoringPanics.Inc()
			}
		}
	}()

	var timer *metrics.Timer
	if e.metrics != nil {
		timer = e.metrics.StartScoringTimer()
	}
	venues := e.snapshots.Venues(symbol)
	now := time.Now().UnixMilli()
	pass := e.scorer.Score(venues, now)
	if timer != nil {
		timer.Stop()
	}
	e.opps.ReplaceSymbol(symbol, pass)

	for _, o := range pass {
		e.maybeEmitSignal(o)
	}
}

// maybeEmitSignal applies the signal-emission gate: threshold check, then
// cooldown check, then publish + cooldown touch.
func (e *Engine) maybeEmitSignal(o model.Opportunity) {
	if e.out == nil {
		return
	}
	if o.FinalScore < e.cfg.Scoring.SignalScoreThreshold {
		return
	}

	now := time.Now().Unix()
	if last, ok := e.cooldown.LastSignal(o.Symbol); ok {
		if now-last < int64(e.cfg.Engine.CooldownSeconds) {
			if e.metrics != nil {
				e.metrics.SignalsSuppressed.WithLabelValues(o.Symbol).Inc()
			}
			return
		}
	}

	e.out.Publish(model.TradeSignal{
		Symbol:          o.Symbol,
		LongVenue:       o.LongVenue,
		ShortVenue:      o.ShortVenue,
		EntryPriceLong:  o.AskLong,
		EntryPriceShort: o.BidShort,
		TargetSpread:    o.EntrySpreadBps,
		FundingYieldBps: o.GrossYieldBps,
		Score:           o.FinalScore,
		Timestamp:       now,
	})
	e.cooldown.Touch(o.Symbol, now)
	if e.metrics != nil {
		e.metrics.SignalsEmitted.WithLabelValues(o.Symbol).Inc()
	}
}
