// Package model holds the value types carried through the ingestion and
// scoring pipeline: Snapshot, the per-symbol SnapshotTable, Opportunity, and
// TradeSignal.
package model

import (
	"math"
	"sync"
)

// Snapshot is a normalized per-(venue, symbol) view of market state at one
// instant. It is immutable after construction; adapters build a new value
// rather than mutating a published one.
type Snapshot struct {
	VenueID       string
	Symbol        string
	Bid           float64
	Ask           float64
	MarkPrice     float64
	IndexPrice    float64
	FundingRate   float64
	NextFundingTS int64 // epoch milliseconds, pinned at the adapter boundary
	BaseVolume    float64
	QuoteVolume   float64
	ObservedAt    int64 // epoch seconds, wall clock when the adapter built this value
}

// IsValid reports whether every field is present and within bounds. It
// checks presence/finiteness, not truthiness: a funding rate of exactly
// zero is a legitimate value and must not be rejected.
func (s Snapshot) IsValid() bool {
	if s.VenueID == "" || s.Symbol == "" {
		return false
	}
	for _, v := range []float64{s.Bid, s.Ask, s.MarkPrice, s.IndexPrice, s.FundingRate, s.BaseVolume, s.QuoteVolume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if s.Bid <= 0 || s.Ask <= 0 {
		return false
	}
	if s.Ask < s.Bid {
		return false
	}
	if s.MarkPrice <= 0 || s.IndexPrice <= 0 {
		return false
	}
	if s.NextFundingTS <= 0 {
		return false
	}
	if s.BaseVolume < 0 || s.QuoteVolume < 0 {
		return false
	}
	if s.ObservedAt <= 0 {
		return false
	}
	return true
}

// Merge overlays non-zero fields from patch on top of s, returning the
// merged record. FundingRate travels with NextFundingTS: it is overlaid,
// zero included, whenever patch carries a non-zero NextFundingTS, and not
// otherwise. The binance adapter and the okx tickers channel call this to
// fold a partial ticker/mark-price/volume update into the last known
// per-symbol state before re-checking validity and publishing.
func (s Snapshot) Merge(patch Snapshot) Snapshot {
	out := s
	out.VenueID = patch.VenueID
	out.Symbol = patch.Symbol
	if patch.Bid != 0 {
		out.Bid = patch.Bid
	}
	if patch.Ask != 0 {
		out.Ask = patch.Ask
	}
	if patch.MarkPrice != 0 {
		out.MarkPrice = patch.MarkPrice
	}
	if patch.IndexPrice != 0 {
		out.IndexPrice = patch.IndexPrice
	}
	if patch.NextFundingTS != 0 {
		out.FundingRate = patch.FundingRate
		out.NextFundingTS = patch.NextFundingTS
	}
	if patch.BaseVolume != 0 {
		out.BaseVolume = patch.BaseVolume
	}
	if patch.QuoteVolume != 0 {
		out.QuoteVolume = patch.QuoteVolume
	}
	if patch.ObservedAt != 0 {
		out.ObservedAt = patch.ObservedAt
	}
	return out
}

// Table is the symbol -> venue -> Snapshot map backing the scorer. Put and
// VenueCount are called from the ingest goroutine while Venues is called
// concurrently from the scoring worker pool, so every access goes through
// mu; readers copy out their result before releasing the lock.
type Table struct {
	mu       sync.RWMutex
	bySymbol map[string]map[string]Snapshot
}

// NewTable returns an empty SnapshotTable.
func NewTable() *Table {
	return &Table{bySymbol: make(map[string]map[string]Snapshot)}
}

// Put replaces the (symbol, venue) entry in place.
func (t *Table) Put(s Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	venues, ok := t.bySymbol[s.Symbol]
	if !ok {
		venues = make(map[string]Snapshot)
		t.bySymbol[s.Symbol] = venues
	}
	venues[s.VenueID] = s
}

// Venues returns a copy of the per-venue snapshots for symbol, preserving no
// particular order; callers (the scorer) must not rely on map order.
func (t *Table) Venues(symbol string) []Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	venues, ok := t.bySymbol[symbol]
	if !ok {
		return nil
	}
	out := make([]Snapshot, 0, len(venues))
	for _, s := range venues {
		out = append(out, s)
	}
	return out
}

// VenueCount returns how many venues currently have an entry for symbol.
func (t *Table) VenueCount(symbol string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.bySymbol[symbol])
}

// Opportunity is a scored, currently-tradeable (symbol, long venue, short
// venue) triple. Recomputed from scratch on every scoring pass; never
// mutated in place.
type Opportunity struct {
	Symbol            string
	LongVenue         string
	ShortVenue        string
	GrossYieldBps     float64
	FeesBps           float64
	EntrySpreadBps    float64
	NetProfitBps      float64
	LiquidityScore    float64
	MarkDivergenceBps float64
	TimeToFundingMin  float64
	EarliestTS        int64
	FinalScore        float64
	AskLong           float64
	BidShort          float64
}

// Key returns the canonical "{symbol}_{long}_{short}" identity used by the
// OpportunityTable.
func (o Opportunity) Key() string {
	return o.Symbol + "_" + o.LongVenue + "_" + o.ShortVenue
}

// TradeSignal is the value the engine publishes to the executor's
// SignalQueue. Consumers must treat every field as immutable.
type TradeSignal struct {
	Symbol          string
	LongVenue       string
	ShortVenue      string
	EntryPriceLong  float64
	EntryPriceShort float64
	TargetSpread    float64
	FundingYieldBps float64
	Score           float64
	Timestamp       int64 // epoch seconds
}
