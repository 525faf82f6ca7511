// Package executor defines the boundary between the engine and an
// external trade executor: the ActiveTrade record shape an executor
// would persist per open position, and the SignalSink interface the
// engine publishes TradeSignal values to. No position-management logic,
// venue order placement, or persistence is implemented here — the
// executor itself lives outside this module.
package executor

import (
	"context"

	"github.com/sawpanic/fundarb/internal/model"
)

// TradeStatus is an open position's three-state lifecycle.
type TradeStatus string

const (
	StatusOpen    TradeStatus = "OPEN"
	StatusClosing TradeStatus = "CLOSING"
	StatusClosed  TradeStatus = "CLOSED"
)

// ActiveTrade is the record shape an executor would persist per open
// position; named here only so the boundary is typed.
type ActiveTrade struct {
	TradeID         string
	Symbol          string
	LongVenue       string
	ShortVenue      string
	EntryPriceLong  float64
	EntryPriceShort float64
	SizeAmount      float64
	EntrySpread     float64
	Status          TradeStatus
	EntryTime       int64 // epoch seconds
	PnLRealized     float64
}

// SignalSink is the interface the engine's SignalQueue consumer would
// implement to act on emitted TradeSignal values. No implementation ships
// in this module; internal/stream.SignalQueue.Chan is the concrete
// transport a real executor would drain.
type SignalSink interface {
	// Submit is called once per TradeSignal the engine emits. Ctx carries
	// the executor's own lifecycle, independent of the engine's.
	Submit(ctx context.Context, signal model.TradeSignal) error
}
