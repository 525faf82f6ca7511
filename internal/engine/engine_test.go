package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/fundarb/internal/config"
	"github.com/sawpanic/fundarb/internal/model"
	"github.com/sawpanic/fundarb/internal/scoring"
	"github.com/sawpanic/fundarb/internal/stream"
)

func mkOpp(symbol, long, short string, score float64, earliestTS int64) model.Opportunity {
	return model.Opportunity{
		Symbol: symbol, LongVenue: long, ShortVenue: short,
		FinalScore: score, EarliestTS: earliestTS,
	}
}

func TestOpportunityTable_ReplaceSymbol_UpsertsAndDeletesStale(t *testing.T) {
	table := NewOpportunityTable()
	table.ReplaceSymbol("BTC", []model.Opportunity{
		mkOpp("BTC", "binance", "bybit", 12, 1_000_000),
		mkOpp("BTC", "bybit", "binance", 8, 1_000_000),
	})
	require.Len(t, table.Snapshot(), 2)

	// Second pass only returns one of the two pairs; the other must be evicted.
	table.ReplaceSymbol("BTC", []model.Opportunity{
		mkOpp("BTC", "binance", "bybit", 15, 1_000_000),
	})
	out := table.Snapshot()
	require.Len(t, out, 1)
	assert.Equal(t, "binance", out[0].LongVenue)
	assert.Equal(t, 15.0, out[0].FinalScore)
}

func TestOpportunityTable_ReplaceSymbol_EmptyPassClearsSymbol(t *testing.T) {
	table := NewOpportunityTable()
	table.ReplaceSymbol("BTC", []model.Opportunity{mkOpp("BTC", "binance", "bybit", 12, 1_000_000)})
	table.ReplaceSymbol("BTC", nil)
	assert.Empty(t, table.Snapshot())
}

func TestOpportunityTable_ReplaceSymbol_DoesNotTouchOtherSymbols(t *testing.T) {
	table := NewOpportunityTable()
	table.ReplaceSymbol("BTC", []model.Opportunity{mkOpp("BTC", "binance", "bybit", 12, 1_000_000)})
	table.ReplaceSymbol("ETH", []model.Opportunity{mkOpp("ETH", "bybit", "okx", 9, 1_000_000)})
	assert.Len(t, table.Snapshot(), 2)

	table.ReplaceSymbol("ETH", nil)
	out := table.Snapshot()
	require.Len(t, out, 1)
	assert.Equal(t, "BTC", out[0].Symbol)
}

func TestOpportunityTable_EvictExpired_RemovesPastBoundaryGlobally(t *testing.T) {
	table := NewOpportunityTable()
	now := int64(1_000_000)
	table.ReplaceSymbol("BTC", []model.Opportunity{mkOpp("BTC", "binance", "bybit", 12, now-1)})
	table.ReplaceSymbol("ETH", []model.Opportunity{mkOpp("ETH", "bybit", "okx", 9, now+60_000)})

	table.EvictExpired(now)
	out := table.Snapshot()
	require.Len(t, out, 1)
	assert.Equal(t, "ETH", out[0].Symbol)
}

func TestOpportunityTable_Snapshot_SortedByFinalScoreDescending(t *testing.T) {
	table := NewOpportunityTable()
	table.ReplaceSymbol("BTC", []model.Opportunity{mkOpp("BTC", "binance", "bybit", 5, 1_000_000)})
	table.ReplaceSymbol("ETH", []model.Opportunity{mkOpp("ETH", "bybit", "okx", 20, 1_000_000)})

	out := table.Snapshot()
	require.Len(t, out, 2)
	assert.Equal(t, "ETH", out[0].Symbol)
	assert.Equal(t, "BTC", out[1].Symbol)
}

func TestMemoryCooldown_TouchThenLastSignal(t *testing.T) {
	store := NewMemoryCooldown()
	_, ok := store.LastSignal("BTC")
	assert.False(t, ok)

	store.Touch("BTC", 1000)
	v, ok := store.LastSignal("BTC")
	require.True(t, ok)
	assert.Equal(t, int64(1000), v)
}

func TestNewCooldownStore_DefaultsToMemoryWithoutAddr(t *testing.T) {
	store := NewCooldownStore("")
	_, isMemory := store.(*memoryCooldown)
	assert.True(t, isMemory)
}

func TestEngine_MaybeEmitSignal_RespectsCooldownWindow(t *testing.T) {
	cfg := config.Defaults()
	cooldown := NewMemoryCooldown()
	e := New(cfg, scoring.DefaultConfig(), nil, nil, cooldown)

	// With no out queue wired, emission is a no-op but must not panic.
	e.maybeEmitSignal(mkOpp("BTC", "binance", "bybit", 15, 1_000_000))

	// Directly exercise the cooldown gate logic via the store: a touch
	// inside the window suppresses a second emission at the same instant.
	now := time.Now().Unix()
	cooldown.Touch("BTC", now)
	last, ok := cooldown.LastSignal("BTC")
	require.True(t, ok)
	assert.Equal(t, now, last)
	assert.Less(t, now-last, int64(cfg.Engine.CooldownSeconds))

	// With an out queue wired, the first signal for a symbol is published
	// and a second one inside the cooldown window is suppressed.
	out := stream.NewSignalQueue(0)
	e = New(cfg, scoring.DefaultConfig(), nil, out, NewMemoryCooldown())
	e.maybeEmitSignal(mkOpp("ETH", "bybit", "okx", 15, 1_000_000))
	e.maybeEmitSignal(mkOpp("ETH", "bybit", "okx", 15, 1_000_000))
	assert.Len(t, out.Chan(), 1)
}
