package venue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/fundarb/internal/config"
	"github.com/sawpanic/fundarb/internal/stream"
)

func TestNew_UnknownVenueErrors(t *testing.T) {
	_, err := New("deribit", config.VenueConfig{}, []string{"BTCUSDT"})
	require.Error(t, err)
}

func TestNew_DispatchesKnownVenues(t *testing.T) {
	cfg := config.VenueConfig{Variant: "unified", ChunkSize: 50}
	for _, name := range []string{"binance", "bybit", "bitget", "okx", "sim"} {
		a, err := New(name, cfg, []string{"BTCUSDT"})
		require.NoError(t, err, name)
		assert.NotNil(t, a)
	}
}

func TestBuildAll_SkipsDisabledVenues(t *testing.T) {
	venues := map[string]config.VenueConfig{
		"binance": {Enabled: true, Variant: "composite", ChunkSize: 50},
		"bybit":   {Enabled: false, Variant: "unified", ChunkSize: 50},
	}
	adapters, err := BuildAll(venues, []string{"BTCUSDT"})
	require.NoError(t, err)
	require.Len(t, adapters, 1)
	assert.Equal(t, "binance", adapters[0].Venue())
}

func TestSimAdapter_PublishesValidSnapshots(t *testing.T) {
	a := NewSim("sim", []string{"BTCUSDT", "ETHUSDT"}, 7)
	q := stream.NewSnapshotQueue(64)

	// The sim adapter ticks once per second, so the run window must outlast
	// the first tick.
	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, q) }()

	select {
	case snap := <-q.Chan():
		assert.True(t, snap.IsValid())
		assert.Equal(t, "sim", snap.VenueID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a synthetic snapshot")
	}
	<-done
}

func TestSimAdapter_DeterministicUnderSameSeed(t *testing.T) {
	symbols := []string{"BTCUSDT"}
	a1 := NewSim("sim", symbols, 99).(*simAdapter)
	a2 := NewSim("sim", symbols, 99).(*simAdapter)

	r1 := newXorshift(a1.seed)
	r2 := newXorshift(a2.seed)
	for i := 0; i < 10; i++ {
		assert.Equal(t, r1.next(), r2.next())
	}
}

