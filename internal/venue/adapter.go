// Package venue implements one websocket adapter per exchange, each
// normalizing that exchange's wire format into model.Snapshot and
// publishing it onto a shared stream.SnapshotQueue. Two adapter shapes
// exist: unified-ticker (one topic carries bid/ask/mark/funding/volume
// together) and composite-stream (several topics merged client-side into
// one Snapshot per symbol). Large symbol universes are chunked across
// several connections, staggered on startup to avoid a burst-rate trip.
package venue

import (
	"context"

	"github.com/sawpanic/fundarb/internal/config"
	"github.com/sawpanic/fundarb/internal/stream"
)

// Adapter connects to one venue's market-data feed and publishes
// normalized snapshots until ctx is cancelled.
type Adapter interface {
	// Venue returns the adapter's venue identifier ("binance", "bybit", ...).
	Venue() string
	// Run blocks, reconnecting on error, until ctx is cancelled.
	Run(ctx context.Context, out *stream.SnapshotQueue) error
}

// Factory constructs an Adapter for one venue given its config and the
// symbol universe to subscribe to.
type Factory func(cfg config.VenueConfig, symbols []string) Adapter
