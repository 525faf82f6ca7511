package venue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/fundarb/internal/config"
	"github.com/sawpanic/fundarb/internal/model"
	"github.com/sawpanic/fundarb/internal/ratelimit"
	"github.com/sawpanic/fundarb/internal/stream"
)

const bybitStreamURL = "wss://stream.bybit.com/v5/public/linear"

// bybitAdapter is the unified-ticker variant: a single "tickers.<symbol>"
// topic carries bid/ask/mark/index/funding/volume together, so there is
// nothing to merge across streams.
type bybitAdapter struct {
	cfg     config.VenueConfig
	symbols []string
}

// NewBybit constructs the Bybit USDT perpetual adapter.
func NewBybit(cfg config.VenueConfig, symbols []string) Adapter {
	return &bybitAdapter{cfg: cfg, symbols: symbols}
}

func (a *bybitAdapter) Venue() string { return "bybit" }

const bybitInstrumentsInfoURL = "https://api.bybit.com/v5/market/instruments-info?category=linear"

func (a *bybitAdapter) Run(ctx context.Context, out *stream.SnapshotQueue) error {
	logger := venueLogger(a.Venue())
	restPreflight(ctx, logger, a.Venue(), a.cfg, bybitInstrumentsInfoURL)
	chunks := ratelimit.ChunkSymbols(a.symbols, a.cfg.ChunkSize)
	g, ctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(ratelimit.ChunkStagger(i, a.cfg.ChunkStagger())):
			}
			return reconnectLoop(ctx, logger, a.Venue(), a.cfg.ReconnectBackoff(), func(ctx context.Context) error {
				return a.watchChunk(ctx, logger, chunk, out)
			})
		})
	}
	return g.Wait()
}

type bybitSubscribe struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type bybitMessage struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

type bybitTicker struct {
	Symbol          string `json:"symbol"`
	BidPrice        string `json:"bid1Price"`
	AskPrice        string `json:"ask1Price"`
	MarkPrice       string `json:"markPrice"`
	IndexPrice      string `json:"indexPrice"`
	FundingRate     string `json:"fundingRate"`
	NextFundingTime string `json:"nextFundingTime"`
	Volume24h       string `json:"volume24h"`
	Turnover24h     string `json:"turnover24h"`
}

func (a *bybitAdapter) watchChunk(ctx context.Context, logger zerolog.Logger, chunk []string, out *stream.SnapshotQueue) error {
	args := make([]string, len(chunk))
	for i, s := range chunk {
		args[i] = "tickers." + s
	}
	sub, err := json.Marshal(bybitSubscribe{Op: "subscribe", Args: args})
	if err != nil {
		return err
	}
	return dialAndServe(ctx, logger, bybitStreamURL, [][]byte{sub}, func(raw []byte) error {
		var msg bybitMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Topic == "" {
			return nil // control frames (pong/ack) lack a topic
		}
		var t bybitTicker
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			return err
		}
		if t.Symbol == "" {
			return nil
		}
		bid, _ := strconv.ParseFloat(t.BidPrice, 64)
		ask, _ := strconv.ParseFloat(t.AskPrice, 64)
		mark, _ := strconv.ParseFloat(t.MarkPrice, 64)
		index, _ := strconv.ParseFloat(t.IndexPrice, 64)
		funding, _ := strconv.ParseFloat(t.FundingRate, 64)
		nextFundingMs, _ := strconv.ParseInt(t.NextFundingTime, 10, 64)
		baseVol, _ := strconv.ParseFloat(t.Volume24h, 64)
		quoteVol, _ := strconv.ParseFloat(t.Turnover24h, 64)

		snap := model.Snapshot{
			VenueID:       a.Venue(),
			Symbol:        t.Symbol,
			Bid:           bid,
			Ask:           ask,
			MarkPrice:     mark,
			IndexPrice:    index,
			FundingRate:   funding,
			NextFundingTS: nextFundingMs,
			BaseVolume:    baseVol,
			QuoteVolume:   quoteVol,
			ObservedAt:    time.Now().Unix(),
		}
		if snap.IsValid() {
			out.Publish(snap)
		}
		return nil
	})
}
