package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/fundarb/internal/config"
	"github.com/sawpanic/fundarb/internal/model"
	"github.com/sawpanic/fundarb/internal/ratelimit"
	"github.com/sawpanic/fundarb/internal/stream"
)

const binanceStreamBase = "wss://fstream.binance.com/stream?streams="

// binanceAdapter is the composite-stream variant: three independent
// combined-stream connections per chunk (bookTicker, 24hr ticker,
// markPrice), run concurrently and folded into one Snapshot per symbol.
type binanceAdapter struct {
	cfg     config.VenueConfig
	symbols []string

	mu    sync.Mutex
	state map[string]model.Snapshot
}

// NewBinance constructs the Binance USDT-M linear perpetual adapter.
func NewBinance(cfg config.VenueConfig, symbols []string) Adapter {
	return &binanceAdapter{cfg: cfg, symbols: symbols, state: make(map[string]model.Snapshot)}
}

func (a *binanceAdapter) Venue() string { return "binance" }

const binanceExchangeInfoURL = "https://fapi.binance.com/fapi/v1/exchangeInfo"

func (a *binanceAdapter) Run(ctx context.Context, out *stream.SnapshotQueue) error {
	logger := venueLogger(a.Venue())
	restPreflight(ctx, logger, a.Venue(), a.cfg, binanceExchangeInfoURL)
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
			return a.runChunk(ctx, logger, chunk, out)
		})
	}
	return g.Wait()
}

// runChunk fans a symbol chunk out over the three composite streams
// concurrently, each with its own reconnect loop.
func (a *binanceAdapter) runChunk(ctx context.Context, logger zerolog.Logger, chunk []string, out *stream.SnapshotQueue) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return reconnectLoop(ctx, logger, a.Venue(), a.cfg.ReconnectBackoff(), func(ctx context.Context) error {
			return a.watchBookTickers(ctx, logger, chunk, out)
		})
	})
	g.Go(func() error {
		return reconnectLoop(ctx, logger, a.Venue(), a.cfg.ReconnectBackoff(), func(ctx context.Context) error {
			return a.watchMarkPrices(ctx, logger, chunk, out)
		})
	})
	g.Go(func() error {
		return reconnectLoop(ctx, logger, a.Venue(), a.cfg.ReconnectBackoff(), func(ctx context.Context) error {
			return a.watch24hTickers(ctx, logger, chunk, out)
		})
	})
	return g.Wait()
}

func binanceStreamURL(chunk []string, suffix string) string {
	parts := make([]string, len(chunk))
	for i, s := range chunk {
		parts[i] = strings.ToLower(s) + suffix
	}
	return binanceStreamBase + strings.Join(parts, "/")
}

type binanceEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

func (a *binanceAdapter) publish(symbol string, patch model.Snapshot, out *stream.SnapshotQueue) {
	a.mu.Lock()
	merged := a.state[symbol].Merge(patch)
	a.state[symbol] = merged
	a.mu.Unlock()
	if merged.IsValid() {
		out.Publish(merged)
	}
}

func (a *binanceAdapter) watchBookTickers(ctx context.Context, logger zerolog.Logger, chunk []string, out *stream.SnapshotQueue) error {
	url := binanceStreamURL(chunk, "@bookTicker")
	return dialAndServe(ctx, logger, url, nil, func(raw []byte) error {
		var env binanceEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		var t struct {
			Symbol  string `json:"s"`
			BidPx   string `json:"b"`
			AskPx   string `json:"a"`
		}
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return err
		}
		bid, err := strconv.ParseFloat(t.BidPx, 64)
		if err != nil {
			return fmt.Errorf("parse bid: %w", err)
		}
		ask, err := strconv.ParseFloat(t.AskPx, 64)
		if err != nil {
			return fmt.Errorf("parse ask: %w", err)
		}
		a.publish(t.Symbol, model.Snapshot{
			VenueID: a.Venue(), Symbol: t.Symbol, Bid: bid, Ask: ask,
			ObservedAt: time.Now().Unix(),
		}, out)
		return nil
	})
}

func (a *binanceAdapter) watch24hTickers(ctx context.Context, logger zerolog.Logger, chunk []string, out *stream.SnapshotQueue) error {
	url := binanceStreamURL(chunk, "@ticker")
	return dialAndServe(ctx, logger, url, nil, func(raw []byte) error {
		var env binanceEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		var t struct {
			Symbol       string `json:"s"`
			BaseVolume   string `json:"v"`
			QuoteVolume  string `json:"q"`
		}
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return err
		}
		baseVol, _ := strconv.ParseFloat(t.BaseVolume, 64)
		quoteVol, _ := strconv.ParseFloat(t.QuoteVolume, 64)
		a.publish(t.Symbol, model.Snapshot{
			VenueID: a.Venue(), Symbol: t.Symbol, BaseVolume: baseVol, QuoteVolume: quoteVol,
			ObservedAt: time.Now().Unix(),
		}, out)
		return nil
	})
}

func (a *binanceAdapter) watchMarkPrices(ctx context.Context, logger zerolog.Logger, chunk []string, out *stream.SnapshotQueue) error {
	url := binanceStreamURL(chunk, "@markPrice@1s")
	return dialAndServe(ctx, logger, url, nil, func(raw []byte) error {
		var env binanceEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		var t struct {
			Symbol        string `json:"s"`
			MarkPrice     string `json:"p"`
			IndexPrice    string `json:"i"`
			FundingRate   string `json:"r"`
			NextFundingTS int64  `json:"T"`
		}
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return err
		}
		mark, _ := strconv.ParseFloat(t.MarkPrice, 64)
		index, _ := strconv.ParseFloat(t.IndexPrice, 64)
		funding, _ := strconv.ParseFloat(t.FundingRate, 64)
		a.publish(t.Symbol, model.Snapshot{
			VenueID: a.Venue(), Symbol: t.Symbol, MarkPrice: mark, IndexPrice: index,
			FundingRate: funding, NextFundingTS: t.NextFundingTS,
			ObservedAt: time.Now().Unix(),
		}, out)
		return nil
	})
}
