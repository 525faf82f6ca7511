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

const bitgetStreamURL = "wss://ws.bitget.com/v2/ws/public"

// bitgetAdapter chunks its symbol universe and gives each chunk its own
// fully isolated websocket connection, staggered on startup so a large
// universe doesn't open every connection at once. Each isolated
// connection carries one unified ticker channel, so within a chunk
// there is nothing to merge.
type bitgetAdapter struct {
	cfg     config.VenueConfig
	symbols []string
}

// NewBitget constructs the Bitget USDT-M perpetual adapter.
func NewBitget(cfg config.VenueConfig, symbols []string) Adapter {
	return &bitgetAdapter{cfg: cfg, symbols: symbols}
}

func (a *bitgetAdapter) Venue() string { return "bitget" }

const bitgetContractsURL = "https://api.bitget.com/api/v2/mix/market/contracts?productType=USDT-FUTURES"

func (a *bitgetAdapter) Run(ctx context.Context, out *stream.SnapshotQueue) error {
	logger := venueLogger(a.Venue())
	restPreflight(ctx, logger, a.Venue(), a.cfg, bitgetContractsURL)
	chunks := ratelimit.ChunkSymbols(a.symbols, a.cfg.ChunkSize)
	logger.Info().Int("chunks", len(chunks)).Msg("spawning isolated connections")
	g, ctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(ratelimit.ChunkStagger(i, a.cfg.ChunkStagger())):
			}
			logger.Info().Int("chunk", i).Int("symbols", len(chunk)).Msg("isolated connection initializing")
			return reconnectLoop(ctx, logger, a.Venue(), a.cfg.ReconnectBackoff(), func(ctx context.Context) error {
				return a.watchChunk(ctx, logger, chunk, out)
			})
		})
	}
	return g.Wait()
}

type bitgetArg struct {
	InstType string `json:"instType"`
	Channel  string `json:"channel"`
	InstID   string `json:"instId"`
}

type bitgetSubscribe struct {
	Op   string      `json:"op"`
	Args []bitgetArg `json:"args"`
}

type bitgetMessage struct {
	Arg  bitgetArg         `json:"arg"`
	Data []json.RawMessage `json:"data"`
}

type bitgetTicker struct {
	InstID        string `json:"instId"`
	BidPr         string `json:"bidPr"`
	AskPr         string `json:"askPr"`
	IndexPrice    string `json:"indexPrice"`
	MarkPrice     string `json:"markPrice"`
	BaseVolume    string `json:"baseVolume"`
	QuoteVolume   string `json:"quoteVolume"`
	FundingRate   string `json:"fundingRate"`
	NextFundingTime string `json:"nextFundingTime"`
}

func (a *bitgetAdapter) watchChunk(ctx context.Context, logger zerolog.Logger, chunk []string, out *stream.SnapshotQueue) error {
	args := make([]bitgetArg, len(chunk))
	for i, s := range chunk {
		args[i] = bitgetArg{InstType: "USDT-FUTURES", Channel: "ticker", InstID: s}
	}
	sub, err := json.Marshal(bitgetSubscribe{Op: "subscribe", Args: args})
	if err != nil {
		return err
	}
	return dialAndServe(ctx, logger, bitgetStreamURL, [][]byte{sub}, func(raw []byte) error {
		var msg bitgetMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Arg.Channel != "ticker" {
			return nil
		}
		now := time.Now().Unix()
		for _, d := range msg.Data {
			var t bitgetTicker
			if err := json.Unmarshal(d, &t); err != nil {
				return err
			}
			bid, _ := strconv.ParseFloat(t.BidPr, 64)
			ask, _ := strconv.ParseFloat(t.AskPr, 64)
			index, _ := strconv.ParseFloat(t.IndexPrice, 64)
			mark, _ := strconv.ParseFloat(t.MarkPrice, 64)
			baseVol, _ := strconv.ParseFloat(t.BaseVolume, 64)
			quoteVol, _ := strconv.ParseFloat(t.QuoteVolume, 64)
			funding, _ := strconv.ParseFloat(t.FundingRate, 64)
			nextMs, _ := strconv.ParseInt(t.NextFundingTime, 10, 64)

			snap := model.Snapshot{
				VenueID: a.Venue(), Symbol: t.InstID, Bid: bid, Ask: ask,
				IndexPrice: index, MarkPrice: mark, BaseVolume: baseVol,
				QuoteVolume: quoteVol, FundingRate: funding, NextFundingTS: nextMs,
				ObservedAt: now,
			}
			if snap.IsValid() {
				out.Publish(snap)
			}
		}
		return nil
	})
}
