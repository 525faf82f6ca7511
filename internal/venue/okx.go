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

const okxStreamURL = "wss://ws.okx.com:8443/ws/v5/public"

// okxAdapter is a fourth, unified-ticker-shaped venue. OKX's "tickers",
// "mark-price", and "funding-rate" channels are combined client-side
// into one merged Snapshot per symbol, the same fold binanceAdapter
// performs across its three composite streams.
type okxAdapter struct {
	cfg     config.VenueConfig
	symbols []string
}

// NewOKX constructs the OKX USDT-margined swap adapter.
func NewOKX(cfg config.VenueConfig, symbols []string) Adapter {
	return &okxAdapter{cfg: cfg, symbols: symbols}
}

func (a *okxAdapter) Venue() string { return "okx" }

const okxInstrumentsURL = "https://www.okx.com/api/v5/public/instruments?instType=SWAP"

func (a *okxAdapter) Run(ctx context.Context, out *stream.SnapshotQueue) error {
	logger := venueLogger(a.Venue())
	restPreflight(ctx, logger, a.Venue(), a.cfg, okxInstrumentsURL)
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

type okxArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type okxSubscribe struct {
	Op   string   `json:"op"`
	Args []okxArg `json:"args"`
}

type okxMessage struct {
	Arg  okxArg            `json:"arg"`
	Data []json.RawMessage `json:"data"`
}

type okxTicker struct {
	InstID  string `json:"instId"`
	BidPx   string `json:"bidPx"`
	AskPx   string `json:"askPx"`
	Last    string `json:"last"`
	VolCcy  string `json:"volCcy24h"`
	Vol     string `json:"vol24h"`
}

type okxMarkPrice struct {
	InstID    string `json:"instId"`
	MarkPx    string `json:"markPx"`
}

type okxFundingRate struct {
	InstID      string `json:"instId"`
	FundingRate string `json:"fundingRate"`
	NextFunding string `json:"nextFundingTime"`
}

func instID(symbol string) string { return symbol } // symbols already carried in OKX's own "BTC-USDT-SWAP" form

func (a *okxAdapter) watchChunk(ctx context.Context, logger zerolog.Logger, chunk []string, out *stream.SnapshotQueue) error {
	args := make([]okxArg, 0, len(chunk)*3)
	for _, s := range chunk {
		args = append(args,
			okxArg{Channel: "tickers", InstID: instID(s)},
			okxArg{Channel: "mark-price", InstID: instID(s)},
			okxArg{Channel: "funding-rate", InstID: instID(s)},
		)
	}
	sub, err := json.Marshal(okxSubscribe{Op: "subscribe", Args: args})
	if err != nil {
		return err
	}

	state := make(map[string]model.Snapshot, len(chunk))
	publish := func(symbol string, patch model.Snapshot) {
		merged := state[symbol].Merge(patch)
		state[symbol] = merged
		if merged.IsValid() {
			out.Publish(merged)
		}
	}

	return dialAndServe(ctx, logger, okxStreamURL, [][]byte{sub}, func(raw []byte) error {
		var msg okxMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Arg.Channel == "" {
			return nil
		}
		now := time.Now().Unix()
		for _, d := range msg.Data {
			switch msg.Arg.Channel {
			case "tickers":
				var t okxTicker
				if err := json.Unmarshal(d, &t); err != nil {
					return err
				}
				bid, _ := strconv.ParseFloat(t.BidPx, 64)
				ask, _ := strconv.ParseFloat(t.AskPx, 64)
				baseVol, _ := strconv.ParseFloat(t.Vol, 64)
				quoteVol, _ := strconv.ParseFloat(t.VolCcy, 64)
				publish(t.InstID, model.Snapshot{
					VenueID: a.Venue(), Symbol: t.InstID, Bid: bid, Ask: ask,
					BaseVolume: baseVol, QuoteVolume: quoteVol, ObservedAt: now,
				})
			case "mark-price":
				var m okxMarkPrice
				if err := json.Unmarshal(d, &m); err != nil {
					return err
				}
				mark, _ := strconv.ParseFloat(m.MarkPx, 64)
				prev := state[m.InstID]
				prev.MarkPrice = mark
				if prev.IndexPrice == 0 {
					prev.IndexPrice = mark
				}
				prev.VenueID, prev.Symbol = a.Venue(), m.InstID
				prev.ObservedAt = now
				state[m.InstID] = prev
				if prev.IsValid() {
					out.Publish(prev)
				}
			case "funding-rate":
				var f okxFundingRate
				if err := json.Unmarshal(d, &f); err != nil {
					return err
				}
				rate, _ := strconv.ParseFloat(f.FundingRate, 64)
				nextMs, _ := strconv.ParseInt(f.NextFunding, 10, 64)
				prev := state[f.InstID]
				prev.FundingRate = rate
				prev.NextFundingTS = nextMs
				prev.VenueID, prev.Symbol = a.Venue(), f.InstID
				prev.ObservedAt = now
				state[f.InstID] = prev
				if prev.IsValid() {
					out.Publish(prev)
				}
			}
		}
		return nil
	})
}
