package venue

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	fundarblog "github.com/sawpanic/fundarb/internal/log"
)

// dialAndServe owns one websocket connection's full lifecycle: dial, hand
// each text frame to onMessage, and keep a read deadline alive via pings.
// It returns only when ctx is cancelled or the connection drops; each
// venue adapter runs its own reconnect loop around this single
// synchronous call.
func dialAndServe(ctx context.Context, logger zerolog.Logger, url string, subscribe [][]byte, onMessage func([]byte) error) error {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 15 * time.Second

	conn, _, err := dialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, sub := range subscribe {
		if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	pingTicker := time.NewTicker(20 * time.Second)
	defer pingTicker.Stop()
	go func() {
		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if err := onMessage(data); err != nil {
			logger.Warn().Err(err).Msg("message handling error")
		}
	}
}

// reconnectLoop calls dialAndServe repeatedly, force-closing and backing
// off between attempts, until ctx is cancelled.
func reconnectLoop(ctx context.Context, logger zerolog.Logger, venueName string, backoff time.Duration, attempt func(ctx context.Context) error) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := attempt(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error().Err(err).Msg("socket error, resetting connection")
			if reg != nil {
				reg.VenueReconnects.WithLabelValues(venueName).Inc()
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func venueLogger(name string) zerolog.Logger { return fundarblog.Venue(name) }
