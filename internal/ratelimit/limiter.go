// Package ratelimit paces REST market-metadata calls and schedules the
// per-chunk websocket startup stagger: chunk i waits ~2s*i before dialing
// so a large symbol universe doesn't open every connection at once and
// trip a venue's burst rate limit.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps golang.org/x/time/rate for one venue's REST endpoint.
type Limiter struct {
	l *rate.Limiter
}

// New creates a token-bucket limiter allowing rps requests per second with
// the given burst.
func New(rps float64, burst int) *Limiter {
	return &Limiter{l: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.l.Wait(ctx)
}

// ChunkStagger returns how long chunk index i should sleep before starting
// its own ingestion loop, given the configured per-chunk stagger interval.
func ChunkStagger(index int, stagger time.Duration) time.Duration {
	return time.Duration(index) * stagger
}

// ChunkSymbols partitions symbols into fixed-size chunks, preserving order.
func ChunkSymbols(symbols []string, size int) [][]string {
	if size <= 0 {
		return [][]string{symbols}
	}
	chunks := make([][]string, 0, (len(symbols)+size-1)/size)
	for i := 0; i < len(symbols); i += size {
		end := i + size
		if end > len(symbols) {
			end = len(symbols)
		}
		chunks = append(chunks, symbols[i:end])
	}
	return chunks
}
