package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkSymbols_PreservesAllSymbolsInOrder(t *testing.T) {
	symbols := make([]string, 0, 130)
	for i := 0; i < 130; i++ {
		symbols = append(symbols, string(rune('A'+i%26)))
	}
	chunks := ChunkSymbols(symbols, 50)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 50)
	assert.Len(t, chunks[1], 50)
	assert.Len(t, chunks[2], 30)

	flat := make([]string, 0, len(symbols))
	for _, c := range chunks {
		flat = append(flat, c...)
	}
	assert.Equal(t, symbols, flat)
}

func TestChunkSymbols_NonPositiveSizeReturnsSingleChunk(t *testing.T) {
	symbols := []string{"A", "B", "C"}
	chunks := ChunkSymbols(symbols, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, symbols, chunks[0])
}

func TestChunkStagger_ScalesByIndex(t *testing.T) {
	stagger := 2 * time.Second
	assert.Equal(t, time.Duration(0), ChunkStagger(0, stagger))
	assert.Equal(t, 2*time.Second, ChunkStagger(1, stagger))
	assert.Equal(t, 6*time.Second, ChunkStagger(3, stagger))
}

func TestLimiter_WaitRespectsContextCancellation(t *testing.T) {
	l := New(0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Wait(ctx)
	assert.Error(t, err)
}
