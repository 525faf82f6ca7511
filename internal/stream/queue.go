// Package stream provides the two single-writer-pattern queues that sit
// between venue adapters, the engine, and the external executor:
// SnapshotQueue (many producers, one consumer) and SignalQueue (one
// producer, one consumer). A SnapshotQueue built with a positive capacity
// drops its oldest value to make room for the newest instead of blocking
// the producer; otherwise it uses a large buffer and blocks only once that
// fills. A SignalQueue blocks the producer when its buffer is full.
package stream

import (
	"github.com/sawpanic/fundarb/internal/model"
)

// SnapshotQueue delivers Snapshot values from venue adapters to the engine's
// ingest loop in arrival order. When bounded and full, the oldest queued
// snapshot is dropped to make room for the newer one rather than blocking
// the publishing adapter goroutine indefinitely.
type SnapshotQueue struct {
	ch       chan model.Snapshot
	capacity int
}

// NewSnapshotQueue creates a queue. capacity <= 0 means unbounded.
func NewSnapshotQueue(capacity int) *SnapshotQueue {
	size := capacity
	if size <= 0 {
		size = 1 << 16 // generous buffer standing in for "unbounded"
	}
	return &SnapshotQueue{
		ch:       make(chan model.Snapshot, size),
		capacity: capacity,
	}
}

// Publish enqueues a snapshot. If the queue is at capacity, Publish makes
// room by draining one queued element (oldest-first, via the channel's own
// FIFO order) rather than blocking the adapter goroutine indefinitely.
func (q *SnapshotQueue) Publish(s model.Snapshot) {
	if q.capacity > 0 {
		select {
		case q.ch <- s:
			return
		default:
			select {
			case <-q.ch:
			default:
			}
			select {
			case q.ch <- s:
			default:
			}
			return
		}
	}
	q.ch <- s
}

// Chan exposes the underlying receive channel for the engine's ingest loop.
func (q *SnapshotQueue) Chan() <-chan model.Snapshot { return q.ch }

// SignalQueue delivers TradeSignal values from the engine to the external
// executor. It is single-producer/single-consumer; a nil *SignalQueue is a
// valid "no executor wired" state: the engine suppresses emission and
// continues scoring regardless.
type SignalQueue struct {
	ch chan model.TradeSignal
}

// NewSignalQueue creates a signal queue with the given buffer size.
func NewSignalQueue(capacity int) *SignalQueue {
	if capacity <= 0 {
		capacity = 256
	}
	return &SignalQueue{ch: make(chan model.TradeSignal, capacity)}
}

// Publish enqueues a signal, blocking only if the executor is falling
// behind the buffer depth.
func (q *SignalQueue) Publish(s model.TradeSignal) {
	if q == nil {
		return
	}
	q.ch <- s
}

// Chan exposes the underlying receive channel for the executor collaborator.
func (q *SignalQueue) Chan() <-chan model.TradeSignal {
	if q == nil {
		return nil
	}
	return q.ch
}
