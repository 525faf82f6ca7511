// Package breaker wraps each venue's REST market-metadata probe in a
// circuit breaker so a metadata-endpoint outage fails fast instead of
// retrying into a dead host forever. The probe only checks that the
// endpoint answers; no symbol list is loaded or cached from its response.
package breaker

import (
	"time"

	cb "github.com/sony/gobreaker"
)

// Breaker guards one venue's REST calls.
type Breaker struct{ cb *cb.CircuitBreaker }

// New creates a breaker named after the venue it guards. It trips after 3
// consecutive failures, or once failure rate exceeds 5% over a 20+ request
// window, and probes again after a minute in the open state.
func New(venue string) *Breaker {
	st := cb.Settings{Name: venue}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		total := counts.Requests
		if total < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(total) > 0.05
	}
	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) { return b.cb.Execute(fn) }

// State reports the breaker's current state name ("closed", "half-open",
// "open"), reported in the REST preflight's failure log.
func (b *Breaker) State() string { return b.cb.State().String() }
