package engine

import (
	"sort"
	"strings"
	"sync"

	"github.com/sawpanic/fundarb/internal/model"
)

// OpportunityTable holds the engine's current best-known opportunities,
// keyed by model.Opportunity.Key(). The engine is the sole writer;
// Snapshot gives dashboard/HTTP readers a consistent point-in-time copy —
// either the pre- or post-pass state, never a partially-written one —
// without blocking the writer for longer than a map copy.
type OpportunityTable struct {
	mu   sync.RWMutex
	byKey map[string]model.Opportunity
}

// NewOpportunityTable returns an empty table.
func NewOpportunityTable() *OpportunityTable {
	return &OpportunityTable{byKey: make(map[string]model.Opportunity)}
}

// ReplaceSymbol upserts every opportunity in pass (a scoring result for one
// symbol) and deletes any previously-held key for that symbol absent from
// pass.
func (t *OpportunityTable) ReplaceSymbol(symbol string, pass []model.Opportunity) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fresh := make(map[string]struct{}, len(pass))
	for _, o := range pass {
		key := o.Key()
		fresh[key] = struct{}{}
		t.byKey[key] = o
	}
	prefix := symbol + "_"
	for key := range t.byKey {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if _, keep := fresh[key]; !keep {
			delete(t.byKey, key)
		}
	}
}

// EvictExpired globally deletes any opportunity whose earliest funding
// boundary has already passed, regardless of symbol.
func (t *OpportunityTable) EvictExpired(nowMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, o := range t.byKey {
		if o.EarliestTS <= nowMs {
			delete(t.byKey, key)
		}
	}
}

// Snapshot returns a copy of every current opportunity, sorted by
// FinalScore descending, safe for a dashboard projection to read while the
// engine continues mutating the live table.
func (t *OpportunityTable) Snapshot() []model.Opportunity {
	t.mu.RLock()
	out := make([]model.Opportunity, 0, len(t.byKey))
	for _, o := range t.byKey {
		out = append(out, o)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].FinalScore > out[j].FinalScore })
	return out
}

// Len reports the current opportunity count, recorded by the engine as the
// opportunity-table-size metric.
func (t *OpportunityTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byKey)
}
