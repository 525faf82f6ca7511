// Package dashboard renders a periodic, read-only projection of the
// engine's OpportunityTable: a fixed-width text table plus an HTTP status
// surface for operators. Rendering never mutates engine state; it
// operates entirely on the snapshot returned by Engine.Opportunities,
// which is itself a lock-scoped copy.
package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/sawpanic/fundarb/internal/model"
)

// venueAbbrev returns a venue's 3-letter uppercase prefix, padding short
// names so the PAIR column never panics on slicing.
func venueAbbrev(venue string) string {
	v := strings.ToUpper(venue)
	for len(v) < 3 {
		v += "X"
	}
	return v[:3]
}

// pair renders the "{long[0:3]}/{short[0:3]}" venue pair label.
func pair(long, short string) string {
	return venueAbbrev(long) + "/" + venueAbbrev(short)
}

// Render writes the fixed-width opportunity table to w: a header naming
// the displayed/total counts, then one row per opportunity in opps
// (already sorted by FinalScore descending), truncated to topN.
func Render(w io.Writer, opps []model.Opportunity, topN int) {
	total := len(opps)
	shown := opps
	if topN > 0 && len(shown) > topN {
		shown = shown[:topN]
	}

	fmt.Fprintf(w, "--- LIVE DELTA NEUTRAL OPPORTUNITIES (Top %d of %d) ---\n", len(shown), total)
	for _, o := range shown {
		fmt.Fprintf(w, "%-12s %-12s %6.1f %8.1f %+8.1f %4.2f %6.1fm\n",
			o.Symbol,
			pair(o.LongVenue, o.ShortVenue),
			o.FinalScore,
			o.NetProfitBps,
			o.EntrySpreadBps,
			o.LiquidityScore,
			o.TimeToFundingMin,
		)
	}
}
