package dashboard

import (
	"context"
	"io"
	"time"

	"github.com/sawpanic/fundarb/internal/model"
)

// Run drives the periodic dashboard task: every interval it takes a
// consistent read of the opportunity table, sorted by FinalScore
// descending (opps already does this), and renders the top N rows to w.
// Rendering performs no mutation and tolerates concurrent table updates,
// since opps is a snapshot-and-release call.
func Run(ctx context.Context, w io.Writer, interval time.Duration, topN int, opps func() []model.Opportunity) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			Render(w, opps(), topN)
		}
	}
}
