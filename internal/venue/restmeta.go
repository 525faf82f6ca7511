package venue

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/sawpanic/fundarb/internal/breaker"
	"github.com/sawpanic/fundarb/internal/config"
	"github.com/sawpanic/fundarb/internal/ratelimit"
)

// restPreflight probes a venue's REST exchange-metadata endpoint once
// before the adapter opens any websocket connection: rate-limited,
// circuit-broken, and retried a few times on transient failure. A
// metadata endpoint outage surfaces as a logged warning, not a blocked
// startup, since the websocket streams carry everything the scorer
// actually needs.
func restPreflight(ctx context.Context, logger zerolog.Logger, venueName string, cfg config.VenueConfig, url string) {
	limiter := ratelimit.New(cfg.RestRPS, cfg.RestBurst)
	if err := limiter.Wait(ctx); err != nil {
		return
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	client.HTTPClient.Timeout = 5 * time.Second

	cb := breaker.New(venueName)
	_, err := cb.Execute(func() (any, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("metadata endpoint returned %d", resp.StatusCode)
		}
		return resp.StatusCode, nil
	})
	if err != nil {
		logger.Warn().Err(err).Str("breaker_state", cb.State()).Msg("REST metadata preflight failed, continuing with websocket streams only")
	}
}
