package builder

import (
	"context"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/sightlabs/qa-backend/internal/config"
)

type searchPinger interface {
	Ping(ctx context.Context) error
}

// probeSearchService waits for the search service to become reachable before
// the server starts taking traffic. This is the only retried call in the
// service; per-request provider calls are never retried.
func probeSearchService(ctx context.Context, conn any, cfg *config.Config, logger *zap.Logger) error {
	pinger, ok := conn.(searchPinger)
	if !ok {
		return nil
	}

	opts := append(
		cfg.SearchConnectorCfg.StartupRetry.ToRetryOptions(),
		retry.Context(ctx),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Warn("search service not ready",
				zap.Uint("attempt", attempt+1),
				zap.Error(err),
			)
		}),
	)

	return retry.Do(func() error {
		return pinger.Ping(ctx)
	}, opts...)
}
