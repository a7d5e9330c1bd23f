package jobs

import (
	"context"
	"fmt"

	"github.com/ll101/project-algo-trading/internal/universe"
	"github.com/ll101/project-algo-trading/pkg/logger"
	"github.com/ll101/project-algo-trading/pkg/redis"
)

// UniverseJob refreshes the stock universe from its source list and drops
// the cached symbol set so readers pick up the change.
type UniverseJob struct {
	fetcher *universe.Fetcher
	cache   *redis.Cache
	logger  *logger.Logger
}

// NewUniverseJob creates the weekly universe refresh job
func NewUniverseJob(fetcher *universe.Fetcher, cache *redis.Cache, log *logger.Logger) *UniverseJob {
	return &UniverseJob{
		fetcher: fetcher,
		cache:   cache,
		logger:  log,
	}
}

// Name returns the job name
func (j *UniverseJob) Name() string {
	return "universe_refresh"
}

// Schedule runs Sunday at 06:00 UTC
func (j *UniverseJob) Schedule() string {
	return "0 0 6 * * 0"
}

// Run scrapes the constituent list and upserts it
func (j *UniverseJob) Run(ctx context.Context) error {
	ids, err := j.fetcher.Load(ctx)
	if err != nil {
		return fmt.Errorf("universe refresh failed: %w", err)
	}

	if j.cache != nil {
		if err := j.cache.Delete(ctx, redis.AvailableSymbolsKey()); err != nil {
			j.logger.WithError(err).Warn("Failed to invalidate symbol cache")
		}
	}

	j.logger.WithField("symbols", len(ids)).Info("Universe refreshed")
	return nil
}
