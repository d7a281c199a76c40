package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/ruleflow/pkg/collections/rediscache"
	"github.com/dukex/ruleflow/pkg/persistence"
)

// NewCollectionRepository puts the Redis cache in front of the persisted
// collections when redisURL is set. The returned close function is never nil.
func NewCollectionRepository(
	ctx context.Context,
	logger *slog.Logger,
	p persistence.Persistence,
	redisURL string,
	ttl time.Duration,
) (persistence.CollectionRepository, func() error, error) {
	if redisURL == "" {
		return p.CollectionRepository(), func() error { return nil }, nil
	}

	client, err := rediscache.NewClient(ctx, redisURL)
	if err != nil {
		return nil, nil, err
	}

	logger.InfoContext(ctx, "Caching collection lookups in Redis", "ttl", ttl)

	return rediscache.NewRepository(client, p.CollectionRepository(), ttl, logger), client.Close, nil
}
