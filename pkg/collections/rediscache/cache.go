// Package rediscache caches collection name to id lookups in Redis in front
// of a collection repository.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/ruleflow/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const (
	DefaultTTL    = 10 * time.Minute
	defaultPrefix = "ruleflow:collections"
)

var ErrRedisURLRequired = errors.New("redis url is required")

// Repository is a read-through cache over a CollectionRepository. Redis
// failures degrade to the underlying repository; unknown collections are
// never cached.
type Repository struct {
	next   persistence.CollectionRepository
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func NewRepository(client redis.UniversalClient, next persistence.CollectionRepository, ttl time.Duration, logger *slog.Logger) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Repository{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: defaultPrefix,
		logger: logger.With("module", "collection_cache"),
	}
}

// NewClient connects to the Redis server described by a redis:// URL.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, ErrRedisURLRequired
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func (r *Repository) key(tenantID, collectionName string) string {
	return r.prefix + ":" + tenantID + ":" + collectionName
}

func (r *Repository) ResolveCollectionID(ctx context.Context, tenantID, collectionName string) (string, error) {
	key := r.key(tenantID, collectionName)

	id, err := r.client.Get(ctx, key).Result()

	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, redis.Nil):
	default:
		r.logger.WarnContext(ctx, "Collection cache read failed", "key", key, "error", err)
	}

	id, err = r.next.ResolveCollectionID(ctx, tenantID, collectionName)
	if err != nil {
		return "", err
	}

	r.store(ctx, key, id)

	return id, nil
}

// SaveCollection writes through to the repository and refreshes the cached id.
func (r *Repository) SaveCollection(ctx context.Context, tenantID, collectionID, collectionName string) error {
	err := r.next.SaveCollection(ctx, tenantID, collectionID, collectionName)
	if err != nil {
		return err
	}

	r.store(ctx, r.key(tenantID, collectionName), collectionID)

	return nil
}

// Invalidate drops a cached lookup.
func (r *Repository) Invalidate(ctx context.Context, tenantID, collectionName string) error {
	err := r.client.Del(ctx, r.key(tenantID, collectionName)).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate collection cache: %w", err)
	}

	return nil
}

func (r *Repository) store(ctx context.Context, key, id string) {
	err := r.client.Set(ctx, key, id, r.ttl).Err()
	if err != nil {
		r.logger.WarnContext(ctx, "Collection cache write failed", "key", key, "error", err)
	}
}
