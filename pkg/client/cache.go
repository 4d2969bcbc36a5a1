package client

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/matst80/rdf-finder/pkg/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultCacheTTL = 5 * time.Minute

// CachedBackend keeps statistics snapshots in redis. Statistics rarely change
// and are the largest payload. Cache failures fall through to the wrapped
// backend.
type CachedBackend struct {
	Backend
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewCachedBackend(backend Backend, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedBackend {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedBackend{
		Backend: backend,
		client:  client,
		prefix:  "finder:stats:",
		ttl:     ttl,
		logger:  logger,
	}
}

func (c *CachedBackend) key(dataset string) string {
	return c.prefix + dataset
}

func (c *CachedBackend) Statistics(ctx context.Context, dataset string) (*types.Statistics, error) {
	data, err := c.client.Get(ctx, c.key(dataset)).Bytes()
	switch {
	case err == nil:
		stats, decodeErr := types.DecodeStatistics(data)
		if decodeErr == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return stats, nil
		}
		c.logger.Warn("dropping undecodable statistics from cache", zap.String("dataset", dataset), zap.Error(decodeErr))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("statistics cache unavailable", zap.Error(err))
	}
	cacheLookups.WithLabelValues("miss").Inc()

	stats, err := c.Backend.Statistics(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if data, err := sonic.Marshal(stats); err == nil {
		if err := c.client.Set(ctx, c.key(dataset), data, c.ttl).Err(); err != nil {
			c.logger.Warn("could not cache statistics", zap.String("dataset", dataset), zap.Error(err))
		}
	}
	return stats, nil
}

func (c *CachedBackend) Invalidate(ctx context.Context, dataset string) error {
	return c.client.Del(ctx, c.key(dataset)).Err()
}

func (c *CachedBackend) Close() error {
	return c.client.Close()
}
