package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace-service/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	CatalogKeyPrefix  = "catalog:v:"
	CatalogVersionKey = "catalog:version"
	DefaultTTL        = 10 * time.Minute
)

// CatalogCache stores complete catalog views under a version namespace.
// Invalidate bumps the version so every older key becomes unreachable and
// expires on its own.
type CatalogCache struct {
	redis  redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewCatalogCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogCache{redis: client, ttl: ttl, logger: logger}
}

// Get returns the cached result for key and the namespace version it was
// looked up under. Callers pass that version back to Set so a result computed
// before an invalidation can never land in the newer namespace. A version of
// 0 means Redis is unusable; any Redis error is a miss.
func (c *CatalogCache) Get(ctx context.Context, key string) (*models.CatalogResult, int64, bool) {
	version, err := c.version(ctx)
	if err != nil {
		c.logger.Warn("Catalog cache version unavailable", zap.Error(err))
		return nil, 0, false
	}

	data, err := c.redis.Get(ctx, c.key(version, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, version, false
	}

	var result models.CatalogResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("Failed to unmarshal cached catalog", zap.String("key", key), zap.Error(err))
		return nil, version, false
	}
	return &result, version, true
}

// Set stores a result under the version returned by the Get that preceded
// the source queries. Callers only cache complete results.
func (c *CatalogCache) Set(ctx context.Context, version int64, key string, result *models.CatalogResult) {
	if version <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("Failed to marshal catalog for cache", zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, c.key(version, key), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache catalog", zap.String("key", key), zap.Error(err))
	}
}

func (c *CatalogCache) Invalidate(ctx context.Context) error {
	newVersion, err := c.redis.Incr(ctx, CatalogVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	c.logger.Debug("Catalog cache invalidated", zap.Int64("new_version", newVersion))
	return nil
}

// version reads the current namespace, initialising it on first use.
func (c *CatalogCache) version(ctx context.Context) (int64, error) {
	ver, err := c.redis.Get(ctx, CatalogVersionKey).Int64()
	if err == nil && ver > 0 {
		return ver, nil
	}
	if errors.Is(err, redis.Nil) {
		if err := c.redis.SetNX(ctx, CatalogVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.redis.Get(ctx, CatalogVersionKey).Int64()
	}
	if err == nil {
		err = fmt.Errorf("invalid catalog cache version %d", ver)
	}
	return 0, err
}

func (c *CatalogCache) key(version int64, key string) string {
	return fmt.Sprintf("%s%d:%s", CatalogKeyPrefix, version, key)
}
