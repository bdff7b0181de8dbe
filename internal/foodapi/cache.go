package foodapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "foodapi:barcode:"

var _ Lookuper = (*CachedLookup)(nil)

// CachedLookup keeps successful lookups in Redis for ttl.
// Cache failures are logged and the lookup falls through to next.
type CachedLookup struct {
	next   Lookuper
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedLookup(next Lookuper, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedLookup {
	return &CachedLookup{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With("component", "foodapi-cache"),
	}
}

func cacheKey(barcode string) string {
	return cacheKeyPrefix + barcode
}

func (c *CachedLookup) Lookup(ctx context.Context, barcode string) (*Record, error) {
	key := cacheKey(barcode)
	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var record Record
		if err := json.Unmarshal(cached, &record); err == nil {
			c.logger.DebugContext(ctx, "Cache hit", "barcode", barcode)
			return &record, nil
		}
		c.logger.WarnContext(ctx, "Dropping corrupt cache entry", "barcode", barcode)
		_ = c.rdb.Del(ctx, key).Err()
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WarnContext(ctx, "Cache read failed", "barcode", barcode, "error", err)
	}

	record, err := c.next.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(record); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "Cache write failed", "barcode", barcode, "error", err)
		}
	}
	return record, nil
}
