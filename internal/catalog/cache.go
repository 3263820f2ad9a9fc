package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/text3d/hub/internal/logging"
	"github.com/text3d/hub/internal/model"
)

// Cached is a read-through Redis cache in front of another Lookup. Only hits
// are cached so that newly added entries become visible immediately. Redis
// failures degrade to the wrapped lookup.
type Cached struct {
	next   Lookup
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(next Lookup, rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cached{next: next, rdb: rdb, ttl: ttl, logger: logging.OrNop(logger)}
}

func cacheKey(token string, mode MatchMode) string {
	return fmt.Sprintf("catalog:%s:%s", mode, strings.ToLower(strings.TrimSpace(token)))
}

func (c *Cached) FindByName(ctx context.Context, token string, mode MatchMode) (model.CatalogEntry, bool, error) {
	key := cacheKey(token, mode)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry model.CatalogEntry
		if jerr := json.Unmarshal(raw, &entry); jerr == nil {
			return entry, true, nil
		}
		c.logger.Warn("discarding corrupt catalog cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	entry, found, err := c.next.FindByName(ctx, token, mode)
	if err != nil || !found {
		return entry, found, err
	}

	if payload, jerr := json.Marshal(entry); jerr == nil {
		if serr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(serr))
		}
	}
	return entry, true, nil
}

// Invalidate drops every cached lookup. Called after catalog writes.
func (c *Cached) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, "catalog:*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan catalog cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
