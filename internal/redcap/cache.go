package redcap

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"redcap-client/internal/common/logger"
)

const (
	cacheKeyDictionary = "redcap:metadata:dictionary"
	cacheKeyMappings   = "redcap:metadata:event-mappings"
)

// CachedClient decorates a Client with a redis cache for the two metadata
// exports a tree build fetches. Record exports are never cached. Cache
// failures degrade to direct API calls.
type CachedClient struct {
	client *Client
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedClient(client *Client, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedClient {
	return &CachedClient{
		client: client,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "redcap-cache"}),
	}
}

func (c *CachedClient) DataDictionary(ctx context.Context) ([]FieldDefinition, error) {
	if val, err := c.redis.Get(ctx, cacheKeyDictionary).Result(); err == nil {
		var defs []FieldDefinition
		if err := json.Unmarshal([]byte(val), &defs); err == nil {
			return defs, nil
		}
	}

	defs, err := c.client.DataDictionary(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, cacheKeyDictionary, defs)
	return defs, nil
}

func (c *CachedClient) InstrumentEventMappings(ctx context.Context) ([]EventMapping, error) {
	if val, err := c.redis.Get(ctx, cacheKeyMappings).Result(); err == nil {
		var mappings []EventMapping
		if err := json.Unmarshal([]byte(val), &mappings); err == nil {
			return mappings, nil
		}
	}

	mappings, err := c.client.InstrumentEventMappings(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, cacheKeyMappings, mappings)
	return mappings, nil
}

func (c *CachedClient) Records(ctx context.Context, opts RecordOptions) ([]Record, error) {
	return c.client.Records(ctx, opts)
}

func (c *CachedClient) Subjects(ctx context.Context) ([]string, error) {
	return c.client.Subjects(ctx)
}

// Invalidate drops the cached metadata, forcing the next build to refetch.
func (c *CachedClient) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, cacheKeyDictionary, cacheKeyMappings).Err()
}

func (c *CachedClient) store(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache metadata", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
}
