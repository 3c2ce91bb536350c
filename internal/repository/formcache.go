package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ats-workers/internal/common/logger"
	"ats-workers/internal/models"
)

// FormSource resolves a public application form by its share token.
type FormSource interface {
	FormByToken(ctx context.Context, formToken string) (*models.ApplicationForm, error)
}

// CachedFormSource is a read-through redis cache in front of a FormSource.
// Cache failures are logged and degrade to the underlying source; only
// successful lookups are cached, so unknown tokens always hit the database.
type CachedFormSource struct {
	source FormSource
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedFormSource(source FormSource, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedFormSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedFormSource{
		source: source,
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "form-cache"}),
	}
}

func (c *CachedFormSource) FormByToken(ctx context.Context, formToken string) (*models.ApplicationForm, error) {
	key := cacheKey(formToken)

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var form models.ApplicationForm
		if err := json.Unmarshal([]byte(cached), &form); err == nil {
			return &form, nil
		}
		// Unreadable entry, fall through to the source and rewrite it.
		c.logger.Warn("discarding corrupt form cache entry", map[string]interface{}{
			"key": key,
		})
	} else if err != redis.Nil {
		c.logger.Warn("form cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	form, err := c.source.FormByToken(ctx, formToken)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(form); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("form cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return form, nil
}

// Invalidate drops the cached form for a token. Used when a job changes
// status so a closed job stops serving its form within one request.
func (c *CachedFormSource) Invalidate(ctx context.Context, formToken string) {
	if err := c.client.Del(ctx, cacheKey(formToken)).Err(); err != nil {
		c.logger.Warn("form cache invalidation failed", map[string]interface{}{
			"formToken": formToken,
			"error":     err.Error(),
		})
	}
}

func cacheKey(formToken string) string {
	return fmt.Sprintf("form:%s", formToken)
}
