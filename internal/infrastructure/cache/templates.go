package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/onereserve/internal/domain/booking"
)

const keyPrefix = "onereserve:slots:"

// TemplateCache is a read-through cache in front of a TemplateStore. Redis
// failures fall back to the store; the cache never fails a read on its own.
type TemplateCache struct {
	store  booking.TemplateStore
	client redis.Cmdable
	ttl    time.Duration
	log    *zap.Logger
}

func NewTemplateCache(store booking.TemplateStore, client redis.Cmdable, ttl time.Duration, log *zap.Logger) *TemplateCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &TemplateCache{store: store, client: client, ttl: ttl, log: log}
}

func templateKey(serviceID string, weekday *time.Weekday) string {
	if weekday == nil {
		return keyPrefix + serviceID + ":all"
	}
	return fmt.Sprintf("%s%s:%d", keyPrefix, serviceID, int(*weekday))
}

func (c *TemplateCache) ListTemplates(ctx context.Context, serviceID string, weekday *time.Weekday) ([]booking.SlotTemplate, error) {
	key := templateKey(serviceID, weekday)

	val, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ts []booking.SlotTemplate
		if jerr := json.Unmarshal(val, &ts); jerr == nil {
			return ts, nil
		}
		c.log.Warn("discarding corrupt slot cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("slot cache read failed", zap.String("key", key), zap.Error(err))
	}

	ts, err := c.store.ListTemplates(ctx, serviceID, weekday)
	if err != nil {
		return nil, err
	}
	if b, jerr := json.Marshal(ts); jerr == nil {
		if serr := c.client.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			c.log.Warn("slot cache write failed", zap.String("key", key), zap.Error(serr))
		}
	}
	return ts, nil
}

// Invalidate drops every cached view of serviceID's templates.
func (c *TemplateCache) Invalidate(ctx context.Context, serviceID string) error {
	keys := []string{templateKey(serviceID, nil)}
	for d := time.Sunday; d <= time.Saturday; d++ {
		keys = append(keys, templateKey(serviceID, &d))
	}
	return c.client.Del(ctx, keys...).Err()
}

// NewRedisClient connects and pings once so misconfiguration surfaces at boot.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
