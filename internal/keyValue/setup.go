package keyValue

import (
	"context"
	"errors"
	"time"

	"chatapp-client/internal/chaterr"
	"chatapp-client/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const localCapacity = 4096

type entry struct {
	value   string
	expires time.Time
}

// Cache is a string key-value store with per-key expiry, kept in process
// when self contained and in redis otherwise.
type Cache struct {
	sugar *zap.SugaredLogger
	redis *redis.Client
	local *expirable.LRU[string, entry]
	now   func() time.Time
}

// NewLocal keeps at most capacity keys in memory. Keys never outlive
// maxTTL, whatever expiry they were set with.
func NewLocal(sugar *zap.SugaredLogger, capacity int, maxTTL time.Duration) *Cache {
	return &Cache{
		sugar: sugar,
		local: expirable.NewLRU[string, entry](capacity, nil, maxTTL),
		now:   time.Now,
	}
}

func NewRedis(sugar *zap.SugaredLogger, client *redis.Client) *Cache {
	return &Cache{sugar: sugar, redis: client, now: time.Now}
}

// Setup picks the backend from cfg and checks redis is reachable.
func Setup(ctx context.Context, cfg *models.ConfigFile, sugar *zap.SugaredLogger) (*Cache, error) {
	if cfg.SelfContained {
		return NewLocal(sugar, localCapacity, 24*time.Hour), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, chaterr.Unavailable(err)
	}

	return NewRedis(sugar, client), nil
}

// Get returns "" for a missing or expired key.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if c.local != nil {
		c.sugar.Debugf("Getting value of key [%s] from memory", key)
		e, ok := c.local.Get(key)
		if !ok || c.expired(e) {
			return "", nil
		}
		return e.value, nil
	}

	c.sugar.Debugf("Getting value of key [%s] from redis", key)

	value, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", chaterr.Unavailable(err)
	}
	return value, nil
}

func (c *Cache) GetDel(ctx context.Context, key string) (string, error) {
	if c.local != nil {
		c.sugar.Debugf("Getting and deleting value of key [%s] from memory", key)
		e, ok := c.local.Peek(key)
		c.local.Remove(key)
		if !ok || c.expired(e) {
			return "", nil
		}
		return e.value, nil
	}

	c.sugar.Debugf("Getting and deleting value of key [%s] from redis", key)

	value, err := c.redis.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", chaterr.Unavailable(err)
	}
	return value, nil
}

func (c *Cache) Set(ctx context.Context, key string, value string, expires time.Duration) error {
	if c.local != nil {
		c.sugar.Debugf("Setting value of key [%s] in memory", key)
		c.local.Add(key, entry{value: value, expires: c.now().Add(expires)})
		return nil
	}

	c.sugar.Debugf("Setting value of key [%s] in redis", key)
	err := c.redis.Set(ctx, key, value, expires).Err()
	if err != nil {
		return chaterr.Unavailable(err)
	}
	return nil
}

func (c *Cache) Del(ctx context.Context, key string) error {
	if c.local != nil {
		c.local.Remove(key)
		return nil
	}

	err := c.redis.Del(ctx, key).Err()
	if err != nil {
		return chaterr.Unavailable(err)
	}
	return nil
}

func (c *Cache) expired(e entry) bool {
	return !c.now().Before(e.expires)
}
