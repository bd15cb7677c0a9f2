package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"melodix-server-go/internal/domain/auth/model"
)

const userCachePrefix = "user_cache:"

// ErrCacheMiss signals the user view is not cached.
var ErrCacheMiss = errors.New("user cache miss")

// UserCache is a read-through cache of user views keyed by id. It is a
// performance layer only; consistency-sensitive mutations must call
// Invalidate rather than wait for TTL expiry.
type UserCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger model.Logger
}

// NewUserCache wires the cache onto the shared cache handle.
func NewUserCache(client *redis.Client, ttl time.Duration, logger model.Logger) *UserCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UserCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func userCacheKey(id uint) string { return fmt.Sprintf("%s%d", userCachePrefix, id) }

// Put unconditionally overwrites the cached view.
func (c *UserCache) Put(ctx context.Context, view model.UserView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, userCacheKey(view.ID), data, c.ttl).Err()
}

// Get loads the cached view, failing with ErrCacheMiss when absent.
func (c *UserCache) Get(ctx context.Context, id uint) (*model.UserView, error) {
	raw, err := c.client.Get(ctx, userCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	var view model.UserView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Invalidate evicts the cached view. Used after any mutation of cached fields.
func (c *UserCache) Invalidate(ctx context.Context, id uint) error {
	return c.client.Del(ctx, userCacheKey(id)).Err()
}

// Fetch reads through the cache: cache first, then the loader, populating the
// cache on the way back. Concurrent misses for the same id collapse into a
// single loader call.
func (c *UserCache) Fetch(
	ctx context.Context,
	id uint,
	load func(context.Context) (*model.UserView, error),
) (*model.UserView, error) {
	view, err := c.Get(ctx, id)
	if err == nil {
		return view, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		// A degraded cache must not take down reads; fall through to the loader.
		c.logger.Warn("user cache read failed for %d: %v", id, err)
	}

	result, err, _ := c.group.Do(userCacheKey(id), func() (any, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if putErr := c.Put(ctx, *loaded); putErr != nil {
			c.logger.Warn("user cache populate failed for %d: %v", id, putErr)
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.UserView), nil
}
