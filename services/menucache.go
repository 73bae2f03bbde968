package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assistant-telegram/models"

	"github.com/redis/go-redis/v9"
)

// MenuFetcher loads the activated menu from the platform. Satisfied by
// *platform.Client.
type MenuFetcher interface {
	FetchActivatedMenu(ctx context.Context, restaurantID string) ([]models.MenuItem, error)
}

// MenuCache caches activated-menu responses in Redis with a TTL so opening
// the menu modal and the cart modal back to back costs one upstream fetch.
type MenuCache struct {
	rdb    *redis.Client
	remote MenuFetcher
	ttl    time.Duration
}

func NewMenuCache(rdb *redis.Client, remote MenuFetcher, ttl time.Duration) *MenuCache {
	return &MenuCache{rdb: rdb, remote: remote, ttl: ttl}
}

func menuKey(restaurantID string) string {
	return fmt.Sprintf("menu:%s", restaurantID)
}

// ActivatedMenu returns the cached menu, falling through to the platform on
// a miss or any Redis error. Cache write failures are logged, not returned.
func (mc *MenuCache) ActivatedMenu(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	key := menuKey(restaurantID)
	if blob, err := mc.rdb.Get(ctx, key).Bytes(); err == nil {
		var items []models.MenuItem
		if err := json.Unmarshal(blob, &items); err == nil {
			return items, nil
		}
	}

	items, err := mc.remote.FetchActivatedMenu(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	blob, err := json.Marshal(items)
	if err == nil {
		if err := mc.rdb.Set(ctx, key, blob, mc.ttl).Err(); err != nil {
			logWarn("cache activated menu", err)
		}
	}
	return items, nil
}

// Invalidate drops the cached menu for a restaurant.
func (mc *MenuCache) Invalidate(ctx context.Context, restaurantID string) error {
	return mc.rdb.Del(ctx, menuKey(restaurantID)).Err()
}
