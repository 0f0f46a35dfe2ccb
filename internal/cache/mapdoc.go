package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tripmap/tripmap/internal/model"
)

// Cache key prefixes and TTLs.
const (
	mapKeyPrefix      = "map:"
	negCacheKeySuffix = ":neg"

	// DefaultMapTTL is the TTL for cached public map documents.
	DefaultMapTTL = time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetMap retrieves a public map document from cache by id.
// Returns ErrCacheMiss when not cached.
func (c *Cache) GetMap(ctx context.Context, mapID string) (*model.MapDocument, error) {
	raw, err := c.client.Get(ctx, mapKeyPrefix+mapID).Bytes()
	if err != nil {
		return nil, ErrCacheMiss
	}

	var doc model.MapDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		// A corrupt entry reads as a miss; the store is authoritative.
		c.client.Del(ctx, mapKeyPrefix+mapID)
		return nil, ErrCacheMiss
	}
	return &doc, nil
}

// SetMap stores a public map document in cache. Private documents must
// never be cached here: the shared-view path serves straight from this
// cache without consulting the resolver's owner check for readers.
func (c *Cache) SetMap(ctx context.Context, doc *model.MapDocument) error {
	if !doc.IsPublic {
		return c.DeleteMap(ctx, doc.ID)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode map for cache: %w", err)
	}

	key := mapKeyPrefix + doc.ID
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, raw, DefaultMapTTL)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache map: %w", err)
	}
	return nil
}

// DeleteMap removes a map document from cache, along with any negative
// entry. Called on every save so readers never see stale content
// longer than one round trip.
func (c *Cache) DeleteMap(ctx context.Context, mapID string) error {
	key := mapKeyPrefix + mapID

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete map from cache: %w", err)
	}
	return nil
}

// IsNegativelyCached checks whether a map id is known to be missing
// or private.
func (c *Cache) IsNegativelyCached(ctx context.Context, mapID string) (bool, error) {
	exists, err := c.client.Exists(ctx, mapKeyPrefix+mapID+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}
	return exists > 0, nil
}

// SetNegativeCache marks a map id as not viewable.
func (c *Cache) SetNegativeCache(ctx context.Context, mapID string) error {
	err := c.client.SetEx(ctx, mapKeyPrefix+mapID+negCacheKeySuffix, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}
	return nil
}
