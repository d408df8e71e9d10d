package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	listingKeyPrefix = "listing:"
	approvedFeedKey  = "listings:approved"
	genKeyPrefix     = "gen:"
	genTTL           = 24 * time.Hour
)

// setIfGeneration stores KEYS[1] only while KEYS[2] still holds the
// generation read before the load started. A missing generation is "0".
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if (gen or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// LookupRecorder receives hit/miss counts. Implemented by the metrics manager.
type LookupRecorder interface {
	CacheLookup(cache string, hit bool)
}

// ListingCache is a Redis read-through cache for single listings and the
// approved feed. Concurrent misses for the same key share one load.
type ListingCache struct {
	client      redis.Cmdable
	listingTTL  time.Duration
	approvedTTL time.Duration
	sf          singleflight.Group
	metrics     LookupRecorder
	logger      *logger.Logger
}

func NewListingCache(client redis.Cmdable, listingTTL, approvedTTL time.Duration, metrics LookupRecorder, log *logger.Logger) *ListingCache {
	if listingTTL <= 0 {
		listingTTL = time.Hour
	}
	if approvedTTL <= 0 {
		approvedTTL = 30 * time.Second
	}
	return &ListingCache{
		client:      client,
		listingTTL:  listingTTL,
		approvedTTL: approvedTTL,
		metrics:     metrics,
		logger:      log.Named("ListingCache"),
	}
}

func listingKey(id string) string { return listingKeyPrefix + id }

func genKey(key string) string { return genKeyPrefix + key }

func (c *ListingCache) Listing(ctx context.Context, id string, load func(context.Context) (*domain.Listing, error)) (*domain.Listing, error) {
	key := listingKey(id)
	var cached cachedListing
	if c.get(ctx, key, &cached) {
		c.record("listing", true)
		return cached.toDomain(), nil
	}
	c.record("listing", false)

	v, err, _ := c.sf.Do(key, func() (any, error) {
		gen, genOK := c.generation(ctx, key)
		l, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if genOK {
			c.set(ctx, key, gen, fromDomain(l), c.listingTTL)
		}
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Listing), nil
}

func (c *ListingCache) Approved(ctx context.Context, load func(context.Context) ([]*domain.Listing, error)) ([]*domain.Listing, error) {
	var cached []cachedListing
	if c.get(ctx, approvedFeedKey, &cached) {
		c.record("approved", true)
		out := make([]*domain.Listing, 0, len(cached))
		for i := range cached {
			out = append(out, cached[i].toDomain())
		}
		return out, nil
	}
	c.record("approved", false)

	v, err, _ := c.sf.Do(approvedFeedKey, func() (any, error) {
		gen, genOK := c.generation(ctx, approvedFeedKey)
		ls, err := load(ctx)
		if err != nil {
			return nil, err
		}
		docs := make([]cachedListing, 0, len(ls))
		for _, l := range ls {
			docs = append(docs, fromDomain(l))
		}
		if genOK {
			c.set(ctx, approvedFeedKey, gen, docs, c.approvedTTL)
		}
		return ls, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Listing), nil
}

// Invalidate drops the given listings and always the approved feed. Each
// key's generation is bumped in the same transaction so a load that started
// earlier cannot write its result back afterwards.
func (c *ListingCache) Invalidate(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, listingKey(id))
	}
	keys = append(keys, approvedFeedKey)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, genKey(key))
			pipe.Expire(ctx, genKey(key), genTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate %v: %w", keys, err)
	}
	return nil
}

// generation returns the current generation of key. ok is false when Redis
// could not be asked, in which case the loaded value is not cached.
func (c *ListingCache) generation(ctx context.Context, key string) (gen string, ok bool) {
	gen, err := c.client.Get(ctx, genKey(key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "0", true
	case err != nil:
		c.logger.Warn("Redis Get generation failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return gen, true
}

// get reports a hit. Redis errors and undecodable entries count as misses.
func (c *ListingCache) get(ctx context.Context, key string, dst any) bool {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Redis Get operation failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *ListingCache) set(ctx context.Context, key, gen string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	stored, err := setIfGeneration.Run(ctx, c.client, []string{key, genKey(key)}, gen, b, ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn("Redis Set operation failed", zap.String("key", key), zap.Error(err))
		return
	}
	if stored == 0 {
		c.logger.Debug("Skipped caching value invalidated during load", zap.String("key", key))
	}
}

func (c *ListingCache) record(cache string, hit bool) {
	if c.metrics != nil {
		c.metrics.CacheLookup(cache, hit)
	}
}

type cachedListing struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Price       float64              `json:"price"`
	Category    domain.Category      `json:"category"`
	Images      []string             `json:"images"`
	SellerID    string               `json:"seller_id"`
	SellerName  string               `json:"seller_name"`
	SellerEmail string               `json:"seller_email"`
	Status      domain.ListingStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func fromDomain(l *domain.Listing) cachedListing {
	return cachedListing{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Category:    l.Category,
		Images:      l.Images,
		SellerID:    l.SellerID,
		SellerName:  l.SellerName,
		SellerEmail: l.SellerEmail,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func (c cachedListing) toDomain() *domain.Listing {
	return &domain.Listing{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Price:       c.Price,
		Category:    c.Category,
		Images:      c.Images,
		SellerID:    c.SellerID,
		SellerName:  c.SellerName,
		SellerEmail: c.SellerEmail,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}
