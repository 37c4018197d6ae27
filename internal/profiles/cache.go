package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ilgner17/reservo-scheduler/internal/services"
)

// PublicPage is the cached payload of the public booking page: the
// professional's public profile plus their active services.
type PublicPage struct {
	Profile  *PublicProfile      `json:"profile"`
	Services []*services.Service `json:"services"`
}

// PageCache is a read-through cache of public pages keyed by slug. The
// public booking page is the hot path; everything else goes straight
// to Postgres. All methods are nil-safe so the app runs without Redis.
type PageCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewPageCache creates a cache with the given TTL (zero means 5 minutes).
func NewPageCache(redisClient *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PageCache{redis: redisClient, ttl: ttl}
}

func (c *PageCache) key(slug string) string {
	return fmt.Sprintf("public:page:%s", slug)
}

// Get returns the cached page or nil on miss.
func (c *PageCache) Get(ctx context.Context, slug string) (*PublicPage, error) {
	if c == nil || c.redis == nil {
		return nil, nil
	}
	data, err := c.redis.Get(ctx, c.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profiles: cache get: %w", err)
	}

	var page PublicPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("profiles: cache unmarshal: %w", err)
	}
	return &page, nil
}

// Set stores the page under its slug.
func (c *PageCache) Set(ctx context.Context, slug string, page *PublicPage) error {
	if c == nil || c.redis == nil {
		return nil
	}
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("profiles: cache marshal: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(slug), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("profiles: cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached page after a settings or catalog write.
func (c *PageCache) Invalidate(ctx context.Context, slug string) error {
	if c == nil || c.redis == nil || slug == "" {
		return nil
	}
	if err := c.redis.Del(ctx, c.key(slug)).Err(); err != nil {
		return fmt.Errorf("profiles: cache invalidate: %w", err)
	}
	return nil
}

type slugLookup interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

// PageInvalidator drops a professional's cached public page by user id,
// for writers that only know the owner (the service catalog).
type PageInvalidator struct {
	profiles slugLookup
	cache    *PageCache
}

func NewPageInvalidator(profiles slugLookup, cache *PageCache) *PageInvalidator {
	return &PageInvalidator{profiles: profiles, cache: cache}
}

// InvalidateForUser resolves the user's slug and drops their page.
// Users without a profile are a no-op.
func (i *PageInvalidator) InvalidateForUser(ctx context.Context, userID uuid.UUID) error {
	if i == nil {
		return nil
	}
	profile, err := i.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return i.cache.Invalidate(ctx, profile.Slug)
}
