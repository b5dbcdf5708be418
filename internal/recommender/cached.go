package recommender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/database"
	"github.com/Ayash-Bera/reelscout/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const upstreamTimeout = 30 * time.Second

// CachedBackend serves repeated suggestion and recommendation lookups from
// Redis. Concurrent misses for the same key share one upstream call.
// Failed lookups are never cached. Suggestion keys ignore case because the
// backend matches queries case-insensitively; recommendation keys do not.
type CachedBackend struct {
	next   Backend
	cache  *database.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *logrus.Logger
}

func NewCachedBackend(next Backend, cache *database.Cache, ttl time.Duration, logger *logrus.Logger) *CachedBackend {
	return &CachedBackend{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (b *CachedBackend) FetchSuggestions(ctx context.Context, query string, limit int) ([]string, error) {
	key := database.SuggestionsCacheKey(utils.NormalizeKey(query), limit)

	var cached []string
	if b.lookup(ctx, key, &cached) {
		return cached, nil
	}

	v, err, shared := b.group.Do(key, func() (interface{}, error) {
		callCtx, cancel := sharedContext(ctx)
		defer cancel()

		suggestions, err := b.next.FetchSuggestions(callCtx, query, limit)
		if err != nil {
			return nil, err
		}
		b.store(callCtx, key, suggestions)
		return suggestions, nil
	})
	if err != nil {
		return nil, err
	}

	b.logger.WithFields(logrus.Fields{"key": key, "shared": shared}).Debug("Suggestions fetched upstream")
	return v.([]string), nil
}

func (b *CachedBackend) FetchRecommendations(ctx context.Context, title string, topK int) ([]RecommendItem, error) {
	key := database.RecommendationsCacheKey(utils.ExactKey(title), topK)

	var cached []RecommendItem
	if b.lookup(ctx, key, &cached) {
		return cached, nil
	}

	v, err, shared := b.group.Do(key, func() (interface{}, error) {
		callCtx, cancel := sharedContext(ctx)
		defer cancel()

		recs, err := b.next.FetchRecommendations(callCtx, title, topK)
		if err != nil {
			return nil, err
		}
		b.store(callCtx, key, recs)
		return recs, nil
	})
	if err != nil {
		return nil, err
	}

	b.logger.WithFields(logrus.Fields{"key": key, "shared": shared}).Debug("Recommendations fetched upstream")
	return v.([]RecommendItem), nil
}

// sharedContext detaches a coalesced upstream call from the caller that
// started it. The call is still bounded by upstreamTimeout.
func sharedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), upstreamTimeout)
}

// Health always goes upstream.
func (b *CachedBackend) Health(ctx context.Context) error {
	return b.next.Health(ctx)
}

func (b *CachedBackend) lookup(ctx context.Context, key string, result interface{}) bool {
	err := b.cache.Get(ctx, key, result)
	if err == nil {
		b.logger.WithField("key", key).Debug("Served from cache")
		return true
	}
	if !errors.Is(err, database.ErrCacheMiss) {
		b.logger.WithError(err).WithField("key", key).Warn("Cache lookup failed")
	}
	return false
}

func (b *CachedBackend) store(ctx context.Context, key string, value interface{}) {
	if err := b.cache.Set(ctx, key, value, b.ttl); err != nil {
		b.logger.WithError(fmt.Errorf("cache %s: %w", key, err)).Warn("Failed to cache response")
	}
}
