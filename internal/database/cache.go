package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	SuggestionsKey     = "reelscout:suggestions:%s:%d"
	RecommendationsKey = "reelscout:recommend:%s:%d"
	SystemHealthKey    = "reelscout:system:health"
)

func SuggestionsCacheKey(normalizedQuery string, limit int) string {
	return fmt.Sprintf(SuggestionsKey, normalizedQuery, limit)
}

func RecommendationsCacheKey(normalizedTitle string, topK int) string {
	return fmt.Sprintf(RecommendationsKey, normalizedTitle, topK)
}

// Set stores value as JSON under key.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// Get decodes the JSON stored under key into result. A missing key returns
// ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string, result interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get from redis: %w", err)
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return nil
}

// CacheSystemHealth caches system health status
func (c *Cache) CacheSystemHealth(ctx context.Context, health []models.SystemHealth, expiration time.Duration) error {
	return c.Set(ctx, SystemHealthKey, health, expiration)
}

// GetCachedSystemHealth retrieves cached system health
func (c *Cache) GetCachedSystemHealth(ctx context.Context) ([]models.SystemHealth, error) {
	var health []models.SystemHealth
	if err := c.Get(ctx, SystemHealthKey, &health); err != nil {
		return nil, err
	}
	return health, nil
}
