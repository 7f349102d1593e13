// internal/profile/cache.go
package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/common/metrics"
	"skyconnect-match/internal/models"
)

const cacheKeyPrefix = "user:profile:"

// Cache is the read-through layer in front of the profile table. Only
// preference data lives here; listing price and availability never pass
// through it. Failures are silent and degrade to the database.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (c *Cache) Get(ctx context.Context, userID string) (*models.UserProfile, bool) {
	val, err := c.client.Get(ctx, cacheKeyPrefix+userID).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("profile cache read failed", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
		metrics.ProfileCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}

	var profile models.UserProfile
	if err := json.Unmarshal([]byte(val), &profile); err != nil {
		c.logger.Debug("profile cache entry corrupt, treating as miss", map[string]interface{}{
			"userId": userID,
		})
		metrics.ProfileCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.ProfileCacheRequests.WithLabelValues("hit").Inc()
	return &profile, true
}

func (c *Cache) Set(ctx context.Context, profile models.UserProfile) {
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, cacheKeyPrefix+profile.UserID, data, c.ttl).Err(); err != nil {
		c.logger.Debug("profile cache write failed", map[string]interface{}{
			"userId": profile.UserID,
			"error":  err.Error(),
		})
	}
}
