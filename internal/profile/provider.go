// internal/profile/provider.go
package profile

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"skyconnect-match/internal/common/config"
	commonerrors "skyconnect-match/internal/common/errors"
	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/models"
)

// Provider resolves user preference profiles for matching.
type Provider interface {
	// Get never fails from the caller's perspective: unknown users and
	// lookup failures both resolve to an empty profile with a nil error.
	Get(ctx context.Context, userID string) (models.UserProfile, error)
}

// CachedProvider reads through Redis to Postgres.
type CachedProvider struct {
	source  *PostgresSource
	cache   *Cache
	timeout time.Duration
	logger  logger.Logger
}

func NewCachedProvider(cfg config.ProfilesConfig, db *sql.DB, rdb *redis.Client, log logger.Logger) *CachedProvider {
	return &CachedProvider{
		source:  NewPostgresSource(db, log),
		cache:   NewCache(rdb, config.GetDuration(cfg.CacheTTL), log),
		timeout: config.GetDuration(cfg.Timeout),
		logger:  log.WithFields(map[string]interface{}{"component": "profile-provider"}),
	}
}

func (p *CachedProvider) Get(ctx context.Context, userID string) (models.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if cached, ok := p.cache.Get(ctx, userID); ok {
		return *cached, nil
	}

	profile, err := p.source.Load(ctx, userID)
	if err != nil {
		stdErr := commonerrors.NewProfileLookupFailedError(userID, err)
		p.logger.Warn("profile lookup failed, serving empty profile", stdErr.LogFields())
		return models.EmptyProfile(userID), nil
	}

	p.cache.Set(ctx, profile)
	return profile, nil
}
