package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/warrenhq/warren/internal/models"
	"github.com/warrenhq/warren/pkg/config"
	"github.com/warrenhq/warren/pkg/logging"
)

func userKey(token string) string {
	return fmt.Sprintf("%s:cache:user:%s", keyPrefix, token)
}

const userKeyPattern = keyPrefix + ":cache:user:*"

// UserCache memoizes the token -> user lookup done on every request.
type UserCache struct {
	cache  *Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewUserCache creates a user cache.
func NewUserCache(c *Cache, cfg *config.CacheConfig) *UserCache {
	return &UserCache{
		cache:  c,
		ttl:    cfg.InstanceTTL,
		logger: logging.WithComponent("user_cache"),
	}
}

// Get returns the cached user or nil on miss, refreshing TTL on a hit.
func (uc *UserCache) Get(ctx context.Context, token string) *models.User {
	key := userKey(token)
	s, err := uc.cache.Get(ctx, key)
	if err != nil {
		if !isMiss(err) {
			uc.logger.Warn("get user cache failed", zap.Error(err))
		}
		return nil
	}

	if err := uc.cache.Expire(ctx, key, uc.ttl); err != nil {
		uc.logger.Warn("refresh user cache ttl failed", zap.Error(err))
	}

	var user models.User
	if err := json.Unmarshal([]byte(s), &user); err != nil {
		uc.logger.Warn("decode user cache failed", zap.Error(err))
		return nil
	}
	return &user
}

// Set stores a user keyed by token.
func (uc *UserCache) Set(ctx context.Context, user *models.User) {
	data, err := json.Marshal(user)
	if err != nil {
		uc.logger.Warn("encode user cache failed", zap.Error(err))
		return
	}
	if err := uc.cache.Set(ctx, userKey(user.Token), data, uc.ttl); err != nil {
		uc.logger.Warn("set user cache failed", zap.Error(err))
	}
}

// ClearAll drops every cached user entry.
func (uc *UserCache) ClearAll(ctx context.Context) {
	if err := uc.cache.DeletePattern(ctx, userKeyPattern); err != nil {
		uc.logger.Warn("clear user cache failed", zap.Error(err))
	}
}
