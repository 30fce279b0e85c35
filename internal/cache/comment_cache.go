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

func commentListKey(postID int64) string {
	return fmt.Sprintf("%s:cache:post_comments:%d", keyPrefix, postID)
}

// CommentCache holds the full comment list of one post. The list is
// invalidated whenever the set changes, never patched in place.
type CommentCache struct {
	key    string
	cache  *Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCommentCache creates the comment cache handle for one post.
func NewCommentCache(postID int64, c *Cache, cfg *config.CacheConfig) *CommentCache {
	return &CommentCache{
		key:    commentListKey(postID),
		cache:  c,
		ttl:    cfg.InstanceTTL,
		logger: logging.WithComponent("comment_cache"),
	}
}

// Get returns the cached list or nil on miss, refreshing TTL on a hit.
func (cc *CommentCache) Get(ctx context.Context) []models.Comment {
	s, err := cc.cache.Get(ctx, cc.key)
	if err != nil {
		if !isMiss(err) {
			cc.logger.Warn("get comments cache failed", zap.String("key", cc.key), zap.Error(err))
		}
		return nil
	}

	if err := cc.cache.Expire(ctx, cc.key, cc.ttl); err != nil {
		cc.logger.Warn("refresh comments cache ttl failed", zap.String("key", cc.key), zap.Error(err))
	}

	var comments []models.Comment
	if err := json.Unmarshal([]byte(s), &comments); err != nil {
		cc.logger.Warn("decode comments cache failed", zap.String("key", cc.key), zap.Error(err))
		return nil
	}
	return comments
}

// Set stores the full comment list with the instance TTL.
func (cc *CommentCache) Set(ctx context.Context, comments []models.Comment) {
	data, err := json.Marshal(comments)
	if err != nil {
		cc.logger.Warn("encode comments cache failed", zap.String("key", cc.key), zap.Error(err))
		return
	}
	if err := cc.cache.Set(ctx, cc.key, data, cc.ttl); err != nil {
		cc.logger.Warn("set comments cache failed", zap.String("key", cc.key), zap.Error(err))
	}
}

// Clear drops the cached list.
func (cc *CommentCache) Clear(ctx context.Context) {
	if err := cc.cache.Delete(ctx, cc.key); err != nil {
		cc.logger.Warn("clear comments cache failed", zap.String("key", cc.key), zap.Error(err))
	}
}
