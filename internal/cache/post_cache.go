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

func postKey(id int64) string {
	return fmt.Sprintf("%s:cache:post:%d:v2", keyPrefix, id)
}

const postKeyPattern = keyPrefix + ":cache:post:*:v2"

// PostCache is the read-through/write-through cache for single posts. Every
// failure against Redis is logged and collapsed to a miss; the store is
// always the fallback. Deleted posts are cached and returned like any
// other: visibility is the caller's decision.
type PostCache struct {
	cache  *Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewPostCache creates a post cache using the instance-expiry window from
// configuration.
func NewPostCache(c *Cache, cfg *config.CacheConfig) *PostCache {
	return &PostCache{
		cache:  c,
		ttl:    cfg.InstanceTTL,
		logger: logging.WithComponent("post_cache"),
	}
}

// Get returns the cached post or nil on miss, refreshing the TTL on a hit.
func (pc *PostCache) Get(ctx context.Context, id int64) *models.Post {
	key := postKey(id)
	s, err := pc.cache.Get(ctx, key)
	if err != nil {
		if !isMiss(err) {
			pc.logger.Warn("get post cache failed", zap.Int64("pid", id), zap.Error(err))
		}
		return nil
	}

	var post models.Post
	if err := json.Unmarshal([]byte(s), &post); err != nil {
		pc.logger.Warn("decode post cache failed", zap.Int64("pid", id), zap.Error(err))
		return nil
	}

	if err := pc.cache.Expire(ctx, key, pc.ttl); err != nil {
		pc.logger.Warn("refresh post cache ttl failed", zap.Int64("pid", id), zap.Error(err))
	}
	return &post
}

// GetMulti returns cached posts in strict input order, nil per miss. A
// length-1 request is routed through Get: the underlying protocol answers a
// one-key MGET in a different shape than a real multi-get, so the single
// path must be special-cased.
func (pc *PostCache) GetMulti(ctx context.Context, ids []int64) []*models.Post {
	switch len(ids) {
	case 0:
		return nil
	case 1:
		return []*models.Post{pc.Get(ctx, ids[0])}
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = postKey(id)
	}

	values, err := pc.cache.Client().MGet(ctx, keys...).Result()
	if err != nil {
		pc.logger.Warn("multi-get post cache failed", zap.Int("count", len(ids)), zap.Error(err))
		return make([]*models.Post, len(ids))
	}

	posts := make([]*models.Post, len(ids))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var post models.Post
		if err := json.Unmarshal([]byte(s), &post); err != nil {
			pc.logger.Warn("decode post cache failed", zap.Int64("pid", ids[i]), zap.Error(err))
			continue
		}
		posts[i] = &post
	}
	return posts
}

// SetMulti write-through inserts a batch of posts, each with the instance
// TTL. No-op on empty input.
func (pc *PostCache) SetMulti(ctx context.Context, posts []*models.Post) {
	if len(posts) == 0 {
		return
	}

	pipe := pc.cache.Client().Pipeline()
	for _, p := range posts {
		data, err := json.Marshal(p)
		if err != nil {
			pc.logger.Warn("encode post cache failed", zap.Int64("pid", p.ID), zap.Error(err))
			continue
		}
		pipe.Set(ctx, postKey(p.ID), data, pc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		pc.logger.Warn("set post cache failed", zap.Int("count", len(posts)), zap.Error(err))
	}
}

// ClearAll drops the whole post namespace. Used by the annealing job and at
// process start to purge entries written by older encodings.
func (pc *PostCache) ClearAll(ctx context.Context) {
	if err := pc.cache.DeletePattern(ctx, postKeyPattern); err != nil {
		pc.logger.Warn("clear post cache failed", zap.Error(err))
	}
}
