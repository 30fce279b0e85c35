package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/warrenhq/warren/pkg/config"
	"github.com/warrenhq/warren/pkg/logging"
)

func blockDictKey(viewerHash string, postID int64) string {
	return fmt.Sprintf("%s:cache:block_dict:%s:%d", keyPrefix, viewerHash, postID)
}

// BlockDictKeyPattern matches every block dict of one viewer; used for the
// conservative invalidation when the viewer creates a new block.
func BlockDictKeyPattern(viewerHash string) string {
	return fmt.Sprintf("%s:cache:block_dict:%s:*", keyPrefix, viewerHash)
}

// BlockChecker answers whether one author is hidden from the current
// viewer, consulting the durable block-relationship store.
type BlockChecker func(ctx context.Context, authorHash string) (bool, error)

// BlockDictCache memoizes per (viewer, post) which authors are hidden.
// Visibility depends on a per-viewer threshold, so it cannot be computed
// globally; memoizing it here bounds the durable-store lookups to once per
// viewer-session per thread instead of once per comment rendered.
type BlockDictCache struct {
	key    string
	cache  *Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewBlockDictCache creates the visibility dictionary handle for one
// (viewer, post) pair.
func NewBlockDictCache(viewerHash string, postID int64, c *Cache, cfg *config.CacheConfig) *BlockDictCache {
	return &BlockDictCache{
		key:    blockDictKey(viewerHash, postID),
		cache:  c,
		ttl:    cfg.InstanceTTL,
		logger: logging.WithComponent("block_dict_cache"),
	}
}

// GetOrCreate merges the cached dictionary with freshly computed entries
// for every candidate hash not yet present, writes the missing entries
// back, and returns the combined dictionary. Derived data only: safe to
// discard and rebuild at any time. Failures reading the cached dictionary
// degrade to recomputing every candidate; checker failures propagate, since
// the durable store is authoritative.
func (bc *BlockDictCache) GetOrCreate(ctx context.Context, check BlockChecker, hashes []string) (map[string]bool, error) {
	dict := make(map[string]bool)
	cached, err := bc.cache.Client().HGetAll(ctx, bc.key).Result()
	if err != nil {
		bc.logger.Warn("get block dict failed", zap.String("key", bc.key), zap.Error(err))
	} else {
		for k, v := range cached {
			dict[k] = v == "1"
		}
	}

	missing := make(map[string]interface{})
	for _, hash := range hashes {
		if _, ok := dict[hash]; ok {
			continue
		}
		blocked, err := check(ctx, hash)
		if err != nil {
			return nil, err
		}
		dict[hash] = blocked
		if blocked {
			missing[hash] = "1"
		} else {
			missing[hash] = "0"
		}
	}

	if len(missing) > 0 {
		if err := bc.cache.Client().HSet(ctx, bc.key, missing).Err(); err != nil {
			bc.logger.Warn("set block dict failed", zap.String("key", bc.key), zap.Error(err))
		} else if err := bc.cache.Expire(ctx, bc.key, bc.ttl); err != nil {
			bc.logger.Warn("expire block dict failed", zap.String("key", bc.key), zap.Error(err))
		}
	}

	return dict, nil
}

// Clear invalidates the dictionary; correctness over precision.
func (bc *BlockDictCache) Clear(ctx context.Context) {
	if err := bc.cache.Delete(ctx, bc.key); err != nil {
		bc.logger.Warn("clear block dict failed", zap.String("key", bc.key), zap.Error(err))
	}
}
