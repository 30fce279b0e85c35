package cache

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/warrenhq/warren/internal/models"
	"github.com/warrenhq/warren/pkg/config"
	"github.com/warrenhq/warren/pkg/logging"
)

func rankedListKey(room *int64, mode int) string {
	roomPart := ""
	if room != nil {
		roomPart = strconv.FormatInt(*room, 10)
	}
	return fmt.Sprintf("%s:cache:post_list:%s:%d", keyPrefix, roomPart, mode)
}

// RankedList is one (room, order-mode) sorted-set index mapping a sort key
// to a post id. There is no client-side locking: concurrent Put calls rely
// on the per-key atomicity of the underlying sorted-set commands, and two
// writers racing on the same post converge to last-write-wins on the sort
// key.
type RankedList struct {
	key     string
	mode    int
	cache   *Cache
	length  int64
	minFill int64
	maxLen  int64
	cut     int64
	logger  *zap.Logger
}

// NewRankedList creates the index handle for one (room, mode) pair. A nil
// room is the cross-room aggregate view.
func NewRankedList(room *int64, mode int, c *Cache, cfg *config.CacheConfig) *RankedList {
	return &RankedList{
		key:     rankedListKey(room, mode),
		mode:    mode,
		cache:   c,
		minFill: cfg.MinFill,
		maxLen:  cfg.MaxLength,
		cut:     cfg.CutLength,
		logger:  logging.WithComponent("ranked_list"),
	}
}

// checkLength refreshes the cached cardinality, trimming the lowest-ranked
// tail first whenever the set has grown past the maximum watermark. Posts
// that never see another Put would otherwise accumulate without bound.
func (rl *RankedList) checkLength(ctx context.Context) {
	l, err := rl.cache.Client().ZCard(ctx, rl.key).Result()
	if err != nil {
		rl.logger.Warn("list cache cardinality failed", zap.String("key", rl.key), zap.Error(err))
		rl.length = 0
		return
	}
	if l > rl.maxLen {
		if err := rl.cache.Client().
			ZRemRangeByRank(ctx, rl.key, rl.maxLen-rl.cut, -1).Err(); err != nil {
			rl.logger.Warn("cut list cache failed", zap.String("key", rl.key), zap.Error(err))
		}
		l = rl.maxLen - rl.cut
	}
	rl.length = l
}

// NeedFill reports whether the index is below the minimum watermark and
// should be backfilled from the store. As a side effect it trims an
// oversized index down to max - cut.
func (rl *RankedList) NeedFill(ctx context.Context) bool {
	rl.checkLength(ctx)
	return rl.length < rl.minFill
}

// Len returns the cardinality observed by the last NeedFill/Fill call.
func (rl *RankedList) Len() int64 {
	return rl.length
}

// MinFill returns the fill watermark, which doubles as the fill batch size.
func (rl *RankedList) MinFill() int64 {
	return rl.minFill
}

func (rl *RankedList) score(p *models.Post) float64 {
	switch rl.mode {
	case models.OrderModeLastActivity:
		return float64(-p.LastCommentTime.Unix())
	case models.OrderModeHot:
		return float64(-p.HotScore)
	case models.OrderModeRandom:
		// A fresh key per write keeps the view shuffled across fills.
		return rand.Float64() * math.MaxInt32
	case models.OrderModeAttention:
		return float64(-p.NAttentions)
	default:
		return float64(-p.ID)
	}
}

func member(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Fill bulk-inserts a batch of posts, then re-checks the watermark.
func (rl *RankedList) Fill(ctx context.Context, posts []*models.Post) {
	if len(posts) == 0 {
		return
	}
	zs := make([]*redis.Z, 0, len(posts))
	for _, p := range posts {
		zs = append(zs, &redis.Z{Score: rl.score(p), Member: member(p.ID)})
	}
	if err := rl.cache.Client().ZAdd(ctx, rl.key, zs...).Err(); err != nil {
		rl.logger.Warn("fill list cache failed", zap.String("key", rl.key), zap.Error(err))
	}
	rl.checkLength(ctx)
}

// Put upserts a single post. Deleted posts are removed from every mode;
// reported posts are removed from every mode except the newest-first one,
// which moderators read. Mode 1 only carries posts that have comments.
func (rl *RankedList) Put(ctx context.Context, p *models.Post) {
	remove := p.IsDeleted ||
		(rl.mode != models.OrderModeNewest && p.IsReported) ||
		(rl.mode == models.OrderModeLastActivity && p.NComments == 0)
	if remove {
		if err := rl.cache.Client().ZRem(ctx, rl.key, member(p.ID)).Err(); err != nil {
			rl.logger.Warn("remove from list cache failed",
				zap.String("key", rl.key), zap.Int64("pid", p.ID), zap.Error(err))
		}
		return
	}

	z := &redis.Z{Score: rl.score(p), Member: member(p.ID)}
	if err := rl.cache.Client().ZAdd(ctx, rl.key, z).Err(); err != nil {
		rl.logger.Warn("put into list cache failed",
			zap.String("key", rl.key), zap.Int64("pid", p.ID), zap.Error(err))
	}
}

// GetPids range-reads post ids in rank order.
func (rl *RankedList) GetPids(ctx context.Context, start, limit int64) []int64 {
	members, err := rl.cache.Client().ZRange(ctx, rl.key, start, start+limit-1).Result()
	if err != nil {
		rl.logger.Warn("range read list cache failed", zap.String("key", rl.key), zap.Error(err))
		return nil
	}
	pids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			rl.logger.Warn("bad member in list cache", zap.String("key", rl.key), zap.String("member", m))
			continue
		}
		pids = append(pids, id)
	}
	return pids
}

// Clear drops the whole index.
func (rl *RankedList) Clear(ctx context.Context) {
	if err := rl.cache.Delete(ctx, rl.key); err != nil {
		rl.logger.Warn("clear list cache failed", zap.String("key", rl.key), zap.Error(err))
	}
}
