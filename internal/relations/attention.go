// Package relations holds the durable Redis-backed relationship and
// moderation state: attentions, block relationships, bans, custom titles,
// the system log, polls and reactions. Unlike internal/cache this state is
// authoritative, so errors propagate to the caller instead of degrading to
// a miss.
package relations

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const attentionKeyPattern = "warren:attention:*"

func attentionKey(namehash string) string {
	return fmt.Sprintf("warren:attention:%s", namehash)
}

// Attention is one user's set of followed post ids.
type Attention struct {
	key string
	rdb *redis.Client
}

// NewAttention creates the attention-set handle for one user.
func NewAttention(namehash string, rdb *redis.Client) *Attention {
	return &Attention{key: attentionKey(namehash), rdb: rdb}
}

// Add marks a post as attended.
func (a *Attention) Add(ctx context.Context, postID int64) error {
	return a.rdb.SAdd(ctx, a.key, postID).Err()
}

// Remove unmarks a post.
func (a *Attention) Remove(ctx context.Context, postID int64) error {
	return a.rdb.SRem(ctx, a.key, postID).Err()
}

// Has reports whether the user attends the post.
func (a *Attention) Has(ctx context.Context, postID int64) (bool, error) {
	return a.rdb.SIsMember(ctx, a.key, postID).Result()
}

// All lists every attended post id.
func (a *Attention) All(ctx context.Context) ([]int64, error) {
	members, err := a.rdb.SMembers(ctx, a.key).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad attention member %q: %w", m, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
