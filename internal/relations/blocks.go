package relations

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const (
	keyBlockedCounter = "warren:blocked_counter"
	keyAutoBlockRank  = "warren:auto_block_rank"

	// DefaultAutoBlockRank is the rank assumed for viewers who never tuned
	// their threshold.
	DefaultAutoBlockRank = 4
)

func blockedUsersKey(userID int64) string {
	return fmt.Sprintf("warren:blocked_users:%d", userID)
}

// BlockedUsers is one registered user's explicit block list, keyed by the
// author fingerprints they blocked.
type BlockedUsers struct {
	key string
	rdb *redis.Client
}

// NewBlockedUsers creates the block-list handle for one user id.
func NewBlockedUsers(userID int64, rdb *redis.Client) *BlockedUsers {
	return &BlockedUsers{key: blockedUsersKey(userID), rdb: rdb}
}

// Add records a block relationship.
func (b *BlockedUsers) Add(ctx context.Context, namehash string) error {
	return b.rdb.SAdd(ctx, b.key, namehash).Err()
}

// Has reports an explicit block.
func (b *BlockedUsers) Has(ctx context.Context, namehash string) (bool, error) {
	return b.rdb.SIsMember(ctx, b.key, namehash).Result()
}

// Viewer carries the identity facts visibility checks need. A nil UserID is
// an anonymous-session user, who has no explicit block list.
type Viewer struct {
	NameHash      string
	UserID        *int64
	IsAdmin       bool
	AutoBlockRank int64
}

// CheckIfBlocked reports whether an author is hidden from the viewer:
// either an explicit block, or the author's global block counter has
// reached the viewer's auto-block threshold (rank × multiplier).
func CheckIfBlocked(ctx context.Context, rdb *redis.Client, viewer *Viewer, namehash string, multiplier int64) (bool, error) {
	if viewer.UserID != nil {
		blocked, err := NewBlockedUsers(*viewer.UserID, rdb).Has(ctx, namehash)
		if err != nil {
			return false, err
		}
		if blocked {
			return true, nil
		}
	}
	count, err := GetBlockCount(ctx, rdb, namehash)
	if err != nil {
		return false, err
	}
	return count >= viewer.AutoBlockRank*multiplier, nil
}

// IncrBlockCount bumps the global per-author block counter.
func IncrBlockCount(ctx context.Context, rdb *redis.Client, namehash string) (int64, error) {
	return rdb.HIncrBy(ctx, keyBlockedCounter, namehash, 1).Result()
}

// GetBlockCount reads the global per-author block counter; zero if unset.
func GetBlockCount(ctx context.Context, rdb *redis.Client, namehash string) (int64, error) {
	s, err := rdb.HGet(ctx, keyBlockedCounter, namehash).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}

// SetAutoBlockRank stores a viewer's auto-block sensitivity rank.
func SetAutoBlockRank(ctx context.Context, rdb *redis.Client, namehash string, rank int64) error {
	return rdb.HSet(ctx, keyAutoBlockRank, namehash, rank).Err()
}

// GetAutoBlockRank reads a viewer's rank, falling back to the default.
func GetAutoBlockRank(ctx context.Context, rdb *redis.Client, namehash string) (int64, error) {
	s, err := rdb.HGet(ctx, keyAutoBlockRank, namehash).Result()
	if err == redis.Nil {
		return DefaultAutoBlockRank, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}

// ClearAutoBlockRanks drops every stored rank.
func ClearAutoBlockRanks(ctx context.Context, rdb *redis.Client) error {
	return rdb.Del(ctx, keyAutoBlockRank).Err()
}
