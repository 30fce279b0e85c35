package relations

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// ClearAllAttentions drops every attention set. Attention sets are keyed by
// fingerprint, which rotates with the salt at process start.
func ClearAllAttentions(ctx context.Context, rdb *redis.Client) error {
	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, attentionKeyPattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// ClearOutdated purges state keyed by fingerprints of a previous salt:
// bans, titles, tuned ranks and attention sets all reference hashes that no
// longer resolve after a restart.
func ClearOutdated(ctx context.Context, rdb *redis.Client) error {
	if err := ClearBannedUsers(ctx, rdb); err != nil {
		return fmt.Errorf("clear banned users: %w", err)
	}
	if err := ClearCustomTitles(ctx, rdb); err != nil {
		return fmt.Errorf("clear custom titles: %w", err)
	}
	if err := ClearAutoBlockRanks(ctx, rdb); err != nil {
		return fmt.Errorf("clear auto block ranks: %w", err)
	}
	if err := ClearAllAttentions(ctx, rdb); err != nil {
		return fmt.Errorf("clear attentions: %w", err)
	}
	return nil
}
