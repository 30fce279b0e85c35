package relations

import (
	"context"

	"github.com/go-redis/redis/v8"
)

const keyBannedUsers = "warren:banned_user_hash_list"

// AddBannedUser bans a fingerprint until the next salt rotation.
func AddBannedUser(ctx context.Context, rdb *redis.Client, namehash string) error {
	return rdb.SAdd(ctx, keyBannedUsers, namehash).Err()
}

// IsBanned reports whether a fingerprint is banned.
func IsBanned(ctx context.Context, rdb *redis.Client, namehash string) (bool, error) {
	return rdb.SIsMember(ctx, keyBannedUsers, namehash).Result()
}

// ClearBannedUsers drops the whole ban list. Fingerprints rotate with the
// salt, so stale bans are useless after a restart anyway.
func ClearBannedUsers(ctx context.Context, rdb *redis.Client) error {
	return rdb.Del(ctx, keyBannedUsers).Err()
}
