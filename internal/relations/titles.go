package relations

import (
	"context"

	"github.com/go-redis/redis/v8"
)

const keyCustomTitle = "warren:title"

// SetCustomTitle claims a display title for a fingerprint. The hash maps
// both directions (hash -> title and title -> hash) so uniqueness is one
// HEXISTS away. Returns false when the title is already taken.
func SetCustomTitle(ctx context.Context, rdb *redis.Client, namehash, title string) (bool, error) {
	exists, err := rdb.HExists(ctx, keyCustomTitle, title).Result()
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := rdb.HSet(ctx, keyCustomTitle, namehash, title).Err(); err != nil {
		return false, err
	}
	if err := rdb.HSet(ctx, keyCustomTitle, title, namehash).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// GetCustomTitle reads the title of a fingerprint, empty if none.
func GetCustomTitle(ctx context.Context, rdb *redis.Client, namehash string) (string, error) {
	s, err := rdb.HGet(ctx, keyCustomTitle, namehash).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s, nil
}

// ClearCustomTitles drops every claimed title.
func ClearCustomTitles(ctx context.Context, rdb *redis.Client) error {
	return rdb.Del(ctx, keyCustomTitle).Err()
}
