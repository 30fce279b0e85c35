package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/warrenhq/warren/pkg/config"
	"github.com/warrenhq/warren/pkg/logging"
)

// keyPrefix namespaces every key this service writes. The trailing version
// tag on object keys lets a deploy with a changed encoding start cold
// instead of decoding stale blobs.
const keyPrefix = "warren"

// Cache wraps the shared Redis client. All higher-level caches (post,
// comment, user, ranked list, block dict) hold one of these.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// New creates a new Redis cache client
func New(cfg *config.RedisConfig) (*Cache, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return &Cache{
		client: client,
		logger: logging.WithComponent("cache"),
	}, nil
}

// NewWithClient wraps an existing client; used by tests and by callers that
// manage their own connection.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{
		client: client,
		logger: logging.WithComponent("cache"),
	}
}

// Client exposes the underlying connection for the sorted-set and hash
// structures that need direct command access.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Get retrieves a value from cache
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

// Set sets a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes keys from cache
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Expire refreshes the TTL of a key
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

// GetJSON retrieves a JSON-encoded value from cache
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	s, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(s), dest)
}

// SetJSON stores a JSON-encoded value with TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// DeletePattern removes every key matching the pattern, scanning in batches
// so a large namespace purge does not block the connection.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health checks Redis health
func (c *Cache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// isMiss reports whether an error is a plain key miss rather than a
// connectivity or decode failure worth logging.
func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// HashKey builds a short stable cache key out of arbitrary parts
func HashKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}
