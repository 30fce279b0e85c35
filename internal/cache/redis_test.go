package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/warrenhq/warren/pkg/config"
)

// newTestCache spins up an in-process Redis and wraps it.
func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWithClient(client), mr
}

func testCacheConfig() *config.CacheConfig {
	return &config.CacheConfig{
		MinFill:      200,
		MaxLength:    900,
		CutLength:    100,
		InstanceTTL:  time.Hour,
		UserCountTTL: 5 * time.Minute,
	}
}

func TestHashKey(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{
			name:  "single part",
			parts: []string{"test"},
		},
		{
			name:  "multiple parts",
			parts: []string{"test", "key", "with", "many", "parts"},
		},
		{
			name:  "empty parts",
			parts: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed1 := HashKey(tt.parts...)
			hashed2 := HashKey(tt.parts...)

			// Hash should be consistent
			if hashed1 != hashed2 {
				t.Errorf("HashKey() should be consistent, got %s and %s", hashed1, hashed2)
			}

			// Hash should be 32 characters (MD5 hex)
			if len(hashed1) != 32 {
				t.Errorf("HashKey() should return 32 character hex string, got length %d", len(hashed1))
			}
		})
	}
}

func TestKeyBuilders(t *testing.T) {
	room := int64(7)
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "post key",
			got:      postKey(42),
			expected: "warren:cache:post:42:v2",
		},
		{
			name:     "comment list key",
			got:      commentListKey(42),
			expected: "warren:cache:post_comments:42",
		},
		{
			name:     "ranked list key with room",
			got:      rankedListKey(&room, 2),
			expected: "warren:cache:post_list:7:2",
		},
		{
			name:     "ranked list key without room",
			got:      rankedListKey(nil, 0),
			expected: "warren:cache:post_list::0",
		},
		{
			name:     "block dict key",
			got:      blockDictKey("ABCDEF", 3),
			expected: "warren:cache:block_dict:ABCDEF:3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestDeletePattern(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"warren:x:1", "warren:x:2", "warren:y:1"} {
		if err := c.Set(ctx, key, "v", 0); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	if err := c.DeletePattern(ctx, "warren:x:*"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}

	if mr.Exists("warren:x:1") || mr.Exists("warren:x:2") {
		t.Error("matching keys should be gone")
	}
	if !mr.Exists("warren:y:1") {
		t.Error("non-matching key should survive")
	}
}

func TestGetSetJSON(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	in := payload{Name: "warren", Count: 3}

	if err := c.SetJSON(ctx, "warren:test:json", in, time.Minute); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	var out payload
	if err := c.GetJSON(ctx, "warren:test:json", &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out != in {
		t.Errorf("GetJSON() = %+v, want %+v", out, in)
	}

	if err := c.GetJSON(ctx, "warren:test:absent", &out); !isMiss(err) {
		t.Errorf("GetJSON() on absent key should be a miss, got %v", err)
	}
}
