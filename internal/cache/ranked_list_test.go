package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/warrenhq/warren/internal/models"
	"github.com/warrenhq/warren/pkg/config"
)

func TestRankedList_PutAndOrder(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	t.Run("newest mode orders by descending id", func(t *testing.T) {
		rl := NewRankedList(nil, models.OrderModeNewest, c, testCacheConfig())
		for _, id := range []int64{2, 5, 1} {
			rl.Put(ctx, testPost(id))
		}
		got := rl.GetPids(ctx, 0, 10)
		want := []int64{5, 2, 1}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("GetPids() = %v, want %v", got, want)
		}
	})

	t.Run("hot mode orders by descending score", func(t *testing.T) {
		rl := NewRankedList(nil, models.OrderModeHot, c, testCacheConfig())
		for id, hot := range map[int64]int64{1: 5, 2: 50, 3: 20} {
			p := testPost(id)
			p.HotScore = hot
			rl.Put(ctx, p)
		}
		got := rl.GetPids(ctx, 0, 10)
		want := []int64{2, 3, 1}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("GetPids() = %v, want %v", got, want)
		}
	})

	t.Run("put same post twice reorders instead of duplicating", func(t *testing.T) {
		rl := NewRankedList(nil, models.OrderModeAttention, c, testCacheConfig())
		p := testPost(1)
		p.NAttentions = 1
		rl.Put(ctx, p)
		other := testPost(2)
		other.NAttentions = 5
		rl.Put(ctx, other)

		p.NAttentions = 9
		rl.Put(ctx, p)

		got := rl.GetPids(ctx, 0, 10)
		want := []int64{1, 2}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("GetPids() = %v, want %v", got, want)
		}
	})
}

func TestRankedList_Eviction(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	put := func(rl *RankedList, p *models.Post) {
		rl.Put(ctx, p)
	}

	t.Run("deleted post leaves every mode", func(t *testing.T) {
		for _, mode := range models.OrderModes {
			rl := NewRankedList(nil, mode, c, testCacheConfig())
			p := testPost(100)
			p.NComments = 1
			put(rl, p)

			p.IsDeleted = true
			put(rl, p)

			if got := rl.GetPids(ctx, 0, 10); len(got) != 0 {
				t.Errorf("mode %d: deleted post still listed: %v", mode, got)
			}
			rl.Clear(ctx)
		}
	})

	t.Run("reported post survives only the newest view", func(t *testing.T) {
		for _, mode := range models.OrderModes {
			rl := NewRankedList(nil, mode, c, testCacheConfig())
			p := testPost(100)
			p.NComments = 1
			put(rl, p)

			p.IsReported = true
			put(rl, p)

			got := rl.GetPids(ctx, 0, 10)
			if mode == models.OrderModeNewest {
				if len(got) != 1 {
					t.Errorf("mode %d: reported post should stay, got %v", mode, got)
				}
			} else if len(got) != 0 {
				t.Errorf("mode %d: reported post still listed: %v", mode, got)
			}
			rl.Clear(ctx)
		}
	})

	t.Run("uncommented post is absent from the activity view", func(t *testing.T) {
		rl := NewRankedList(nil, models.OrderModeLastActivity, c, testCacheConfig())
		p := testPost(100)
		p.NComments = 0
		put(rl, p)
		if got := rl.GetPids(ctx, 0, 10); len(got) != 0 {
			t.Errorf("uncommented post listed in activity view: %v", got)
		}
	})
}

func TestRankedList_Watermarks(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	cfg := &config.CacheConfig{MinFill: 5, MaxLength: 20, CutLength: 4}
	rl := NewRankedList(nil, models.OrderModeNewest, c, cfg)

	if !rl.NeedFill(ctx) {
		t.Fatal("empty list should need a fill")
	}

	batch := make([]*models.Post, 0, 25)
	for id := int64(1); id <= 25; id++ {
		batch = append(batch, testPost(id))
	}
	rl.Fill(ctx, batch)

	// 25 > max 20, so Fill must have trimmed down to max - cut = 16.
	if got := rl.Len(); got != 16 {
		t.Errorf("Len() after oversize fill = %d, want 16", got)
	}
	if rl.NeedFill(ctx) {
		t.Error("trimmed list is above the fill watermark")
	}

	// The lowest-ranked tail goes first: survivors are the newest 16.
	got := rl.GetPids(ctx, 0, 100)
	if len(got) != 16 {
		t.Fatalf("GetPids() returned %d entries, want 16", len(got))
	}
	if got[0] != 25 || got[len(got)-1] != 10 {
		t.Errorf("GetPids() range = [%d..%d], want [25..10]", got[0], got[len(got)-1])
	}
}

func TestRankedList_RoomIsolation(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	room := int64(7)
	global := NewRankedList(nil, models.OrderModeNewest, c, testCacheConfig())
	scoped := NewRankedList(&room, models.OrderModeNewest, c, testCacheConfig())

	p := testPost(1)
	p.RoomID = room
	global.Put(ctx, p)
	scoped.Put(ctx, p)

	other := int64(8)
	otherRoom := NewRankedList(&other, models.OrderModeNewest, c, testCacheConfig())
	if got := otherRoom.GetPids(ctx, 0, 10); len(got) != 0 {
		t.Errorf("post leaked into another room's index: %v", got)
	}
	if got := scoped.GetPids(ctx, 0, 10); len(got) != 1 {
		t.Errorf("room index should hold the post, got %v", got)
	}
	if got := global.GetPids(ctx, 0, 10); len(got) != 1 {
		t.Errorf("aggregate index should hold the post, got %v", got)
	}
}
