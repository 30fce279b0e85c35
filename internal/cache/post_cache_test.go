package cache

import (
	"context"
	"testing"
	"time"

	"github.com/warrenhq/warren/internal/models"
)

func testPost(id int64) *models.Post {
	now := time.Unix(1700000000, 0).UTC()
	return &models.Post{
		ID:              id,
		AuthorHash:      "HASH",
		Content:         "content",
		NAttentions:     1,
		CreateTime:      now,
		LastCommentTime: now,
		RoomID:          0,
	}
}

func TestPostCache_Roundtrip(t *testing.T) {
	c, _ := newTestCache(t)
	pc := NewPostCache(c, testCacheConfig())
	ctx := context.Background()

	if got := pc.Get(ctx, 1); got != nil {
		t.Fatalf("Get() on empty cache = %+v, want nil", got)
	}

	p := testPost(1)
	p.CW = "cw text"
	p.HotScore = 7
	pc.SetMulti(ctx, []*models.Post{p})

	got := pc.Get(ctx, 1)
	if got == nil {
		t.Fatal("Get() after SetMulti returned nil")
	}
	if got.ID != p.ID || got.CW != p.CW || got.HotScore != p.HotScore {
		t.Errorf("Get() = %+v, want %+v", got, p)
	}
	if !got.CreateTime.Equal(p.CreateTime) {
		t.Errorf("CreateTime = %v, want %v", got.CreateTime, p.CreateTime)
	}
}

func TestPostCache_DeletedPostIsServed(t *testing.T) {
	c, _ := newTestCache(t)
	pc := NewPostCache(c, testCacheConfig())
	ctx := context.Background()

	p := testPost(5)
	p.IsDeleted = true
	pc.SetMulti(ctx, []*models.Post{p})

	got := pc.Get(ctx, 5)
	if got == nil {
		t.Fatal("deleted post should still be cached")
	}
	if !got.IsDeleted {
		t.Error("IsDeleted flag should survive the roundtrip")
	}
}

func TestPostCache_GetMulti(t *testing.T) {
	c, _ := newTestCache(t)
	pc := NewPostCache(c, testCacheConfig())
	ctx := context.Background()

	pc.SetMulti(ctx, []*models.Post{testPost(1), testPost(3)})

	t.Run("order and misses", func(t *testing.T) {
		got := pc.GetMulti(ctx, []int64{3, 2, 1})
		if len(got) != 3 {
			t.Fatalf("GetMulti() returned %d entries, want 3", len(got))
		}
		if got[0] == nil || got[0].ID != 3 {
			t.Errorf("got[0] = %+v, want post 3", got[0])
		}
		if got[1] != nil {
			t.Errorf("got[1] = %+v, want nil for the miss", got[1])
		}
		if got[2] == nil || got[2].ID != 1 {
			t.Errorf("got[2] = %+v, want post 1", got[2])
		}
	})

	t.Run("single id behaves like Get", func(t *testing.T) {
		multi := pc.GetMulti(ctx, []int64{1})
		single := pc.Get(ctx, 1)
		if len(multi) != 1 {
			t.Fatalf("GetMulti() returned %d entries, want 1", len(multi))
		}
		if (multi[0] == nil) != (single == nil) {
			t.Fatalf("single-element GetMulti and Get disagree: %+v vs %+v", multi[0], single)
		}
		if multi[0].ID != single.ID {
			t.Errorf("single-element GetMulti = %+v, want %+v", multi[0], single)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := pc.GetMulti(ctx, nil); got != nil {
			t.Errorf("GetMulti(nil) = %v, want nil", got)
		}
	})
}

func TestPostCache_TTLRefreshOnHit(t *testing.T) {
	c, mr := newTestCache(t)
	pc := NewPostCache(c, testCacheConfig())
	ctx := context.Background()

	pc.SetMulti(ctx, []*models.Post{testPost(1)})

	// Age the entry most of the way, then read it.
	mr.FastForward(50 * time.Minute)
	if got := pc.Get(ctx, 1); got == nil {
		t.Fatal("entry should still be live before the TTL")
	}

	// Another 50 minutes would have expired the original TTL; the read
	// above must have pushed it out.
	mr.FastForward(50 * time.Minute)
	if got := pc.Get(ctx, 1); got == nil {
		t.Error("hit should have refreshed the TTL")
	}
}

func TestPostCache_ClearAll(t *testing.T) {
	c, mr := newTestCache(t)
	pc := NewPostCache(c, testCacheConfig())
	ctx := context.Background()

	pc.SetMulti(ctx, []*models.Post{testPost(1), testPost(2)})
	mr.Set("warren:unrelated", "keep")

	pc.ClearAll(ctx)

	if pc.Get(ctx, 1) != nil || pc.Get(ctx, 2) != nil {
		t.Error("ClearAll() should drop every post entry")
	}
	if !mr.Exists("warren:unrelated") {
		t.Error("ClearAll() should not touch other namespaces")
	}
}
