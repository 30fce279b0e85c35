package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/warrenhq/warren/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Post{}, &models.Comment{}, &models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(gdb)
}

func seedPost(t *testing.T, r *PostRepository, p *models.Post) *models.Post {
	t.Helper()
	if p.CreateTime.IsZero() {
		p.CreateTime = time.Unix(1700000000, 0).UTC()
	}
	if p.LastCommentTime.IsZero() {
		p.LastCommentTime = p.CreateTime
	}
	if p.AuthorHash == "" {
		p.AuthorHash = "HASH"
	}
	if p.Content == "" {
		p.Content = "content"
	}
	if err := r.Create(context.Background(), p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func TestPostRepository_GetByID(t *testing.T) {
	repo := newTestRepo(t)
	posts := NewPostRepository(repo)
	ctx := context.Background()

	p := seedPost(t, posts, &models.Post{})

	got, err := posts.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil || got.ID != p.ID {
		t.Errorf("GetByID() = %+v, want id %d", got, p.ID)
	}

	got, err = posts.GetByID(ctx, 9999)
	if err != nil {
		t.Fatalf("GetByID() on missing id error = %v", err)
	}
	if got != nil {
		t.Errorf("GetByID() on missing id = %+v, want nil", got)
	}

	// Deleted rows stay addressable.
	d := seedPost(t, posts, &models.Post{IsDeleted: true})
	got, err = posts.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil || !got.IsDeleted {
		t.Errorf("GetByID() should return deleted rows, got %+v", got)
	}
}

func TestPostRepository_GetMulti(t *testing.T) {
	repo := newTestRepo(t)
	posts := NewPostRepository(repo)
	ctx := context.Background()

	a := seedPost(t, posts, &models.Post{})
	b := seedPost(t, posts, &models.Post{IsDeleted: true})
	c := seedPost(t, posts, &models.Post{})

	got, err := posts.GetMulti(ctx, []int64{a.ID, b.ID, c.ID, 9999})
	if err != nil {
		t.Fatalf("GetMulti() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("GetMulti() returned %d posts, want 2 (deleted and missing excluded)", len(got))
	}

	got, err = posts.GetMulti(ctx, nil)
	if err != nil {
		t.Fatalf("GetMulti(nil) error = %v", err)
	}
	if got != nil {
		t.Errorf("GetMulti(nil) = %v, want nil", got)
	}
}

func TestPostRepository_ApplyOps(t *testing.T) {
	repo := newTestRepo(t)
	posts := NewPostRepository(repo)
	ctx := context.Background()

	t.Run("deltas and sets in one update", func(t *testing.T) {
		p := seedPost(t, posts, &models.Post{NComments: 1, HotScore: 10})
		ts := time.Unix(1700001234, 0).UTC()

		got, err := posts.ApplyOps(ctx, p.ID,
			Add("n_comments", 1),
			Add("hot_score", 3),
			Set("last_comment_time", ts))
		if err != nil {
			t.Fatalf("ApplyOps() error = %v", err)
		}
		if got.NComments != 2 {
			t.Errorf("NComments = %d, want 2", got.NComments)
		}
		if got.HotScore != 13 {
			t.Errorf("HotScore = %d, want 13", got.HotScore)
		}
		if !got.LastCommentTime.Equal(ts) {
			t.Errorf("LastCommentTime = %v, want %v", got.LastCommentTime, ts)
		}

		// The returned row matches what a fresh read sees.
		fresh, _ := posts.GetByID(ctx, p.ID)
		if fresh.NComments != got.NComments || fresh.HotScore != got.HotScore {
			t.Errorf("returned row %+v diverges from stored row %+v", got, fresh)
		}
	})

	t.Run("counters clamp at zero", func(t *testing.T) {
		p := seedPost(t, posts, &models.Post{NComments: 0, HotScore: 0})

		got, err := posts.ApplyOps(ctx, p.ID,
			Add("n_comments", -1),
			Add("hot_score", -1))
		if err != nil {
			t.Fatalf("ApplyOps() error = %v", err)
		}
		if got.NComments != 0 || got.HotScore != 0 {
			t.Errorf("counters = (%d, %d), want clamped to 0", got.NComments, got.HotScore)
		}
	})

	t.Run("missing row", func(t *testing.T) {
		_, err := posts.ApplyOps(ctx, 9999, Add("n_comments", 1))
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Errorf("ApplyOps() on missing id error = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("flag set", func(t *testing.T) {
		p := seedPost(t, posts, &models.Post{})
		got, err := posts.ApplyOps(ctx, p.ID, Set("is_deleted", true))
		if err != nil {
			t.Fatalf("ApplyOps() error = %v", err)
		}
		if !got.IsDeleted {
			t.Error("IsDeleted should be set")
		}
	})
}

func TestPostRepository_ListPage(t *testing.T) {
	repo := newTestRepo(t)
	posts := NewPostRepository(repo)
	ctx := context.Background()

	t0 := time.Unix(1700000000, 0).UTC()
	mk := func(hot, atts, comments int64, lastComment time.Time, deleted, reported bool, room int64) *models.Post {
		return seedPost(t, posts, &models.Post{
			HotScore:        hot,
			NAttentions:     atts,
			NComments:       comments,
			LastCommentTime: lastComment,
			IsDeleted:       deleted,
			IsReported:      reported,
			RoomID:          room,
		})
	}

	p1 := mk(10, 1, 0, t0, false, false, 0)
	p2 := mk(30, 5, 2, t0.Add(2*time.Hour), false, false, 0)
	p3 := mk(20, 3, 1, t0.Add(time.Hour), false, true, 0) // reported
	p4 := mk(99, 9, 9, t0.Add(3*time.Hour), true, false, 0) // deleted
	p5 := mk(5, 2, 1, t0.Add(30*time.Minute), false, false, 7)

	t.Run("newest keeps reported, drops deleted", func(t *testing.T) {
		got, err := posts.ListPage(ctx, nil, models.OrderModeNewest, 0, 10, false)
		if err != nil {
			t.Fatalf("ListPage() error = %v", err)
		}
		ids := []int64{}
		for _, p := range got {
			ids = append(ids, p.ID)
		}
		want := []int64{p5.ID, p3.ID, p2.ID, p1.ID}
		if len(ids) != len(want) {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Fatalf("ids = %v, want %v", ids, want)
			}
		}
	})

	t.Run("hot drops reported", func(t *testing.T) {
		got, err := posts.ListPage(ctx, nil, models.OrderModeHot, 0, 10, false)
		if err != nil {
			t.Fatalf("ListPage() error = %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d posts, want 3", len(got))
		}
		if got[0].ID != p2.ID {
			t.Errorf("top of hot view = %d, want %d", got[0].ID, p2.ID)
		}
	})

	t.Run("activity needs comments", func(t *testing.T) {
		got, err := posts.ListPage(ctx, nil, models.OrderModeLastActivity, 0, 10, false)
		if err != nil {
			t.Fatalf("ListPage() error = %v", err)
		}
		for _, p := range got {
			if p.NComments == 0 {
				t.Errorf("uncommented post %d in activity view", p.ID)
			}
		}
		if len(got) == 0 || got[0].ID != p2.ID {
			t.Errorf("activity view head = %v, want %d first", got, p2.ID)
		}
	})

	t.Run("room scoping", func(t *testing.T) {
		room := int64(7)
		got, err := posts.ListPage(ctx, &room, models.OrderModeNewest, 0, 10, false)
		if err != nil {
			t.Fatalf("ListPage() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != p5.ID {
			t.Errorf("room view = %v, want only %d", got, p5.ID)
		}
	})

	t.Run("admin view includes deleted and reported everywhere", func(t *testing.T) {
		got, err := posts.ListPage(ctx, nil, models.OrderModeHot, 0, 10, true)
		if err != nil {
			t.Fatalf("ListPage() error = %v", err)
		}
		if len(got) != 5 {
			t.Errorf("admin hot view has %d posts, want all 5", len(got))
		}
		if got[0].ID != p4.ID {
			t.Errorf("admin hot view head = %d, want deleted post %d", got[0].ID, p4.ID)
		}
	})

	t.Run("offset and limit", func(t *testing.T) {
		got, err := posts.ListPage(ctx, nil, models.OrderModeNewest, 1, 2, false)
		if err != nil {
			t.Fatalf("ListPage() error = %v", err)
		}
		if len(got) != 2 || got[0].ID != p3.ID {
			t.Errorf("paged view = %v, want [%d %d]", got, p3.ID, p2.ID)
		}
	})
}

func TestPostRepository_Search(t *testing.T) {
	repo := newTestRepo(t)
	posts := NewPostRepository(repo)
	ctx := context.Background()

	mk := func(content string, allowSearch, deleted, reported bool) *models.Post {
		return seedPost(t, posts, &models.Post{
			Content:     content,
			AllowSearch: allowSearch,
			IsDeleted:   deleted,
			IsReported:  reported,
		})
	}

	match := mk("the quick brown fox", true, false, false)
	mk("the quick brown fox", false, false, false)  // opted out
	mk("the quick brown fox", true, true, false)    // deleted
	mk("the quick brown fox", true, false, true)    // reported
	mk("quick but nothing else", true, false, false)

	got, err := posts.Search(ctx, nil, models.OrderModeNewest, "quick fox", 0, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != match.ID {
		t.Errorf("Search() = %v, want only post %d", got, match.ID)
	}

	got, err = posts.Search(ctx, nil, models.OrderModeNewest, "   ", 0, 10)
	if err != nil {
		t.Fatalf("Search() with blank keywords error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("blank keywords should match nothing, got %v", got)
	}
}

func TestPostRepository_DecayHotScores(t *testing.T) {
	repo := newTestRepo(t)
	posts := NewPostRepository(repo)
	ctx := context.Background()

	above := seedPost(t, posts, &models.Post{HotScore: 100})
	edge := seedPost(t, posts, &models.Post{HotScore: 12})
	atFloor := seedPost(t, posts, &models.Post{HotScore: 10})
	below := seedPost(t, posts, &models.Post{HotScore: 3})

	affected, err := posts.DecayHotScores(ctx, 0.9, 10)
	if err != nil {
		t.Fatalf("DecayHotScores() error = %v", err)
	}
	if affected != 2 {
		t.Errorf("affected = %d, want 2", affected)
	}

	check := func(id, want int64) {
		t.Helper()
		p, _ := posts.GetByID(ctx, id)
		if p.HotScore != want {
			t.Errorf("post %d hot score = %d, want %d", id, p.HotScore, want)
		}
	}
	check(above.ID, 90)
	check(edge.ID, 10) // floor(12 * 0.9)
	check(atFloor.ID, 10)
	check(below.ID, 3)
}

func TestPostRepository_DistinctRooms(t *testing.T) {
	repo := newTestRepo(t)
	posts := NewPostRepository(repo)
	ctx := context.Background()

	seedPost(t, posts, &models.Post{RoomID: 0})
	seedPost(t, posts, &models.Post{RoomID: 0})
	seedPost(t, posts, &models.Post{RoomID: 7})

	rooms, err := posts.DistinctRooms(ctx)
	if err != nil {
		t.Fatalf("DistinctRooms() error = %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("DistinctRooms() = %v, want two rooms", rooms)
	}
}

func TestCommentRepository(t *testing.T) {
	repo := newTestRepo(t)
	posts := NewPostRepository(repo)
	comments := NewCommentRepository(repo)
	ctx := context.Background()

	p := seedPost(t, posts, &models.Post{})
	ts := time.Unix(1700000000, 0).UTC()

	for i, hash := range []string{"A", "B", "A"} {
		c := &models.Comment{
			AuthorHash: hash,
			Content:    "comment",
			CreateTime: ts.Add(time.Duration(i) * time.Minute),
			PostID:     p.ID,
		}
		if err := comments.Create(ctx, c); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	cs, err := comments.ListByPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByPost() error = %v", err)
	}
	if len(cs) != 3 {
		t.Fatalf("ListByPost() returned %d comments, want 3", len(cs))
	}
	for i := 1; i < len(cs); i++ {
		if cs[i].ID < cs[i-1].ID {
			t.Error("comments must come back in id order")
		}
	}

	// Soft delete keeps the row in the listing.
	if err := comments.SetDeleted(ctx, cs[1].ID); err != nil {
		t.Fatalf("SetDeleted() error = %v", err)
	}
	cs, _ = comments.ListByPost(ctx, p.ID)
	if len(cs) != 3 {
		t.Errorf("deleted comment should stay listed, got %d", len(cs))
	}
	if !cs[1].IsDeleted {
		t.Error("second comment should carry the deleted flag")
	}

	if err := comments.SetDeleted(ctx, 9999); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("SetDeleted() on missing id error = %v, want ErrRecordNotFound", err)
	}

	got, err := comments.GetByID(ctx, 9999)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetByID() on missing id = %+v, want nil", got)
	}
}

func TestUserRepository(t *testing.T) {
	repo := newTestRepo(t)
	users := NewUserRepository(repo)
	ctx := context.Background()

	u := &models.User{Name: "alice", Token: "tok-1"}
	if err := repo.db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := users.GetByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetByToken() error = %v", err)
	}
	if got == nil || got.Name != "alice" {
		t.Errorf("GetByToken() = %+v, want alice", got)
	}

	got, err = users.GetByToken(ctx, "unknown")
	if err != nil {
		t.Fatalf("GetByToken() on unknown token error = %v", err)
	}
	if got != nil {
		t.Errorf("GetByToken() on unknown token = %+v, want nil", got)
	}

	count, err := users.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}
