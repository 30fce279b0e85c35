// Package forum is the cache-consistency and ranking core of the backend.
// Handlers call into it through the Service; everything HTTP-shaped stays
// outside. Reads go ranked-list -> object cache -> store with backfill;
// mutations go through one atomic store update whose returned row is pushed
// back into every cache the post appears in.
package forum

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/warrenhq/warren/internal/cache"
	"github.com/warrenhq/warren/internal/db"
	"github.com/warrenhq/warren/internal/models"
	"github.com/warrenhq/warren/internal/relations"
	"github.com/warrenhq/warren/pkg/config"
	"github.com/warrenhq/warren/pkg/logging"
	"github.com/warrenhq/warren/pkg/telemetry"
)

const keyUserCount = "warren:cache:user_count"

// Service wires the repositories and caches together. Each component owns
// an explicit handle to its backing store; nothing here is process-global
// except configuration.
type Service struct {
	cfg      *config.Config
	posts    *db.PostRepository
	comments *db.CommentRepository
	users    *db.UserRepository

	cache     *cache.Cache
	postCache *cache.PostCache
	userCache *cache.UserCache

	logger *zap.Logger
}

// NewService builds the core service on top of an open database and cache
// connection.
func NewService(cfg *config.Config, database *db.DB, c *cache.Cache) *Service {
	repo := db.NewRepository(database.DB)
	return &Service{
		cfg:       cfg,
		posts:     db.NewPostRepository(repo),
		comments:  db.NewCommentRepository(repo),
		users:     db.NewUserRepository(repo),
		cache:     c,
		postCache: cache.NewPostCache(c, &cfg.Cache),
		userCache: cache.NewUserCache(c, &cfg.Cache),
		logger:    logging.WithComponent("forum"),
	}
}

// Cache exposes the shared cache handle for collaborators (annealer, API
// glue) that need direct access to the relationship stores.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// GetPost returns one post by id, read-through. Deleted posts are returned
// with the flag set; the caller applies visibility policy.
func (s *Service) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.GetPost")
	defer span.End()

	if p := s.postCache.Get(ctx, id); p != nil {
		return p, nil
	}

	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	s.postCache.SetMulti(ctx, []*models.Post{p})
	return p, nil
}

// GetPosts batch-fetches posts in input order, read-through with cache
// backfill for the misses. Deleted posts drop out (the store-side multi
// lookup filters them), so the result may be shorter than the input.
func (s *Service) GetPosts(ctx context.Context, ids []int64) ([]*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.GetPosts")
	defer span.End()

	cached := s.postCache.GetMulti(ctx, ids)

	var missing []int64
	for i, p := range cached {
		if p == nil {
			missing = append(missing, ids[i])
		}
	}

	byID := make(map[int64]*models.Post, len(missing))
	if len(missing) > 0 {
		fetched, err := s.posts.GetMulti(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("multi-get posts: %w", err)
		}
		for _, p := range fetched {
			byID[p.ID] = p
		}
		s.postCache.SetMulti(ctx, fetched)
	}

	result := make([]*models.Post, 0, len(ids))
	for i, id := range ids {
		p := cached[i]
		if p == nil {
			p = byID[id]
		}
		if p == nil || p.IsDeleted {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

// GetComments returns the full comment list of a post, read-through,
// deleted rows included.
func (s *Service) GetComments(ctx context.Context, p *models.Post) ([]models.Comment, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.GetComments")
	defer span.End()

	cc := cache.NewCommentCache(p.ID, s.cache, &s.cfg.Cache)
	if cs := cc.Get(ctx); cs != nil {
		return cs, nil
	}

	cs, err := s.comments.ListByPost(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments of post %d: %w", p.ID, err)
	}
	cc.Set(ctx, cs)
	return cs, nil
}

// GetRankedPage returns one page of the (room, mode) ranked view. Admin
// reads bypass the index so deleted and reported posts stay visible.
// Requests beyond the cached window fall back to a direct store query; that
// window moves with traffic, which is the accepted staleness trade.
func (s *Service) GetRankedPage(ctx context.Context, viewer *relations.Viewer, room *int64, mode int, start, limit int64) ([]*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.GetRankedPage")
	defer span.End()

	if viewer != nil && viewer.IsAdmin {
		return s.posts.ListPage(ctx, room, mode, start, limit, true)
	}

	rl := cache.NewRankedList(room, mode, s.cache, &s.cfg.Cache)
	if rl.NeedFill(ctx) {
		posts, err := s.posts.ListPage(ctx, room, mode, 0, rl.MinFill(), false)
		if err != nil {
			return nil, fmt.Errorf("backfill ranked list: %w", err)
		}
		rl.Fill(ctx, posts)
	}

	if start+limit > rl.Len() {
		return s.posts.ListPage(ctx, room, mode, start, limit, false)
	}

	pids := rl.GetPids(ctx, start, limit)
	return s.GetPosts(ctx, pids)
}

// Search runs a text-pattern search straight against the store; search
// results are too sparse to benefit from the ranked indices.
func (s *Service) Search(ctx context.Context, room *int64, mode int, keywords string, start, limit int64) ([]*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.Search")
	defer span.End()

	return s.posts.Search(ctx, room, mode, keywords, start, limit)
}

// GetAttentionPosts lists the viewer's attended posts.
func (s *Service) GetAttentionPosts(ctx context.Context, viewer *relations.Viewer) ([]*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.GetAttentionPosts")
	defer span.End()

	ids, err := relations.NewAttention(viewer.NameHash, s.cache.Client()).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attentions: %w", err)
	}
	return s.GetPosts(ctx, ids)
}

// UserByToken resolves a token to a user, read-through over the per-token
// cache entry. Returns (nil, nil) for an unknown token.
func (s *Service) UserByToken(ctx context.Context, token string) (*models.User, error) {
	if u := s.userCache.Get(ctx, token); u != nil {
		return u, nil
	}
	u, err := s.users.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get user by token: %w", err)
	}
	if u != nil {
		s.userCache.Set(ctx, u)
	}
	return u, nil
}

// UserCount returns the registered-user count, cached for a few minutes.
func (s *Service) UserCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.cache.GetJSON(ctx, keyUserCount, &count); err == nil {
		return count, nil
	}
	count, err := s.users.Count(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetJSON(ctx, keyUserCount, count, s.cfg.Cache.UserCountTTL); err != nil {
		s.logger.Warn("cache user count failed", zap.Error(err))
	}
	return count, nil
}

// BlockDict returns the visibility dictionary for a viewer on one post,
// memoized per (viewer, post) and computed from the durable block store for
// candidates not yet present.
func (s *Service) BlockDict(ctx context.Context, viewer *relations.Viewer, postID int64, hashes []string) (map[string]bool, error) {
	bd := cache.NewBlockDictCache(viewer.NameHash, postID, s.cache, &s.cfg.Cache)
	return bd.GetOrCreate(ctx, func(ctx context.Context, hash string) (bool, error) {
		return relations.CheckIfBlocked(ctx, s.cache.Client(), viewer, hash, s.cfg.Ranking.AutoBlockMultiplier)
	}, hashes)
}

// ClearAllObjectCache purges the whole single-object namespace; used at
// process start so entries written by an older encoding never decode.
func (s *Service) ClearAllObjectCache(ctx context.Context) {
	s.postCache.ClearAll(ctx)
	s.userCache.ClearAll(ctx)
}

// ClearRankedList drops one (room, mode) index.
func (s *Service) ClearRankedList(ctx context.Context, room *int64, mode int) {
	cache.NewRankedList(room, mode, s.cache, &s.cfg.Cache).Clear(ctx)
}

// checkPermission enforces the read/report/write/delete rules of the mode
// string: 'r' readable (not deleted), 'o' not under report, 'w' own
// content, 'd' deletable. Admins bypass everything.
func checkPermission(p *models.Post, viewer *relations.Viewer, mode string) error {
	if viewer.IsAdmin {
		return nil
	}
	for _, m := range mode {
		switch m {
		case 'r':
			if p.IsDeleted {
				return ErrIsDeleted
			}
		case 'o':
			if p.IsReported {
				return ErrIsReported
			}
		case 'w':
			if p.AuthorHash != viewer.NameHash {
				return ErrNotAllowed
			}
		case 'd':
			if p.RoomID == protectedRoomID {
				return ErrNotAllowed
			}
		}
	}
	return nil
}

func checkCommentPermission(c *models.Comment, viewer *relations.Viewer, mode string) error {
	if viewer.IsAdmin {
		return nil
	}
	for _, m := range mode {
		switch m {
		case 'r':
			if c.IsDeleted {
				return ErrIsDeleted
			}
		case 'w':
			if c.AuthorHash != viewer.NameHash {
				return ErrNotAllowed
			}
		}
	}
	return nil
}

// protectedRoomID is the archive room; authors cannot retract what they
// posted there.
const protectedRoomID = 42

// CanDelete reports whether the viewer may retract the post, same rule the
// deletion path enforces.
func CanDelete(p *models.Post, viewer *relations.Viewer) bool {
	return checkPermission(p, viewer, "wd") == nil
}
