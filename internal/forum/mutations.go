package forum

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/warrenhq/warren/internal/cache"
	"github.com/warrenhq/warren/internal/db"
	"github.com/warrenhq/warren/internal/hasher"
	"github.com/warrenhq/warren/internal/models"
	"github.com/warrenhq/warren/internal/relations"
	"github.com/warrenhq/warren/pkg/telemetry"
)

// Actor is a viewer performing a mutation. Title and IsTmp come from the
// session, not the durable store, so they ride alongside the Viewer.
type Actor struct {
	*relations.Viewer
	IsTmp bool
	Title string
}

// banReasonPrefix marks an admin deletion that also bans the author.
const banReasonPrefix = "!ban "

// refreshCache writes the post through to the object cache and replays it
// into every ranked view it can appear in, for its room and for the global
// room. Put handles eviction, so this one call keeps all views consistent
// after any mutation.
func (s *Service) refreshCache(ctx context.Context, p *models.Post) {
	s.postCache.SetMulti(ctx, []*models.Post{p})
	room := p.RoomID
	for _, mode := range models.OrderModes {
		cache.NewRankedList(&room, mode, s.cache, &s.cfg.Cache).Put(ctx, p)
		cache.NewRankedList(nil, mode, s.cache, &s.cfg.Cache).Put(ctx, p)
	}
}

// PublishInput carries the author-chosen fields of a new post.
type PublishInput struct {
	Content     string
	CW          string
	AllowSearch bool
	UseTitle    bool
	RoomID      int64
	PollOptions []string
}

// PublishPost creates a post. The author starts attending their own post,
// the way one attention on creation seeds the activity counters.
func (s *Service) PublishPost(ctx context.Context, actor *Actor, in PublishInput) (*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.PublishPost")
	defer span.End()

	now := time.Now()
	p := &models.Post{
		AuthorHash:      actor.NameHash,
		Content:         in.Content,
		CW:              in.CW,
		IsTmp:           actor.IsTmp,
		NAttentions:     1,
		CreateTime:      now,
		LastCommentTime: now,
		AllowSearch:     in.AllowSearch,
		RoomID:          in.RoomID,
	}
	if in.UseTitle {
		p.AuthorTitle = actor.Title
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	if err := relations.NewAttention(actor.NameHash, s.cache.Client()).Add(ctx, p.ID); err != nil {
		s.logger.Warn("seed attention failed", zap.Int64("pid", p.ID), zap.Error(err))
	}
	if len(in.PollOptions) > 0 {
		if err := relations.NewPollOptions(p.ID, s.cache.Client()).SetList(ctx, in.PollOptions); err != nil {
			return nil, fmt.Errorf("store poll options: %w", err)
		}
	}

	s.refreshCache(ctx, p)
	return p, nil
}

// EditCW replaces the content warning of the viewer's own post.
func (s *Service) EditCW(ctx context.Context, actor *Actor, postID int64, cw string) error {
	ctx, span := telemetry.StartSpan(ctx, "forum.EditCW")
	defer span.End()

	p, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := checkPermission(p, actor.Viewer, "rw"); err != nil {
		return err
	}
	updated, err := s.posts.ApplyOps(ctx, postID, db.Set("cw", cw))
	if err != nil {
		return fmt.Errorf("edit cw: %w", err)
	}
	s.refreshCache(ctx, updated)
	return nil
}

// AddComment appends a comment, bumps the activity counters and applies the
// hot-score policy: a first-time commenter counts as a fresh attention and
// heats the post more than a repeat one, and repeat comments stop heating
// once the comment count outruns the attention count.
func (s *Service) AddComment(ctx context.Context, actor *Actor, postID int64, content string, useTitle bool) (*models.Comment, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.AddComment")
	defer span.End()

	p, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := checkPermission(p, actor.Viewer, "ro"); err != nil {
		return nil, err
	}

	c := &models.Comment{
		AuthorHash: actor.NameHash,
		IsTmp:      actor.IsTmp,
		Content:    content,
		CreateTime: time.Now(),
		PostID:     postID,
	}
	if useTitle {
		c.AuthorTitle = actor.Title
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	att := relations.NewAttention(actor.NameHash, s.cache.Client())
	attending, err := att.Has(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check attention: %w", err)
	}

	ops := []db.FieldOp{
		db.Add("n_comments", 1),
		db.Set("last_comment_time", c.CreateTime),
	}
	if !attending {
		if err := att.Add(ctx, postID); err != nil {
			return nil, fmt.Errorf("add attention: %w", err)
		}
		ops = append(ops,
			db.Add("n_attentions", 1),
			db.Add("hot_score", s.cfg.Ranking.CommentAttendHotDelta))
	} else if p.NComments < s.cfg.Ranking.CommentAttentionRatio*p.NAttentions {
		ops = append(ops, db.Add("hot_score", s.cfg.Ranking.CommentHotDelta))
	}

	updated, err := s.posts.ApplyOps(ctx, postID, ops...)
	if err != nil {
		return nil, fmt.Errorf("bump comment counters: %w", err)
	}

	cache.NewCommentCache(postID, s.cache, &s.cfg.Cache).Clear(ctx)
	s.refreshCache(ctx, updated)
	return c, nil
}

// SetAttention toggles the viewer's attention on a post. Idempotent: the
// counters only move when the attention state actually changes.
func (s *Service) SetAttention(ctx context.Context, actor *Actor, postID int64, attend bool) (*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.SetAttention")
	defer span.End()

	p, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := checkPermission(p, actor.Viewer, "r"); err != nil {
		return nil, err
	}

	att := relations.NewAttention(actor.NameHash, s.cache.Client())
	attending, err := att.Has(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check attention: %w", err)
	}
	if attend == attending {
		return p, nil
	}

	var ops []db.FieldOp
	if attend {
		if err := att.Add(ctx, postID); err != nil {
			return nil, fmt.Errorf("add attention: %w", err)
		}
		ops = []db.FieldOp{
			db.Add("n_attentions", 1),
			db.Add("hot_score", s.cfg.Ranking.AttendHotDelta),
		}
	} else {
		if err := att.Remove(ctx, postID); err != nil {
			return nil, fmt.Errorf("remove attention: %w", err)
		}
		ops = []db.FieldOp{
			db.Add("n_attentions", -1),
			db.Add("hot_score", -s.cfg.Ranking.AttendHotDelta),
		}
	}

	updated, err := s.posts.ApplyOps(ctx, postID, ops...)
	if err != nil {
		return nil, fmt.Errorf("apply attention: %w", err)
	}
	s.refreshCache(ctx, updated)
	return updated, nil
}

// React records an up/down/neutral vote. The per-post membership sets make
// the operation idempotent; counters only move when the sets do.
func (s *Service) React(ctx context.Context, actor *Actor, postID int64, status int) (*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.React")
	defer span.End()

	if status < -1 || status > 1 {
		return nil, ErrInvalidRequest
	}
	p, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := checkPermission(p, actor.Viewer, "r"); err != nil {
		return nil, err
	}

	up := relations.NewReaction(postID, 1, s.cache.Client())
	down := relations.NewReaction(postID, -1, s.cache.Client())

	var ops []db.FieldOp
	move := func(delta int64, column string, changed bool) {
		if changed {
			ops = append(ops, db.Add(column, delta))
		}
	}
	switch status {
	case 1:
		added, err := up.Add(ctx, actor.NameHash)
		if err != nil {
			return nil, fmt.Errorf("record reaction: %w", err)
		}
		removed, err := down.Rem(ctx, actor.NameHash)
		if err != nil {
			return nil, fmt.Errorf("record reaction: %w", err)
		}
		move(1, "up_votes", added)
		move(-1, "down_votes", removed)
	case -1:
		added, err := down.Add(ctx, actor.NameHash)
		if err != nil {
			return nil, fmt.Errorf("record reaction: %w", err)
		}
		removed, err := up.Rem(ctx, actor.NameHash)
		if err != nil {
			return nil, fmt.Errorf("record reaction: %w", err)
		}
		move(1, "down_votes", added)
		move(-1, "up_votes", removed)
	default:
		upRemoved, err := up.Rem(ctx, actor.NameHash)
		if err != nil {
			return nil, fmt.Errorf("record reaction: %w", err)
		}
		downRemoved, err := down.Rem(ctx, actor.NameHash)
		if err != nil {
			return nil, fmt.Errorf("record reaction: %w", err)
		}
		move(-1, "up_votes", upRemoved)
		move(-1, "down_votes", downRemoved)
	}

	if len(ops) == 0 {
		return p, nil
	}
	updated, err := s.posts.ApplyOps(ctx, postID, ops...)
	if err != nil {
		return nil, fmt.Errorf("apply reaction: %w", err)
	}
	s.refreshCache(ctx, updated)
	return updated, nil
}

// PollState is the vote tally plus the acting viewer's own choice
// (-1 when they have not voted).
type PollState struct {
	Options []string `json:"answers"`
	Counts  []int64  `json:"votes"`
	Own     int      `json:"vote"`
}

// GetPoll reads the poll attached to a post, or nil when there is none.
func (s *Service) GetPoll(ctx context.Context, actor *Actor, postID int64) (*PollState, error) {
	options, err := relations.NewPollOptions(postID, s.cache.Client()).GetList(ctx)
	if err != nil {
		return nil, fmt.Errorf("read poll options: %w", err)
	}
	if len(options) == 0 {
		return nil, nil
	}

	st := &PollState{Options: options, Counts: make([]int64, len(options)), Own: -1}
	for i := range options {
		v := relations.NewPollVote(postID, i, s.cache.Client())
		n, err := v.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count poll votes: %w", err)
		}
		st.Counts[i] = n
		voted, err := v.Has(ctx, actor.NameHash)
		if err != nil {
			return nil, fmt.Errorf("check poll vote: %w", err)
		}
		if voted {
			st.Own = i
		}
	}
	return st, nil
}

// VotePoll casts a single irreversible vote on a post's poll.
func (s *Service) VotePoll(ctx context.Context, actor *Actor, postID int64, option int) (*PollState, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.VotePoll")
	defer span.End()

	if actor.IsTmp {
		return nil, ErrYouAreTmp
	}
	p, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := checkPermission(p, actor.Viewer, "ro"); err != nil {
		return nil, err
	}

	st, err := s.GetPoll(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNoPoll
	}
	if option < 0 || option >= len(st.Options) {
		return nil, ErrUnknownOption
	}
	if st.Own >= 0 {
		return nil, ErrAlreadyVoted
	}

	if err := relations.NewPollVote(postID, option, s.cache.Client()).Add(ctx, actor.NameHash); err != nil {
		return nil, fmt.Errorf("cast vote: %w", err)
	}
	st.Counts[option]++
	st.Own = option
	return st, nil
}

// DeletePost soft-deletes a post. Authors can retract their own posts
// outside the protected room; admins can delete anything and must give a
// reason, which lands in the public moderation log. An admin reason of the
// form "!ban <detail>" additionally bans and weights the author.
func (s *Service) DeletePost(ctx context.Context, actor *Actor, postID int64, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "forum.DeletePost")
	defer span.End()

	p, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := checkPermission(p, actor.Viewer, "rwd"); err != nil {
		return err
	}

	updated, err := s.posts.ApplyOps(ctx, postID, db.Set("is_deleted", true))
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	s.refreshCache(ctx, updated)

	if actor.IsAdmin && actor.NameHash != p.AuthorHash {
		if err := s.logAdminDelete(ctx, actor, p.AuthorHash, fmt.Sprintf("post #%d", postID), reason); err != nil {
			return err
		}
	}
	return nil
}

// DeleteComment soft-deletes a comment and backs its contribution out of
// the parent's counters.
func (s *Service) DeleteComment(ctx context.Context, actor *Actor, commentID int64, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "forum.DeleteComment")
	defer span.End()

	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("get comment %d: %w", commentID, err)
	}
	if c == nil {
		return ErrNotFound
	}
	if err := checkCommentPermission(c, actor.Viewer, "rw"); err != nil {
		return err
	}

	if err := s.comments.SetDeleted(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	updated, err := s.posts.ApplyOps(ctx, c.PostID,
		db.Add("n_comments", -1),
		db.Add("hot_score", -1))
	if err != nil {
		return fmt.Errorf("unwind comment counters: %w", err)
	}

	cache.NewCommentCache(c.PostID, s.cache, &s.cfg.Cache).Clear(ctx)
	s.refreshCache(ctx, updated)

	if actor.IsAdmin && actor.NameHash != c.AuthorHash {
		target := fmt.Sprintf("comment #%d on post #%d", commentID, c.PostID)
		if err := s.logAdminDelete(ctx, actor, c.AuthorHash, target, reason); err != nil {
			return err
		}
	}
	return nil
}

// logAdminDelete records an admin deletion and, for a "!ban" reason, bans
// the author and bumps their global block counter so auto-hiding kicks in
// for other viewers too.
func (s *Service) logAdminDelete(ctx context.Context, actor *Actor, authorHash, target, reason string) error {
	if reason == "" {
		return ErrNoReason
	}

	entry := &relations.Systemlog{
		UserHash:   actor.NameHash,
		ActionType: relations.LogAdminDelete,
		Target:     target,
		Detail:     reason,
		Time:       time.Now(),
	}
	if err := entry.Create(ctx, s.cache.Client()); err != nil {
		return fmt.Errorf("write systemlog: %w", err)
	}

	if strings.HasPrefix(reason, banReasonPrefix) {
		if err := relations.AddBannedUser(ctx, s.cache.Client(), authorHash); err != nil {
			return fmt.Errorf("ban author: %w", err)
		}
		if _, err := relations.IncrBlockCount(ctx, s.cache.Client(), authorHash); err != nil {
			return fmt.Errorf("bump block counter: %w", err)
		}
		ban := &relations.Systemlog{
			UserHash:   actor.NameHash,
			ActionType: relations.LogBan,
			Target:     hasher.Look(authorHash),
			Detail:     strings.TrimPrefix(reason, banReasonPrefix),
			Time:       time.Now(),
		}
		if err := ban.Create(ctx, s.cache.Client()); err != nil {
			return fmt.Errorf("write systemlog: %w", err)
		}
	}
	return nil
}

// Report flags a post for moderation. A reason is mandatory; the report is
// visible in the moderation log with the reporter's abbreviated hash.
func (s *Service) Report(ctx context.Context, actor *Actor, postID int64, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "forum.Report")
	defer span.End()

	if reason == "" {
		return ErrNoReason
	}
	p, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := checkPermission(p, actor.Viewer, "r"); err != nil {
		return err
	}

	updated, err := s.posts.ApplyOps(ctx, postID, db.Set("is_reported", true))
	if err != nil {
		return fmt.Errorf("report post: %w", err)
	}
	s.refreshCache(ctx, updated)

	entry := &relations.Systemlog{
		UserHash:   hasher.Look(actor.NameHash),
		ActionType: relations.LogReport,
		Target:     fmt.Sprintf("post #%d", postID),
		Detail:     reason,
		Time:       time.Now(),
	}
	if err := entry.Create(ctx, s.cache.Client()); err != nil {
		return fmt.Errorf("write systemlog: %w", err)
	}
	return nil
}

// SetTitle claims a display title for the viewer. Titles are unique; a
// taken one is rejected rather than reassigned.
func (s *Service) SetTitle(ctx context.Context, actor *Actor, title string) error {
	ctx, span := telemetry.StartSpan(ctx, "forum.SetTitle")
	defer span.End()

	if actor.IsTmp {
		return ErrYouAreTmp
	}
	ok, err := relations.SetCustomTitle(ctx, s.cache.Client(), actor.NameHash, title)
	if err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	if !ok {
		return ErrTitleUsed
	}
	return nil
}

// Block hides an author from the viewer and feeds the global auto-block
// counter. The viewer's memoized visibility dictionaries are dropped so
// the block takes effect on the next read.
func (s *Service) Block(ctx context.Context, actor *Actor, targetHash string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "forum.Block")
	defer span.End()

	if actor.UserID == nil {
		return 0, ErrNotAllowed
	}
	if err := relations.NewBlockedUsers(*actor.UserID, s.cache.Client()).Add(ctx, targetHash); err != nil {
		return 0, fmt.Errorf("block author: %w", err)
	}
	count, err := relations.IncrBlockCount(ctx, s.cache.Client(), targetHash)
	if err != nil {
		return 0, fmt.Errorf("bump block counter: %w", err)
	}
	if err := s.cache.DeletePattern(ctx, cache.BlockDictKeyPattern(actor.NameHash)); err != nil {
		s.logger.Warn("drop block dicts failed", zap.Error(err))
	}
	return count, nil
}

// ListSystemlog exposes the public moderation log.
func (s *Service) ListSystemlog(ctx context.Context, limit int64) ([]relations.Systemlog, error) {
	return relations.ListSystemlog(ctx, s.cache.Client(), limit)
}
