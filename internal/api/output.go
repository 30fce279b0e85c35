package api

import (
	"context"

	"github.com/warrenhq/warren/internal/forum"
	"github.com/warrenhq/warren/internal/models"
	"github.com/warrenhq/warren/internal/relations"
)

// inlineCommentLimit is the comment count up to which a post list embeds
// the full comment thread instead of requiring a separate fetch.
const inlineCommentLimit = 5

// PostOutput is the wire shape of a post. Fields only admins may see are
// pointers so they marshal as null for everyone else.
type PostOutput struct {
	PID             int64            `json:"pid"`
	RoomID          int64            `json:"room_id"`
	Text            string           `json:"text"`
	CW              string           `json:"cw,omitempty"`
	AuthorTitle     string           `json:"author_title,omitempty"`
	IsTmp           bool             `json:"is_tmp"`
	NAttentions     int64            `json:"n_attentions"`
	NComments       int64            `json:"n_comments"`
	CreateTime      int64            `json:"create_time"`
	LastCommentTime int64            `json:"last_comment_time"`
	AllowSearch     bool             `json:"allow_search"`
	IsReported      *bool            `json:"is_reported,omitempty"`
	Comments        []CommentOutput  `json:"comments,omitempty"`
	CanDel          bool             `json:"can_del"`
	Attention       bool             `json:"attention"`
	HotScore        *int64           `json:"hot_score,omitempty"`
	IsBlocked       bool             `json:"is_blocked"`
	UpVotes         int64            `json:"up_votes"`
	DownVotes       int64            `json:"down_votes"`
	Poll            *forum.PollState `json:"poll,omitempty"`
}

// CommentOutput is the wire shape of one comment. NameID is a per-thread
// alias: the post author is 0, every further distinct commenter gets the
// next integer, stable across renders because comments keep id order.
type CommentOutput struct {
	CID         int64  `json:"cid"`
	Text        string `json:"text"`
	AuthorTitle string `json:"author_title"`
	CanDel      bool   `json:"can_del"`
	NameID      int64  `json:"name_id"`
	IsTmp       bool   `json:"is_tmp"`
	CreateTime  int64  `json:"create_time"`
	IsBlocked   bool   `json:"is_blocked"`
}

// canView decides whether the text of a piece of content is shown to the
// viewer: admins always, authors always, otherwise registered users who
// have not blocked the author.
func canView(a *forum.Actor, authorHash string, isBlocked bool) bool {
	if a.IsAdmin || a.NameHash == authorHash {
		return true
	}
	return !isBlocked && a.UserID != nil
}

// postToOutput renders one post for an actor. Threads short enough are
// embedded whole; the block dictionary is computed once over the post
// author plus every inline commenter.
func (r *Router) postToOutput(ctx context.Context, a *forum.Actor, p *models.Post) (*PostOutput, error) {
	var comments []models.Comment
	if p.NComments < inlineCommentLimit {
		var err error
		comments, err = r.service.GetComments(ctx, p)
		if err != nil {
			return nil, err
		}
	}

	hashes := make([]string, 0, len(comments)+1)
	hashes = append(hashes, p.AuthorHash)
	for i := range comments {
		hashes = append(hashes, comments[i].AuthorHash)
	}
	blockDict, err := r.service.BlockDict(ctx, a.Viewer, p.ID, hashes)
	if err != nil {
		return nil, err
	}

	isBlocked := blockDict[p.AuthorHash]
	view := canView(a, p.AuthorHash, isBlocked)

	out := &PostOutput{
		PID:             p.ID,
		RoomID:          p.RoomID,
		CW:              p.CW,
		AuthorTitle:     p.AuthorTitle,
		IsTmp:           p.IsTmp,
		NAttentions:     p.NAttentions,
		NComments:       p.NComments,
		CreateTime:      p.CreateTime.Unix(),
		LastCommentTime: p.LastCommentTime.Unix(),
		AllowSearch:     p.AllowSearch,
		CanDel:          forum.CanDelete(p, a.Viewer),
		IsBlocked:       isBlocked,
		UpVotes:         p.UpVotes,
		DownVotes:       p.DownVotes,
	}
	if view {
		out.Text = p.Content
		poll, err := r.service.GetPoll(ctx, a, p.ID)
		if err != nil {
			return nil, err
		}
		out.Poll = poll
	}
	if a.IsAdmin {
		reported := p.IsReported
		hot := p.HotScore
		out.IsReported = &reported
		out.HotScore = &hot
	}

	attending, err := relations.NewAttention(a.NameHash, r.service.Cache().Client()).Has(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	out.Attention = attending

	if comments != nil {
		out.Comments = commentsToOutput(a, p, comments, blockDict)
	}
	return out, nil
}

func (r *Router) postsToOutput(ctx context.Context, a *forum.Actor, ps []*models.Post) ([]*PostOutput, error) {
	outs := make([]*PostOutput, 0, len(ps))
	for _, p := range ps {
		out, err := r.postToOutput(ctx, a, p)
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// commentsToOutput renders a thread. Deleted comments are skipped but
// still consume their author's name alias so numbering never shifts.
func commentsToOutput(a *forum.Actor, p *models.Post, cs []models.Comment, blockDict map[string]bool) []CommentOutput {
	hashToID := map[string]int64{p.AuthorHash: 0}
	outs := make([]CommentOutput, 0, len(cs))
	for i := range cs {
		c := &cs[i]
		nameID, ok := hashToID[c.AuthorHash]
		if !ok {
			nameID = int64(len(hashToID))
			hashToID[c.AuthorHash] = nameID
		}
		if c.IsDeleted {
			continue
		}
		isBlocked := blockDict[c.AuthorHash]
		text := ""
		if canView(a, c.AuthorHash, isBlocked) {
			text = c.Content
		}
		outs = append(outs, CommentOutput{
			CID:         c.ID,
			Text:        text,
			AuthorTitle: c.AuthorTitle,
			CanDel:      a.IsAdmin || c.AuthorHash == a.NameHash,
			NameID:      nameID,
			IsTmp:       c.IsTmp,
			CreateTime:  c.CreateTime.Unix(),
			IsBlocked:   isBlocked,
		})
	}
	return outs
}
