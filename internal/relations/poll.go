package relations

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

func pollOptionsKey(postID int64) string {
	return fmt.Sprintf("warren:poll_opts:%d", postID)
}

func pollVotesKey(postID int64, option int) string {
	return fmt.Sprintf("warren:poll_votes:%d:%d", postID, option)
}

// PollOptions is the ordered option list of one post's poll.
type PollOptions struct {
	key string
	rdb *redis.Client
}

// NewPollOptions creates the option-list handle for one post.
func NewPollOptions(postID int64, rdb *redis.Client) *PollOptions {
	return &PollOptions{key: pollOptionsKey(postID), rdb: rdb}
}

// SetList replaces the option list.
func (p *PollOptions) SetList(ctx context.Context, options []string) error {
	if err := p.rdb.Del(ctx, p.key).Err(); err != nil {
		return err
	}
	args := make([]interface{}, len(options))
	for i, o := range options {
		args[i] = o
	}
	return p.rdb.RPush(ctx, p.key, args...).Err()
}

// GetList reads the option list; empty when the post has no poll.
func (p *PollOptions) GetList(ctx context.Context) ([]string, error) {
	return p.rdb.LRange(ctx, p.key, 0, -1).Result()
}

// PollVote is the voter set of one (post, option) pair.
type PollVote struct {
	key string
	rdb *redis.Client
}

// NewPollVote creates the voter-set handle for one option.
func NewPollVote(postID int64, option int, rdb *redis.Client) *PollVote {
	return &PollVote{key: pollVotesKey(postID, option), rdb: rdb}
}

// Add records a vote.
func (p *PollVote) Add(ctx context.Context, namehash string) error {
	return p.rdb.SAdd(ctx, p.key, namehash).Err()
}

// Has reports whether the fingerprint voted this option.
func (p *PollVote) Has(ctx context.Context, namehash string) (bool, error) {
	return p.rdb.SIsMember(ctx, p.key, namehash).Result()
}

// Count returns the option's vote count.
func (p *PollVote) Count(ctx context.Context) (int64, error) {
	return p.rdb.SCard(ctx, p.key).Result()
}
