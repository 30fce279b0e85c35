package relations

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

func reactionKey(postID int64, status int) string {
	return fmt.Sprintf("warren:reaction:%d:%d", status, postID)
}

// Reaction is the voter set of one (post, up/down) pair. Add/Rem report
// whether membership actually changed, which is exactly the vote-tally
// delta the mutation flow needs.
type Reaction struct {
	key string
	rdb *redis.Client
}

// NewReaction creates the reaction-set handle; status is +1 or -1.
func NewReaction(postID int64, status int, rdb *redis.Client) *Reaction {
	return &Reaction{key: reactionKey(postID, status), rdb: rdb}
}

// Add inserts the fingerprint, reporting true if it was new.
func (r *Reaction) Add(ctx context.Context, namehash string) (bool, error) {
	n, err := r.rdb.SAdd(ctx, r.key, namehash).Result()
	return n > 0, err
}

// Rem removes the fingerprint, reporting true if it was present.
func (r *Reaction) Rem(ctx context.Context, namehash string) (bool, error) {
	n, err := r.rdb.SRem(ctx, r.key, namehash).Result()
	return n > 0, err
}
