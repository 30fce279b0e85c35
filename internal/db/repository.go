package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/warrenhq/warren/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FieldOp is one column mutation inside an atomic counter update: either an
// additive delta or an absolute set.
type FieldOp struct {
	Column string
	Delta  int64
	Set    interface{}
	isSet  bool
}

// Add returns an additive delta op for a counter column.
func Add(column string, delta int64) FieldOp {
	return FieldOp{Column: column, Delta: delta}
}

// Set returns an absolute-set op for a column.
func Set(column string, value interface{}) FieldOp {
	return FieldOp{Column: column, Set: value, isSet: true}
}

// counterColumns are clamped non-negative after every atomic update.
var counterColumns = []string{"n_attentions", "n_comments", "hot_score", "up_votes", "down_votes"}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID. Deleted posts are still returned; the
// caller decides visibility.
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetMulti retrieves multiple posts by id, excluding deleted ones. Order of
// the result is unspecified; callers re-order against their input.
func (r *PostRepository) GetMulti(ctx context.Context, ids []int64) ([]*models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []*models.Post
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// ApplyOps issues one atomic read-modify-write against a post row and
// returns the row as persisted immediately after the update. The caller
// must treat the returned post as authoritative and push it back into every
// cache the post appears in. Counter columns are clamped non-negative.
func (r *PostRepository) ApplyOps(ctx context.Context, id int64, ops ...FieldOp) (*models.Post, error) {
	if len(ops) == 0 {
		return r.GetByID(ctx, id)
	}

	values := make(map[string]interface{}, len(ops))
	for _, op := range ops {
		if op.isSet {
			values[op.Column] = op.Set
		} else {
			values[op.Column] = gorm.Expr(op.Column+" + ?", op.Delta)
		}
	}

	var post models.Post
	res := r.db.WithContext(ctx).
		Model(&post).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(values)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	if clampValues := clampNegative(&post); len(clampValues) > 0 {
		res = r.db.WithContext(ctx).
			Model(&post).
			Clauses(clause.Returning{}).
			Where("id = ?", id).
			Updates(clampValues)
		if res.Error != nil {
			return nil, res.Error
		}
	}

	return &post, nil
}

func clampNegative(p *models.Post) map[string]interface{} {
	values := make(map[string]interface{})
	for _, col := range counterColumns {
		var v int64
		switch col {
		case "n_attentions":
			v = p.NAttentions
		case "n_comments":
			v = p.NComments
		case "hot_score":
			v = p.HotScore
		case "up_votes":
			v = p.UpVotes
		case "down_votes":
			v = p.DownVotes
		}
		if v < 0 {
			values[col] = int64(0)
		}
	}
	return values
}

// ListPage runs the ranked page query directly against the store. room=nil
// selects across all rooms. includeDeleted is the admin view: deleted posts
// stay listed and reported posts are not suppressed.
func (r *PostRepository) ListPage(ctx context.Context, room *int64, mode int, offset, limit int64, includeDeleted bool) ([]*models.Post, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{})

	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
		if mode != models.OrderModeNewest {
			query = query.Where("is_reported = ?", false)
		}
	}
	if room != nil {
		query = query.Where("room_id = ?", *room)
	}

	switch mode {
	case models.OrderModeLastActivity:
		query = query.Where("n_comments > 0").Order("last_comment_time DESC")
	case models.OrderModeHot:
		query = query.Order("hot_score DESC")
	case models.OrderModeRandom:
		query = query.Order("RANDOM()")
	case models.OrderModeAttention:
		query = query.Order("n_attentions DESC")
	default:
		query = query.Order("id DESC")
	}

	var posts []*models.Post
	if err := query.Offset(int(offset)).Limit(int(limit)).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Search performs a text-pattern search over searchable posts.
func (r *PostRepository) Search(ctx context.Context, room *int64, mode int, keywords string, offset, limit int64) ([]*models.Post, error) {
	words := strings.Fields(keywords)
	if len(words) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("is_deleted = ? AND is_reported = ? AND allow_search = ?", false, false, true)
	if room != nil {
		query = query.Where("room_id = ?", *room)
	}
	for _, w := range words {
		query = query.Where("content LIKE ?", "%"+w+"%")
	}

	switch mode {
	case models.OrderModeHot:
		query = query.Order("hot_score DESC")
	case models.OrderModeAttention:
		query = query.Order("n_attentions DESC")
	default:
		query = query.Order("id DESC")
	}

	var posts []*models.Post
	if err := query.Offset(int(offset)).Limit(int(limit)).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// DecayHotScores multiplies every hot score above the floor by the decay
// factor in one bulk statement. Rows at or below the floor are untouched,
// so repeated decay converges to the floor and never goes negative.
func (r *PostRepository) DecayHotScores(ctx context.Context, factor float64, floor int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("hot_score > ?", floor).
		Update("hot_score", gorm.Expr("FLOOR(hot_score * ?)", factor))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// DistinctRooms lists every room id that has at least one post.
func (r *PostRepository) DistinctRooms(ctx context.Context) ([]int64, error) {
	var rooms []int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Distinct("room_id").
		Pluck("room_id", &rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// CommentRepository provides comment-related database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// ListByPost retrieves every comment of a post in id order, deleted ones
// included; rendering filters them so comment numbering stays stable.
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// SetDeleted soft-deletes a comment
func (r *CommentRepository) SetDeleted(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByToken retrieves a user by token
func (r *UserRepository) GetByToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Count returns the total number of registered users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
