package models

import (
	"time"
)

// Post order modes for the ranked list caches and page queries.
const (
	OrderModeNewest       = 0 // descending id
	OrderModeLastActivity = 1 // descending last_comment_time, commented posts only
	OrderModeHot          = 2 // descending hot_score
	OrderModeRandom       = 3 // shuffled on every fill
	OrderModeAttention    = 4 // descending n_attentions
)

// OrderModes lists every ranked view a post can participate in.
var OrderModes = []int{
	OrderModeNewest,
	OrderModeLastActivity,
	OrderModeHot,
	OrderModeRandom,
	OrderModeAttention,
}

// Post represents a thread root. Posts are never hard-deleted: IsDeleted
// only flips a flag and the row stays addressable by id.
type Post struct {
	ID              int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	AuthorHash      string    `gorm:"type:varchar(64);not null;index;column:author_hash" json:"author_hash"`
	Content         string    `gorm:"type:text;not null;column:content" json:"content"`
	CW              string    `gorm:"type:varchar(97);not null;default:'';column:cw" json:"cw"`
	AuthorTitle     string    `gorm:"type:varchar(64);not null;default:'';column:author_title" json:"author_title"`
	IsTmp           bool      `gorm:"not null;default:false;column:is_tmp" json:"is_tmp"`
	NAttentions     int64     `gorm:"not null;default:0;column:n_attentions" json:"n_attentions"`
	NComments       int64     `gorm:"not null;default:0;column:n_comments" json:"n_comments"`
	CreateTime      time.Time `gorm:"not null;index;column:create_time" json:"create_time"`
	LastCommentTime time.Time `gorm:"not null;column:last_comment_time" json:"last_comment_time"`
	IsDeleted       bool      `gorm:"not null;default:false;column:is_deleted" json:"is_deleted"`
	IsReported      bool      `gorm:"not null;default:false;column:is_reported" json:"is_reported"`
	HotScore        int64     `gorm:"not null;default:0;index;column:hot_score" json:"hot_score"`
	AllowSearch     bool      `gorm:"not null;default:false;column:allow_search" json:"allow_search"`
	RoomID          int64     `gorm:"not null;default:0;index;column:room_id" json:"room_id"`
	UpVotes         int64     `gorm:"not null;default:0;column:up_votes" json:"up_votes"`
	DownVotes       int64     `gorm:"not null;default:0;column:down_votes" json:"down_votes"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}
