package models

import (
	"time"
)

// Comment represents a reply inside a post. Soft-deleted comments stay in
// the cached per-post list and are filtered at render time, so name numbers
// stay stable.
type Comment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	AuthorHash  string    `gorm:"type:varchar(64);not null;index;column:author_hash" json:"author_hash"`
	AuthorTitle string    `gorm:"type:varchar(64);not null;default:'';column:author_title" json:"author_title"`
	IsTmp       bool      `gorm:"not null;default:false;column:is_tmp" json:"is_tmp"`
	Content     string    `gorm:"type:text;not null;column:content" json:"content"`
	CreateTime  time.Time `gorm:"not null;column:create_time" json:"create_time"`
	IsDeleted   bool      `gorm:"not null;default:false;column:is_deleted" json:"is_deleted"`
	PostID      int64     `gorm:"not null;index;column:post_id" json:"post_id"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
