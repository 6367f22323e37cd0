package models

import "time"

// CommentModel is a reader comment, owned by exactly one post.
type CommentModel struct {
	ID        string    `json:"id"        gorm:"type:char(24);primaryKey"`
	PostID    string    `json:"-"         gorm:"type:char(24);index;not null"`
	UserID    string    `json:"user"      gorm:"type:char(24);not null"`
	Content   string    `json:"content"   gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

func (CommentModel) TableName() string { return "post_comments" }
