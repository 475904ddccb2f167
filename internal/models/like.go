package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Like is unique per (image_id, user_id); the store's unique index enforces it.
type Like struct {
	bun.BaseModel `bun:"table:image_likes"`

	ID        string    `bun:"id,pk" json:"id"`
	ImageID   string    `bun:"image_id,notnull,unique:image_likes_image_user" json:"image_id"`
	UserID    string    `bun:"user_id,notnull,unique:image_likes_image_user" json:"user_id"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type LikeState struct {
	LikeCount int  `json:"like_count"`
	IsLiked   bool `json:"is_liked"`
}
