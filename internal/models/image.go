package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type ImageStatus string

const (
	StatusPending  ImageStatus = "pending"
	StatusApproved ImageStatus = "approved"
	StatusRejected ImageStatus = "rejected"
)

const (
	MaxCaptionLength = 500
	MaxBatchImages   = 2
)

func ParseImageStatus(s string) (ImageStatus, error) {
	switch ImageStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return ImageStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown image status %q", ErrValidation, s)
}

func (s ImageStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Transition validates a moderation step. Only pending images can move, and only
// to a terminal status; nothing ever moves back to pending.
func (s ImageStatus) Transition(to ImageStatus) error {
	if s != StatusPending {
		return fmt.Errorf("%w: image is already %s", ErrStateConflict, s)
	}
	if !to.IsTerminal() {
		return fmt.Errorf("%w: cannot move image from %s to %s", ErrStateConflict, s, to)
	}
	return nil
}

type SubmittedImage struct {
	bun.BaseModel `bun:"table:user_images"`

	ID        string      `bun:"id,pk" json:"id"`
	UserID    string      `bun:"user_id,notnull" json:"user_id"`
	EventID   *string     `bun:"event_id" json:"event_id"`
	ImageURL  string      `bun:"image_url,notnull" json:"image_url"`
	Caption   string      `bun:"caption" json:"caption"`
	Status    ImageStatus `bun:"status,notnull,default:'pending'" json:"status"`
	CreatedAt time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Event *Event   `bun:"rel:belongs-to,join:event_id=id" json:"-"`
	Owner *Profile `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}

type SubmitImageRequest struct {
	ImageURL string `json:"image_url" validate:"required,http_url"`
	Caption  string `json:"caption" validate:"max=500"`
	EventID  string `json:"event_id" validate:"omitempty,uuid"`
}

// BatchSubmitRequest carries the form fields shared by every file of a batch.
type BatchSubmitRequest struct {
	Caption string `validate:"max=500"`
	EventID string `validate:"omitempty,uuid"`
}

// Upload is one file of a multi-image submission, already read into memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ImageView struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	OwnerName  string      `json:"owner_name,omitempty"`
	EventID    *string     `json:"event_id"`
	EventTitle string      `json:"event_title,omitempty"`
	EventDate  string      `json:"event_date,omitempty"`
	ImageURL   string      `json:"image_url"`
	Caption    string      `json:"caption"`
	Status     ImageStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

func NewImageView(img SubmittedImage) ImageView {
	view := ImageView{
		ID:        img.ID,
		UserID:    img.UserID,
		EventID:   img.EventID,
		ImageURL:  img.ImageURL,
		Caption:   img.Caption,
		Status:    img.Status,
		CreatedAt: img.CreatedAt,
	}
	if img.Owner != nil {
		view.OwnerName = img.Owner.FullName
	}
	if img.Event != nil {
		view.EventTitle = img.Event.Title
		view.EventDate = img.Event.Date.UTC().Format(EventDateLayout)
	}
	return view
}

type GalleryImage struct {
	ImageView
	LikeCount int  `json:"like_count"`
	IsLiked   bool `json:"is_liked"`
}
