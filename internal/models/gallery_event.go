package models

import "time"

const (
	GalleryEventImageSubmitted = "image.submitted"
	GalleryEventImageModerated = "image.moderated"
	GalleryEventImageDeleted   = "image.deleted"
	GalleryEventLikeToggled    = "like.toggled"
	GalleryEventEventChanged   = "event.changed"
)

// GalleryEvent is the envelope published to the message bus.
type GalleryEvent struct {
	Type       string      `json:"type"`
	ImageID    string      `json:"image_id,omitempty"`
	EventID    string      `json:"event_id,omitempty"`
	UserID     string      `json:"user_id,omitempty"`
	Status     ImageStatus `json:"status,omitempty"`
	Action     string      `json:"action,omitempty"`
	LikeCount  *int        `json:"like_count,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}
