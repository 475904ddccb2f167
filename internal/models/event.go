package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EventStatusUpcoming = "Upcoming"
	EventStatusPast     = "Past Event"

	// AdminIdentityID is recorded as the creator of events made through the admin console.
	AdminIdentityID = "00000000-0000-0000-0000-000000000000"

	EventDateLayout = "2006-01-02"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description,nullzero" json:"description,omitempty"`
	Date        time.Time `bun:"date,type:date,notnull" json:"date"`
	Location    string    `bun:"location,notnull" json:"location"`
	ImageURL    string    `bun:"image_url,nullzero" json:"image_url,omitempty"`
	CreatedBy   string    `bun:"created_by,nullzero" json:"created_by,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Creator *Profile `bun:"rel:belongs-to,join:created_by=id" json:"-"`
}

// StatusLabel reports "Upcoming" while today is strictly before the event date.
func (e Event) StatusLabel(now time.Time) string {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	ey, em, ed := e.Date.UTC().Date()
	eventDay := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)

	if eventDay.After(today) {
		return EventStatusUpcoming
	}
	return EventStatusPast
}

type EventRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Location    string `json:"location" validate:"required,max=300"`
	ImageURL    string `json:"image_url" validate:"omitempty,http_url"`
	ClearImage  bool   `json:"clear_image"`
}

type EventView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatorName string    `json:"creator_name,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewEventView(e Event, now time.Time) EventView {
	view := EventView{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.UTC().Format(EventDateLayout),
		Location:    e.Location,
		ImageURL:    e.ImageURL,
		CreatedBy:   e.CreatedBy,
		Status:      e.StatusLabel(now),
		CreatedAt:   e.CreatedAt,
	}
	if e.Creator != nil {
		view.CreatorName = e.Creator.FullName
	}
	return view
}
