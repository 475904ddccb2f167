package events

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/storage"
	"ms-gallery/internal/utils"
)

type DBLayer interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	KeyFromURL(rawURL string) (string, bool)
}

type Publisher interface {
	Publish(ctx context.Context, event models.GalleryEvent) error
}

type EventService struct {
	DB        DBLayer
	Storage   ObjectStore
	Publisher Publisher
	QR        *QRGenerator
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewEventService(db DBLayer, store ObjectStore, publisher Publisher, log *logger.Logger) *EventService {
	return &EventService{DB: db, Storage: store, Publisher: publisher, Logger: log, Now: time.Now}
}

func (s *EventService) ListEvents(ctx context.Context) ([]models.EventView, error) {
	events, err := s.DB.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	now := s.Now()
	views := make([]models.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, models.NewEventView(e, now))
	}
	return views, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.EventView, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := models.NewEventView(*event, s.Now())
	return &view, nil
}

// CreateEvent stores a new event. A cover upload wins over req.ImageURL.
func (s *EventService) CreateEvent(ctx context.Context, admin *models.AdminSession, req models.EventRequest, cover *models.Upload) (*models.EventView, error) {
	if admin == nil {
		return nil, models.ErrForbidden
	}
	date, err := validateEvent(req)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		ID:          utils.NewID(),
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		CreatedBy:   models.AdminIdentityID,
		CreatedAt:   s.Now().UTC(),
	}

	uploadedKey, err := s.uploadCover(ctx, cover, event)
	if err != nil {
		return nil, err
	}

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		s.removeObject(ctx, uploadedKey)
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.Logger.Info("EVENT", fmt.Sprintf("Event %s created by %s", event.ID, admin.Username))
	s.publish(ctx, event.ID, "created")

	view := models.NewEventView(*event, s.Now())
	return &view, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, admin *models.AdminSession, id string, req models.EventRequest, cover *models.Upload) (*models.EventView, error) {
	if admin == nil {
		return nil, models.ErrForbidden
	}
	date, err := validateEvent(req)
	if err != nil {
		return nil, err
	}

	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousImage := event.ImageURL

	event.Title = req.Title
	event.Description = req.Description
	event.Date = date
	event.Location = req.Location
	switch {
	case req.ImageURL != "":
		event.ImageURL = req.ImageURL
	case req.ClearImage:
		event.ImageURL = ""
	}

	uploadedKey, err := s.uploadCover(ctx, cover, event)
	if err != nil {
		return nil, err
	}

	if err := s.DB.UpdateEvent(ctx, event); err != nil {
		s.removeObject(ctx, uploadedKey)
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	if previousImage != "" && previousImage != event.ImageURL {
		if key, ok := s.Storage.KeyFromURL(previousImage); ok {
			s.removeObject(ctx, key)
		}
	}

	s.Logger.Info("EVENT", fmt.Sprintf("Event %s updated by %s", event.ID, admin.Username))
	s.publish(ctx, event.ID, "updated")

	view := models.NewEventView(*event, s.Now())
	return &view, nil
}

// DeleteEvent removes the event and, best effort, its managed cover image.
func (s *EventService) DeleteEvent(ctx context.Context, admin *models.AdminSession, id string) error {
	if admin == nil {
		return models.ErrForbidden
	}

	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.DB.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if key, ok := s.Storage.KeyFromURL(event.ImageURL); ok {
		s.removeObject(ctx, key)
	}

	s.Logger.Info("EVENT", fmt.Sprintf("Event %s deleted by %s", id, admin.Username))
	s.publish(ctx, id, "deleted")
	return nil
}

func validateEvent(req models.EventRequest) (time.Time, error) {
	if err := utils.Validate(req); err != nil {
		return time.Time{}, err
	}
	return utils.ParseEventDate(req.Date)
}

// uploadCover stores the cover image, if any, and points the event at it.
func (s *EventService) uploadCover(ctx context.Context, cover *models.Upload, event *models.Event) (string, error) {
	if cover == nil {
		return "", nil
	}

	info, err := storage.InspectImage(cover.Data)
	if err != nil {
		return "", err
	}

	key := utils.GenerateObjectKey(cover.Filename)
	url, err := s.Storage.Upload(ctx, key, bytes.NewReader(cover.Data), int64(len(cover.Data)), info.ContentType)
	if err != nil {
		s.Logger.LogStorage("UPLOAD_FAILED", key, err.Error())
		return "", fmt.Errorf("failed to upload cover image: %w", err)
	}

	s.Logger.LogStorage("UPLOADED", key, fmt.Sprintf("%dx%d %s", info.Width, info.Height, info.ContentType))
	event.ImageURL = url
	return key, nil
}

func (s *EventService) removeObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.Storage.Remove(ctx, key); err != nil {
		s.Logger.LogStorage("REMOVE_FAILED", key, err.Error())
	}
}

func (s *EventService) publish(ctx context.Context, eventID, action string) {
	if s.Publisher == nil {
		return
	}
	err := s.Publisher.Publish(ctx, models.GalleryEvent{
		Type:       models.GalleryEventEventChanged,
		EventID:    eventID,
		Action:     action,
		OccurredAt: s.Now().UTC(),
	})
	if err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Event change for %s not published: %v", eventID, err))
	}
}
