package events_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-gallery/internal/events"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
)

type MockEventDB struct {
	mock.Mock
}

func (m *MockEventDB) ListEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventDB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventDB) CreateEvent(ctx context.Context, event *models.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventDB) UpdateEvent(ctx context.Context, event *models.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventDB) DeleteEvent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockObjectStore) KeyFromURL(rawURL string) (string, bool) {
	const prefix = "http://storage.local/user-images/"
	if strings.HasPrefix(rawURL, prefix) {
		return strings.TrimPrefix(rawURL, prefix), true
	}
	return "", false
}

type recordingPublisher struct {
	events []models.GalleryEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.GalleryEvent) error {
	p.events = append(p.events, event)
	return nil
}

var admin = &models.AdminSession{ID: "session-1", Username: "admin"}

func newService(db *MockEventDB, store *MockObjectStore, pub *recordingPublisher) *events.EventService {
	svc := events.NewEventService(db, store, pub, logger.NewNopLogger())
	svc.Now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 3)), imaging.PNG))
	return buf.Bytes()
}

func mustDate(s string) time.Time {
	d, _ := time.Parse(models.EventDateLayout, s)
	return d
}

func TestListEventsLabelsStatus(t *testing.T) {
	db := new(MockEventDB)
	svc := newService(db, new(MockObjectStore), &recordingPublisher{})

	db.On("ListEvents", mock.Anything).Return([]models.Event{
		{ID: "e1", Title: "Meetup", Date: mustDate("2025-06-01"), Location: "Hall"},
		{ID: "e2", Title: "Old", Date: mustDate("2025-04-01"), Location: "Hall"},
		{ID: "e3", Title: "Today", Date: mustDate("2025-05-01"), Location: "Hall"},
	}, nil)

	views, err := svc.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, models.EventStatusUpcoming, views[0].Status)
	assert.Equal(t, models.EventStatusPast, views[1].Status)
	assert.Equal(t, models.EventStatusPast, views[2].Status)
}

func TestCreateEventRequiresAdmin(t *testing.T) {
	db := new(MockEventDB)
	svc := newService(db, new(MockObjectStore), &recordingPublisher{})

	_, err := svc.CreateEvent(context.Background(), nil, models.EventRequest{Title: "x", Date: "2025-06-01", Location: "y"}, nil)
	assert.ErrorIs(t, err, models.ErrForbidden)
	db.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestCreateEventValidation(t *testing.T) {
	db := new(MockEventDB)
	svc := newService(db, new(MockObjectStore), &recordingPublisher{})

	for _, req := range []models.EventRequest{
		{Date: "2025-06-01", Location: "Hall"},
		{Title: "Meetup", Date: "06/01/2025", Location: "Hall"},
		{Title: "Meetup", Date: "2025-06-01"},
	} {
		_, err := svc.CreateEvent(context.Background(), admin, req, nil)
		assert.ErrorIs(t, err, models.ErrValidation)
	}
	db.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestCreateEventWithCoverUpload(t *testing.T) {
	db := new(MockEventDB)
	store := new(MockObjectStore)
	pub := &recordingPublisher{}
	svc := newService(db, store, pub)

	store.On("Upload", mock.Anything, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64"), "image/png").
		Return("http://storage.local/user-images/cover.png", nil)
	db.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e *models.Event) bool {
		return e.CreatedBy == models.AdminIdentityID && e.ImageURL == "http://storage.local/user-images/cover.png"
	})).Return(nil)

	view, err := svc.CreateEvent(context.Background(), admin,
		models.EventRequest{Title: "Meetup", Date: "2025-06-01", Location: "Hall", ImageURL: "https://example.com/ignored.jpg"},
		&models.Upload{Filename: "cover.png", Data: pngBytes(t)})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", view.Date)
	assert.Equal(t, models.EventStatusUpcoming, view.Status)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "created", pub.events[0].Action)
}

func TestCreateEventBucketMissing(t *testing.T) {
	db := new(MockEventDB)
	store := new(MockObjectStore)
	svc := newService(db, store, &recordingPublisher{})

	store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", fmt.Errorf("upload: %w", models.ErrBucketNotFound))

	_, err := svc.CreateEvent(context.Background(), admin,
		models.EventRequest{Title: "Meetup", Date: "2025-06-01", Location: "Hall"},
		&models.Upload{Filename: "cover.png", Data: pngBytes(t)})
	assert.ErrorIs(t, err, models.ErrBucketNotFound)
	db.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestCreateEventRemovesCoverWhenInsertFails(t *testing.T) {
	db := new(MockEventDB)
	store := new(MockObjectStore)
	svc := newService(db, store, &recordingPublisher{})

	var uploadedKey string
	store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { uploadedKey = args.String(1) }).
		Return("http://storage.local/user-images/k.png", nil)
	store.On("Remove", mock.Anything, mock.Anything).Return(nil)
	db.On("CreateEvent", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.CreateEvent(context.Background(), admin,
		models.EventRequest{Title: "Meetup", Date: "2025-06-01", Location: "Hall"},
		&models.Upload{Filename: "cover.png", Data: pngBytes(t)})
	require.Error(t, err)
	store.AssertCalled(t, "Remove", mock.Anything, uploadedKey)
}

func TestUpdateEventReplacesManagedCover(t *testing.T) {
	db := new(MockEventDB)
	store := new(MockObjectStore)
	svc := newService(db, store, &recordingPublisher{})

	db.On("GetEventByID", mock.Anything, "e1").Return(&models.Event{
		ID: "e1", Title: "Meetup", Date: mustDate("2025-06-01"), Location: "Hall",
		ImageURL: "http://storage.local/user-images/old.png",
	}, nil)
	db.On("UpdateEvent", mock.Anything, mock.Anything).Return(nil)
	store.On("Remove", mock.Anything, "old.png").Return(nil)

	view, err := svc.UpdateEvent(context.Background(), admin, "e1",
		models.EventRequest{Title: "Renamed", Date: "2025-07-01", Location: "Hall", ImageURL: "https://example.com/new.jpg"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Title)
	assert.Equal(t, "https://example.com/new.jpg", view.ImageURL)
	store.AssertExpectations(t)
}

func TestUpdateEventClearImageRemovesCover(t *testing.T) {
	db := new(MockEventDB)
	store := new(MockObjectStore)
	svc := newService(db, store, &recordingPublisher{})

	db.On("GetEventByID", mock.Anything, "e1").Return(&models.Event{
		ID: "e1", Title: "Meetup", Date: mustDate("2025-06-01"), Location: "Hall",
		ImageURL: "http://storage.local/user-images/old.png",
	}, nil)
	db.On("UpdateEvent", mock.Anything, mock.MatchedBy(func(e *models.Event) bool {
		return e.ImageURL == ""
	})).Return(nil)
	store.On("Remove", mock.Anything, "old.png").Return(nil)

	view, err := svc.UpdateEvent(context.Background(), admin, "e1",
		models.EventRequest{Title: "Meetup", Date: "2025-06-01", Location: "Hall", ClearImage: true}, nil)
	require.NoError(t, err)
	assert.Empty(t, view.ImageURL)
	db.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestUpdateEventWithoutImageKeepsCover(t *testing.T) {
	db := new(MockEventDB)
	store := new(MockObjectStore)
	svc := newService(db, store, &recordingPublisher{})

	db.On("GetEventByID", mock.Anything, "e1").Return(&models.Event{
		ID: "e1", Title: "Meetup", Date: mustDate("2025-06-01"), Location: "Hall",
		ImageURL: "http://storage.local/user-images/old.png",
	}, nil)
	db.On("UpdateEvent", mock.Anything, mock.Anything).Return(nil)

	view, err := svc.UpdateEvent(context.Background(), admin, "e1",
		models.EventRequest{Title: "Renamed", Date: "2025-06-01", Location: "Hall"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://storage.local/user-images/old.png", view.ImageURL)
	store.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestDeleteEventIgnoresObjectFailure(t *testing.T) {
	db := new(MockEventDB)
	store := new(MockObjectStore)
	pub := &recordingPublisher{}
	svc := newService(db, store, pub)

	db.On("GetEventByID", mock.Anything, "e1").Return(&models.Event{ID: "e1", ImageURL: "http://storage.local/user-images/c.png"}, nil)
	db.On("DeleteEvent", mock.Anything, "e1").Return(nil)
	store.On("Remove", mock.Anything, "c.png").Return(errors.New("storage down"))

	require.NoError(t, svc.DeleteEvent(context.Background(), admin, "e1"))
	db.AssertExpectations(t)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "deleted", pub.events[0].Action)
}

func TestDeleteEventNotFound(t *testing.T) {
	db := new(MockEventDB)
	svc := newService(db, new(MockObjectStore), &recordingPublisher{})

	db.On("GetEventByID", mock.Anything, "missing").Return(nil, models.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteEvent(context.Background(), admin, "missing"), models.ErrNotFound)
	db.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything)
}
