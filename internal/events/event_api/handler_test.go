package event_api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-gallery/internal/auth"
	"ms-gallery/internal/events"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

type memoryEvents struct {
	events  map[string]*models.Event
	lookups int
}

func (m *memoryEvents) ListEvents(ctx context.Context) ([]models.Event, error) {
	out := make([]models.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memoryEvents) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	m.lookups++
	if e, ok := m.events[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, models.ErrNotFound
}

func (m *memoryEvents) CreateEvent(ctx context.Context, event *models.Event) error {
	m.events[event.ID] = event
	return nil
}

func (m *memoryEvents) UpdateEvent(ctx context.Context, event *models.Event) error {
	m.events[event.ID] = event
	return nil
}

func (m *memoryEvents) DeleteEvent(ctx context.Context, id string) error {
	delete(m.events, id)
	return nil
}

func newRouter(store *memoryEvents) http.Handler {
	svc := events.NewEventService(store, nil, nil, logger.NewNopLogger())
	svc.Now = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }
	h := NewHandler(svc, 1<<20)

	withAdmin := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Test-Admin") == "1" {
				r = r.WithContext(auth.WithAdminSession(r.Context(), &models.AdminSession{ID: "s1", Username: "admin"}))
			}
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewRouter()
	r.Get("/api/events", h.ListEvents)
	r.Get("/api/events/{eventId}", h.GetEvent)
	r.Get("/api/events/{eventId}/qr", h.EventQR)
	r.With(withAdmin).Post("/api/admin/events", h.CreateEvent)
	r.With(withAdmin).Put("/api/admin/events/{eventId}", h.UpdateEvent)
	r.With(withAdmin).Delete("/api/admin/events/{eventId}", h.DeleteEvent)
	return r
}

func TestCreateAndFetchEvent(t *testing.T) {
	store := &memoryEvents{events: map[string]*models.Event{}}
	router := newRouter(store)

	body, _ := json.Marshal(models.EventRequest{Title: "Meetup", Date: "2025-06-01", Location: "Hall"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Admin", "1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data models.EventView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.EventStatusUpcoming, created.Data.Status)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/"+created.Data.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateEventWithoutAdminIsForbidden(t *testing.T) {
	store := &memoryEvents{events: map[string]*models.Event{}}
	router := newRouter(store)

	body, _ := json.Marshal(models.EventRequest{Title: "Meetup", Date: "2025-06-01", Location: "Hall"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/events", bytes.NewReader(body)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, store.events)
}

func TestCreateEventRejectsBadJSON(t *testing.T) {
	router := newRouter(&memoryEvents{events: map[string]*models.Event{}})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/events", bytes.NewBufferString("{"))
	req.Header.Set("X-Test-Admin", "1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestGetMissingEvent(t *testing.T) {
	router := newRouter(&memoryEvents{events: map[string]*models.Event{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/"+utils.NewID(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedEventIDIsNotFound(t *testing.T) {
	store := &memoryEvents{events: map[string]*models.Event{}}
	router := newRouter(store)
	body := `{"title":"Open day","date":"2026-05-01","location":"Hall A"}`

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/events/abc"},
		{http.MethodGet, "/api/events/abc/qr"},
		{http.MethodPut, "/api/admin/events/abc"},
		{http.MethodDelete, "/api/admin/events/abc"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(body))
			req.Header.Set("X-Test-Admin", "1")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
	assert.Zero(t, store.lookups)
}

func TestDecodeEventRequestReadsClearImage(t *testing.T) {
	h := NewHandler(nil, 1<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Open day"))
	require.NoError(t, mw.WriteField("date", "2026-05-01"))
	require.NoError(t, mw.WriteField("location", "Hall A"))
	require.NoError(t, mw.WriteField("clear_image", "true"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/admin/events/x", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	got, cover, err := h.decodeEventRequest(req)
	require.NoError(t, err)
	assert.Nil(t, cover)
	assert.True(t, got.ClearImage)

	req = httptest.NewRequest(http.MethodPut, "/api/admin/events/x", bytes.NewBufferString(`{"title":"Open day","clear_image":true}`))
	got, _, err = h.decodeEventRequest(req)
	require.NoError(t, err)
	assert.True(t, got.ClearImage)
}
