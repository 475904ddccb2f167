package image_api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-gallery/internal/auth"
	"ms-gallery/internal/images"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

// recordingDB fails the test if any store method is reached.
type recordingDB struct {
	images.DBLayer
	t *testing.T
}

func (r recordingDB) EventExists(ctx context.Context, eventID string) (bool, error) {
	r.t.Fatal("store must not be reached")
	return false, nil
}

func (r recordingDB) GetImageByID(ctx context.Context, id string) (*models.SubmittedImage, error) {
	r.t.Fatal("store must not be reached")
	return nil, nil
}

func newTestRouter(t *testing.T) http.Handler {
	svc := images.NewImageService(recordingDB{t: t}, nil, nil, nil, nil, nil, logger.NewNopLogger())
	h := NewHandler(svc, 1<<20)

	withUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(auth.WithIdentity(r.Context(), &models.Identity{UserID: "u1", Email: "ana@example.com"}))
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewRouter()
	r.With(withUser).Post("/api/images/batch", h.SubmitBatch)
	r.Get("/api/gallery", h.Gallery)
	r.Post("/api/admin/images/{imageId}/approve", h.Approve)
	r.Post("/api/admin/images/{imageId}/reject", h.Reject)
	r.Delete("/api/admin/images/{imageId}", h.Delete)
	return r
}

func TestSubmitBatchOverCapIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("x"))
	}
	require.NoError(t, mw.WriteField("caption", "hello"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images/batch", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Code)
	assert.Contains(t, resp.Error, "max 2 images")
}

func TestApproveWithoutAdminSessionIsForbidden(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/images/"+utils.NewID()+"/approve", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMalformedImageIDIsNotFound(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/admin/images/abc/approve"},
		{http.MethodPost, "/api/admin/images/abc/reject"},
		{http.MethodDelete, "/api/admin/images/abc"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req = req.WithContext(auth.WithAdminSession(req.Context(), &models.AdminSession{ID: "s1", Username: "admin"}))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestGalleryRejectsMalformedEventFilter(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/gallery?event_id=x", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Code)
}
