package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-gallery/internal/models"
)

type fakeVerifier struct {
	tokens map[string]*models.Identity
}

func (f *fakeVerifier) Verify(ctx context.Context, rawToken string) (*models.Identity, error) {
	if identity, ok := f.tokens[rawToken]; ok {
		return identity, nil
	}
	return nil, models.ErrUnauthorized
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{tokens: map[string]*models.Identity{
		"good": {UserID: "user-1", Email: "ana@example.com", FullName: "Ana"},
	}}
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User", UserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareRequiresSession(t *testing.T) {
	handler := Middleware(newFakeVerifier())(echoUser())

	tests := []struct {
		name   string
		header string
		status int
		user   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer bad", http.StatusUnauthorized, ""},
		{"valid token", "Bearer good", http.StatusOK, "user-1"},
		{"lowercase scheme", "bearer good", http.StatusOK, "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/images/mine", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.user, rec.Header().Get("X-User"))
		})
	}
}

func TestOptionalMiddlewareAllowsGuests(t *testing.T) {
	handler := OptionalMiddleware(newFakeVerifier())(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))

	req = httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "user-1", rec.Header().Get("X-User"))

	req = httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
