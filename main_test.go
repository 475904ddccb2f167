package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analytics_api "ms-gallery/internal/analytics/api"
	"ms-gallery/internal/auth"
	"ms-gallery/internal/auth/auth_api"
	"ms-gallery/internal/config"
	"ms-gallery/internal/events/event_api"
	"ms-gallery/internal/images/image_api"
	"ms-gallery/internal/likes/like_api"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/metrics"
	"ms-gallery/internal/models"
	"ms-gallery/internal/sse"
)

type rejectAllUsers struct{}

func (rejectAllUsers) Verify(ctx context.Context, rawToken string) (*models.Identity, error) {
	return nil, errors.New("no users in this test")
}

func newTestRouter(t *testing.T) (http.Handler, *auth.AdminGate) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gate, err := auth.NewAdminGate(config.AdminConfig{
		Username:      "admin",
		Password:      "admin123",
		SessionSecret: "router-test-secret",
	}, auth.NewRedisSessionStore(client))
	require.NoError(t, err)

	log := logger.NewNopLogger()
	router := newRouter(routerDeps{
		Logger:         log,
		Metrics:        metrics.NewMetrics(),
		AllowedOrigins: []string{"http://localhost:3000"},
		Users:          rejectAllUsers{},
		Admin:          gate,
		Auth:           auth_api.NewHandler(nil, gate, nil, log),
		Events:         event_api.NewHandler(nil, 1<<20),
		Images:         image_api.NewHandler(nil, 1<<20),
		Likes:          like_api.NewHandler(nil),
		Analytics:      analytics_api.NewHandler(nil, log),
		Feed:           sse.NewHandler(sse.NewModerationFeed(), log),
	})
	return router, gate
}

func TestRouterGuards(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"admin list without session", http.MethodGet, "/api/admin/images", http.StatusForbidden},
		{"approve without session", http.MethodPost, "/api/admin/images/img-1/approve", http.StatusForbidden},
		{"stats without session", http.MethodGet, "/api/admin/stats", http.StatusForbidden},
		{"feed without session", http.MethodGet, "/api/admin/feed", http.StatusForbidden},
		{"own submissions without session", http.MethodGet, "/api/images/mine", http.StatusUnauthorized},
		{"guest like is inert", http.MethodPost, "/api/images/7d9e2f4a-1b3c-4e5f-8a6b-0c1d2e3f4a5b/like", http.StatusOK},
		{"guest like on malformed id", http.MethodPost, "/api/images/img-1/like", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

type recordingPublisher struct {
	events []models.GalleryEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.GalleryEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func TestFanoutReachesEveryPublisher(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("broker down")}
	healthy := &recordingPublisher{}

	err := fanout{failing, healthy}.Publish(context.Background(), models.GalleryEvent{Type: models.GalleryEventImageDeleted})
	assert.EqualError(t, err, "broker down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, healthy.events, 1)
}

func TestRouterAdminLoginThenLogout(t *testing.T) {
	router, gate := newTestRouter(t)

	session, err := gate.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the revoked token no longer opens admin routes
	req = httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterLoginRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/login",
		strings.NewReader(`{"username":"admin","password":"admin123"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/login",
		strings.NewReader(`{"username":"admin","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
