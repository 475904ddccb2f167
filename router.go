package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	analytics_api "ms-gallery/internal/analytics/api"
	"ms-gallery/internal/auth"
	"ms-gallery/internal/auth/auth_api"
	"ms-gallery/internal/events/event_api"
	"ms-gallery/internal/images/image_api"
	"ms-gallery/internal/likes/like_api"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/metrics"
	"ms-gallery/internal/sse"
)

type routerDeps struct {
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	Users          auth.TokenVerifier
	Admin          auth.AdminVerifier

	Auth      *auth_api.Handler
	Events    *event_api.Handler
	Images    *image_api.Handler
	Likes     *like_api.Handler
	Analytics *analytics_api.Handler
	Feed      *sse.Handler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(d.Metrics.Middleware)
	r.Use(d.Logger.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", d.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		r.Get("/events", d.Events.ListEvents)
		r.Get("/events/{eventId}", d.Events.GetEvent)
		r.Get("/events/{eventId}/qr", d.Events.EventQR)
		r.Post("/auth/magic-link", d.Auth.SendMagicLink)

		// Guests see the gallery and get an inert like toggle.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalMiddleware(d.Users))
			r.Get("/gallery", d.Images.Gallery)
			r.Post("/images/{imageId}/like", d.Likes.ToggleLike)
		})

		// --- User Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(d.Users))
			r.Get("/auth/me", d.Auth.Me)
			r.Post("/images", d.Images.SubmitImage)
			r.Post("/images/batch", d.Images.SubmitBatch)
			r.Get("/images/mine", d.Images.ListMine)
			r.Post("/likes/summary", d.Likes.Summary)
		})

		// --- Admin Routes ---
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", d.Auth.AdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(auth.AdminMiddleware(d.Admin, d.Logger))
				r.Post("/logout", d.Auth.AdminLogout)

				r.Route("/images", func(r chi.Router) {
					r.Get("/", d.Images.ListForAdmin)
					r.Post("/{imageId}/approve", d.Images.Approve)
					r.Post("/{imageId}/reject", d.Images.Reject)
					r.Delete("/{imageId}", d.Images.Delete)
				})

				r.Route("/events", func(r chi.Router) {
					r.Post("/", d.Events.CreateEvent)
					r.Put("/{eventId}", d.Events.UpdateEvent)
					r.Delete("/{eventId}", d.Events.DeleteEvent)
				})

				d.Analytics.RegisterRoutes(r)
				r.Get("/feed", d.Feed.Stream)
			})
		})
	})

	return r
}
