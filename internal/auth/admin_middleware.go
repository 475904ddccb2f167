package auth

import (
	"context"
	"fmt"
	"net/http"

	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

type AdminVerifier interface {
	Verify(ctx context.Context, rawToken string) (*models.AdminSession, error)
}

// AdminMiddleware rejects requests without a valid admin session before any handler runs.
func AdminMiddleware(gate AdminVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				log.LogSecurity("ADMIN_DENIED", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				utils.WriteError(w, "Admin session required", fmt.Errorf("%w: %v", models.ErrForbidden, err))
				return
			}

			session, err := gate.Verify(r.Context(), rawToken)
			if err != nil {
				log.LogSecurity("ADMIN_DENIED", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				utils.WriteError(w, "Admin session required", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdminSession(r.Context(), session)))
		})
	}
}
