package auth

import (
	"context"

	"ms-gallery/internal/models"
)

type contextKey string

const (
	identityKey     contextKey = "identity"
	adminSessionKey contextKey = "admin_session"
)

func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns the signed-in user, or nil for guests.
func IdentityFrom(ctx context.Context) *models.Identity {
	if identity, ok := ctx.Value(identityKey).(*models.Identity); ok {
		return identity
	}
	return nil
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) string {
	if identity := IdentityFrom(ctx); identity != nil {
		return identity.UserID
	}
	return ""
}

func WithAdminSession(ctx context.Context, session *models.AdminSession) context.Context {
	return context.WithValue(ctx, adminSessionKey, session)
}

func AdminSessionFrom(ctx context.Context) *models.AdminSession {
	if session, ok := ctx.Value(adminSessionKey).(*models.AdminSession); ok {
		return session
	}
	return nil
}
