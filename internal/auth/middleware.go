package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

// TokenVerifier turns a user session token into an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*models.Identity, error)
}

type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuer string) (*OIDCVerifier, error) {
	if issuer == "" {
		return nil, fmt.Errorf("OIDC issuer is not configured")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	// Verifier (SkipClientIDCheck → no client ID required)
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*models.Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token: %v", models.ErrUnauthorized, err)
	}

	var claims struct {
		Sub          string `json:"sub"`
		Email        string `json:"email"`
		Name         string `json:"name"`
		UserMetadata struct {
			FullName string `json:"full_name"`
		} `json:"user_metadata"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims", models.ErrUnauthorized)
	}
	if claims.Sub == "" {
		return nil, fmt.Errorf("%w: subject claim missing", models.ErrUnauthorized)
	}

	name := claims.UserMetadata.FullName
	if name == "" {
		name = claims.Name
	}
	return &models.Identity{UserID: claims.Sub, Email: claims.Email, FullName: name}, nil
}

// Middleware rejects requests without a valid user session.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, "Sign in required", fmt.Errorf("%w: %v", models.ErrUnauthorized, err))
				return
			}

			identity, err := verifier.Verify(r.Context(), rawToken)
			if err != nil {
				utils.WriteError(w, "Sign in required", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalMiddleware lets guests through; a token that is present must still be valid.
func OptionalMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, "Invalid session", fmt.Errorf("%w: %v", models.ErrUnauthorized, err))
				return
			}

			identity, err := verifier.Verify(r.Context(), rawToken)
			if err != nil {
				utils.WriteError(w, "Invalid session", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
