package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ms-gallery/internal/config"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

type SessionStore interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type adminClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AdminGate checks the admin credential pair and issues signed, expiring session tokens.
type AdminGate struct {
	username     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	issuer       string
	sessions     SessionStore
	now          func() time.Time
}

func NewAdminGate(cfg config.AdminConfig, sessions SessionStore) (*AdminGate, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("admin session secret is not configured")
	}
	if cfg.Username == "" {
		return nil, errors.New("admin username is not configured")
	}

	hash := []byte(cfg.PasswordHash)
	if len(hash) == 0 {
		if cfg.Password == "" {
			return nil, errors.New("admin password hash is not configured")
		}
		generated, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
		hash = generated
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}

	return &AdminGate{
		username:     cfg.Username,
		passwordHash: hash,
		secret:       []byte(cfg.SessionSecret),
		ttl:          ttl,
		issuer:       cfg.SessionIssuer,
		sessions:     sessions,
		now:          time.Now,
	}, nil
}

func (g *AdminGate) Login(ctx context.Context, username, password string) (*models.AdminSession, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return nil, models.ErrInvalidCredentials
	}

	now := g.now()
	session := &models.AdminSession{
		ID:        utils.NewID(),
		Username:  g.username,
		ExpiresAt: now.Add(g.ttl).Truncate(time.Second),
	}

	claims := adminClaims{
		Username: g.username,
		Role:     models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   g.username,
			Issuer:    g.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign admin session: %w", err)
	}
	session.Token = token
	return session, nil
}

// Verify validates signature, issuer, expiry, role and revocation of an admin token.
func (g *AdminGate) Verify(ctx context.Context, rawToken string) (*models.AdminSession, error) {
	claims := &adminClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims,
		func(t *jwt.Token) (interface{}, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(g.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrForbidden, err)
	}
	if claims.Role != models.RoleAdmin || claims.ID == "" {
		return nil, fmt.Errorf("%w: token does not grant admin access", models.ErrForbidden)
	}

	if g.sessions != nil {
		revoked, err := g.sessions.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, fmt.Errorf("%w: session has been logged out", models.ErrForbidden)
		}
	}

	return &models.AdminSession{
		ID:        claims.ID,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (g *AdminGate) Logout(ctx context.Context, session *models.AdminSession) error {
	if session == nil {
		return models.ErrForbidden
	}
	if g.sessions == nil {
		return nil
	}
	return g.sessions.Revoke(ctx, session.ID, session.ExpiresAt)
}
