package models

import "time"

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminSession is a verified admin console session.
type AdminSession struct {
	ID        string    `json:"-"`
	Token     string    `json:"token,omitempty"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MagicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}
