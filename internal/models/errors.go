package models

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrStateConflict      = errors.New("state conflict")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("admin session required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrBucketNotFound     = errors.New("storage bucket not found")
	ErrToggleInFlight     = errors.New("like toggle already in progress")
)
