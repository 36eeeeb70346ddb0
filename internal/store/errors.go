package store

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnknownRole        = errors.New("unknown role")
	ErrSessionNotFound    = errors.New("session not found")
	ErrProfileNotFound    = errors.New("profile not found")
)
