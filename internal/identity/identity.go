// Package identity presents the backend identity operations the client core
// consumes: current-session probe, session-change subscription, and the
// credential operations.
package identity

import (
	"context"

	"tidyhome/auth-service/internal/models"
	"tidyhome/auth-service/internal/store"
)

type SignInOptions struct {
	RememberMe bool
}

// Metadata travels with sign-up and lands on the profile row.
type Metadata struct {
	Role     string
	FullName string
}

// Service is the contract the session store and auth orchestrator bind to.
// One identity is tracked per service instance.
type Service interface {
	// CurrentSession returns the tracked session, or nil when signed out.
	CurrentSession(ctx context.Context) (*models.Session, error)

	// OnSessionChange registers a callback invoked with the new session
	// (nil on sign-out) after every session transition. The returned
	// function removes the subscription.
	OnSessionChange(fn func(*models.Session)) (unsubscribe func())

	SignInWithPassword(ctx context.Context, email, password string, opts SignInOptions) (store.SignInResult, error)
	SignUp(ctx context.Context, email, password string, meta Metadata) (store.SignInResult, error)
	SignOut(ctx context.Context) error
	UpdateUser(ctx context.Context, newPassword string) error
}
