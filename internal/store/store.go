package store

import (
	"context"
	"time"

	"tidyhome/auth-service/internal/models"
)

// Session lifetimes. A sign-in redeemed through a temporary credential is
// always bounded to TemporaryTTL regardless of the remember-me flag.
const (
	SessionTTL   = 12 * time.Hour
	RememberTTL  = 30 * 24 * time.Hour
	TemporaryTTL = 24 * time.Hour
)

type RegisterInput struct {
	Email    string
	Password string
	Role     string
	FullName string
}

type SignInInput struct {
	Email      string
	Password   string
	RememberMe bool
}

type SignInResult struct {
	Profile models.Profile
	Session models.Session
	// Temporary reports that the sign-in was satisfied by redeeming a
	// temporary credential rather than the account password.
	Temporary bool
}

type Store interface {
	// Register creates the credential record and the profile row as a
	// single transaction. A failure leaves neither behind.
	Register(ctx context.Context, input RegisterInput) (models.Profile, error)

	// SignIn authenticates by account password. When the password does not
	// match, an unused, unexpired temporary credential for an admin profile
	// with the same email is tried; redemption claims the credential
	// atomically, so a concurrent second redemption is rejected.
	SignIn(ctx context.Context, input SignInInput) (SignInResult, error)

	GetSession(ctx context.Context, sessionID string) (models.Session, models.Profile, error)
	CreateSession(ctx context.Context, profileID string, ttl time.Duration) (models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error

	GetProfile(ctx context.Context, profileID string) (models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (models.Profile, error)

	UpdatePassword(ctx context.Context, profileID, newPassword string) error
	IssueTemporaryCredential(ctx context.Context, profileID, tempPassword string, ttl time.Duration) (models.TemporaryCredential, error)
}
