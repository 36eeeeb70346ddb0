package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"tidyhome/auth-service/internal/models"
	"tidyhome/auth-service/internal/store"
)

func TestRegisterThenSignIn(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	profile, err := s.Register(ctx, store.RegisterInput{
		Email:    "Anna@Example.com",
		Password: "Str0ng!Pass",
		Role:     models.RoleProvider,
		FullName: "Anna Kowalski",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if profile.Email != "anna@example.com" {
		t.Errorf("expected lowercased email, got %q", profile.Email)
	}

	result, err := s.SignIn(ctx, store.SignInInput{Email: "anna@example.com", Password: "Str0ng!Pass"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if result.Profile.Role != models.RoleProvider {
		t.Errorf("expected provider role, got %q", result.Profile.Role)
	}
	if result.Temporary {
		t.Error("password sign-in must not be temporary")
	}
	if !result.Session.ExpiresAt.After(time.Now().Add(store.SessionTTL - time.Minute)) {
		t.Error("session expiry shorter than the standard TTL")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	input := store.RegisterInput{Email: "a@x.com", Password: "Str0ng!Pass", Role: models.RoleCustomer, FullName: "A B"}
	if _, err := s.Register(ctx, input); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.Register(ctx, input); !errors.Is(err, store.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterUnknownRole(t *testing.T) {
	s := NewStore()
	_, err := s.Register(context.Background(), store.RegisterInput{
		Email: "a@x.com", Password: "Str0ng!Pass", Role: "janitor", FullName: "A B",
	})
	if !errors.Is(err, store.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestSignInRemember(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	mustRegister(t, s, "a@x.com", models.RoleCustomer)

	result, err := s.SignIn(ctx, store.SignInInput{Email: "a@x.com", Password: "Str0ng!Pass", RememberMe: true})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !result.Session.ExpiresAt.After(time.Now().Add(store.RememberTTL - time.Hour)) {
		t.Error("remember-me session expiry shorter than the extended TTL")
	}
}

func TestTemporaryCredentialRedemption(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	admin := mustRegister(t, s, "admin@x.com", models.RoleAdmin)

	if _, err := s.IssueTemporaryCredential(ctx, admin.ProfileID, "one-time-secret", store.TemporaryTTL); err != nil {
		t.Fatalf("issue credential: %v", err)
	}

	result, err := s.SignIn(ctx, store.SignInInput{Email: "admin@x.com", Password: "one-time-secret"})
	if err != nil {
		t.Fatalf("fallback sign in: %v", err)
	}
	if !result.Temporary || !result.Session.Temporary {
		t.Error("expected a temporary sign-in")
	}
	if result.Session.ExpiresAt.After(time.Now().Add(store.TemporaryTTL + time.Minute)) {
		t.Error("temporary session must be bounded to 24 hours")
	}

	// Single use: a second redemption fails.
	if _, err := s.SignIn(ctx, store.SignInInput{Email: "admin@x.com", Password: "one-time-secret"}); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("expected second redemption to fail, got %v", err)
	}
}

func TestTemporaryCredentialExpired(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	admin := mustRegister(t, s, "admin@x.com", models.RoleAdmin)

	if _, err := s.IssueTemporaryCredential(ctx, admin.ProfileID, "stale-secret", -time.Minute); err != nil {
		t.Fatalf("issue credential: %v", err)
	}
	if _, err := s.SignIn(ctx, store.SignInInput{Email: "admin@x.com", Password: "stale-secret"}); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("expected expired credential to be rejected, got %v", err)
	}
}

func TestTemporaryCredentialRevoked(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	admin := mustRegister(t, s, "admin@x.com", models.RoleAdmin)

	cred, err := s.IssueTemporaryCredential(ctx, admin.ProfileID, "revoked-secret", store.TemporaryTTL)
	if err != nil {
		t.Fatalf("issue credential: %v", err)
	}
	if err := s.RevokeTemporaryCredential(cred.CredentialID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := s.SignIn(ctx, store.SignInInput{Email: "admin@x.com", Password: "revoked-secret"}); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("expected revoked credential to be rejected, got %v", err)
	}
}

func TestTemporaryCredentialWrongEmailOrRole(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	admin := mustRegister(t, s, "admin@x.com", models.RoleAdmin)
	customer := mustRegister(t, s, "customer@x.com", models.RoleCustomer)

	if _, err := s.IssueTemporaryCredential(ctx, admin.ProfileID, "admin-secret", store.TemporaryTTL); err != nil {
		t.Fatalf("issue credential: %v", err)
	}
	if _, err := s.IssueTemporaryCredential(ctx, customer.ProfileID, "customer-secret", store.TemporaryTTL); err != nil {
		t.Fatalf("issue credential: %v", err)
	}

	// Right password, wrong email.
	if _, err := s.SignIn(ctx, store.SignInInput{Email: "customer@x.com", Password: "admin-secret"}); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("expected email mismatch rejection, got %v", err)
	}
	// Non-admin profiles never redeem through the fallback.
	if _, err := s.SignIn(ctx, store.SignInInput{Email: "customer@x.com", Password: "customer-secret"}); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("expected non-admin rejection, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	profile := mustRegister(t, s, "a@x.com", models.RoleCustomer)

	session, err := s.CreateSession(ctx, profile.ProfileID, store.SessionTTL)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	got, gotProfile, err := s.GetSession(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.ProfileID != profile.ProfileID || gotProfile.Email != "a@x.com" {
		t.Error("session resolution returned the wrong profile")
	}

	if err := s.DeleteSession(ctx, session.SessionID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, _, err := s.GetSession(ctx, session.SessionID); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := s.DeleteSession(ctx, session.SessionID); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on double delete, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	profile := mustRegister(t, s, "a@x.com", models.RoleCustomer)

	if err := s.UpdatePassword(ctx, profile.ProfileID, "N3w!Passphrase"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if _, err := s.SignIn(ctx, store.SignInInput{Email: "a@x.com", Password: "Str0ng!Pass"}); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
	if _, err := s.SignIn(ctx, store.SignInInput{Email: "a@x.com", Password: "N3w!Passphrase"}); err != nil {
		t.Fatalf("expected new password to work, got %v", err)
	}
}

func mustRegister(t *testing.T, s *Store, email, role string) models.Profile {
	t.Helper()
	profile, err := s.Register(context.Background(), store.RegisterInput{
		Email:    email,
		Password: "Str0ng!Pass",
		Role:     role,
		FullName: "Test Person",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return profile
}
