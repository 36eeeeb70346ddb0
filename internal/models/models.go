package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleProvider = "provider"
	RoleCustomer = "customer"
)

func KnownRole(role string) bool {
	switch role {
	case RoleAdmin, RoleProvider, RoleCustomer:
		return true
	default:
		return false
	}
}

// Profile is the application-level record for an account: role plus display
// attributes. ProfileID equals the account id of the credential record.
type Profile struct {
	ProfileID string    `json:"profile_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Created   time.Time `json:"created_at"`
}

type Session struct {
	SessionID string    `json:"session_id"`
	ProfileID string    `json:"profile_id"`
	Temporary bool      `json:"temporary,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TemporaryCredential is a time-boxed, single-use password substitute
// issued for administrative account recovery.
type TemporaryCredential struct {
	CredentialID string    `json:"credential_id"`
	ProfileID    string    `json:"profile_id"`
	Used         bool      `json:"used"`
	ExpiresAt    time.Time `json:"expires_at"`
}
