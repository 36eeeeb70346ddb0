// Package memory implements store.Store entirely in process. It backs the
// operator console when no database is configured and the unit tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"tidyhome/auth-service/internal/models"
	"tidyhome/auth-service/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	profile      models.Profile
	passwordHash string
	active       bool
}

type credential struct {
	models.TemporaryCredential
	hash string
}

type Store struct {
	mu          sync.Mutex
	accounts    map[string]*account // keyed by profile id
	sessions    map[string]models.Session
	credentials map[string]*credential
}

func NewStore() *Store {
	return &Store{
		accounts:    make(map[string]*account),
		sessions:    make(map[string]models.Session),
		credentials: make(map[string]*credential),
	}
}

func (s *Store) Register(ctx context.Context, input store.RegisterInput) (models.Profile, error) {
	if !models.KnownRole(input.Role) {
		return models.Profile{}, store.ErrUnknownRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.MinCost)
	if err != nil {
		return models.Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	for _, existing := range s.accounts {
		if existing.profile.Email == email {
			return models.Profile{}, store.ErrEmailTaken
		}
	}

	profile := models.Profile{
		ProfileID: uuid.NewString(),
		Email:     email,
		Role:      input.Role,
		FullName:  input.FullName,
		Created:   time.Now().UTC(),
	}
	s.accounts[profile.ProfileID] = &account{profile: profile, passwordHash: string(hash), active: true}
	return profile, nil
}

func (s *Store) SignIn(ctx context.Context, input store.SignInInput) (store.SignInResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	acct := s.findByEmail(email)

	if acct != nil && bcrypt.CompareHashAndPassword([]byte(acct.passwordHash), []byte(input.Password)) == nil {
		ttl := store.SessionTTL
		if input.RememberMe {
			ttl = store.RememberTTL
		}
		session := s.insertSession(acct.profile.ProfileID, ttl, false)
		return store.SignInResult{Profile: acct.profile, Session: session}, nil
	}

	return s.redeemTemporary(email, input.Password)
}

func (s *Store) redeemTemporary(email, password string) (store.SignInResult, error) {
	now := time.Now().UTC()
	for _, cred := range s.credentials {
		if cred.Used || !cred.ExpiresAt.After(now) {
			continue
		}
		acct, ok := s.accounts[cred.ProfileID]
		if !ok || !acct.active {
			continue
		}
		if acct.profile.Email != email || acct.profile.Role != models.RoleAdmin {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(cred.hash), []byte(password)) != nil {
			continue
		}
		cred.Used = true
		session := s.insertSession(acct.profile.ProfileID, store.TemporaryTTL, true)
		return store.SignInResult{Profile: acct.profile, Session: session, Temporary: true}, nil
	}
	return store.SignInResult{}, store.ErrInvalidCredentials
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (models.Session, models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || !session.ExpiresAt.After(time.Now().UTC()) {
		return models.Session{}, models.Profile{}, store.ErrSessionNotFound
	}
	acct, ok := s.accounts[session.ProfileID]
	if !ok {
		return models.Session{}, models.Profile{}, store.ErrProfileNotFound
	}
	return session, acct.profile, nil
}

func (s *Store) CreateSession(ctx context.Context, profileID string, ttl time.Duration) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[profileID]; !ok {
		return models.Session{}, store.ErrProfileNotFound
	}
	return s.insertSession(profileID, ttl, false), nil
}

func (s *Store) insertSession(profileID string, ttl time.Duration, temporary bool) models.Session {
	session := models.Session{
		SessionID: uuid.NewString(),
		ProfileID: profileID,
		Temporary: temporary,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	s.sessions[session.SessionID] = session
	return session
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return store.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *Store) GetProfile(ctx context.Context, profileID string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[profileID]
	if !ok {
		return models.Profile{}, store.ErrProfileNotFound
	}
	return acct.profile, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.findByEmail(strings.ToLower(strings.TrimSpace(email)))
	if acct == nil {
		return models.Profile{}, store.ErrProfileNotFound
	}
	return acct.profile, nil
}

func (s *Store) UpdatePassword(ctx context.Context, profileID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[profileID]
	if !ok || !acct.active {
		return store.ErrProfileNotFound
	}
	acct.passwordHash = string(hash)
	return nil
}

func (s *Store) IssueTemporaryCredential(ctx context.Context, profileID, tempPassword string, ttl time.Duration) (models.TemporaryCredential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.MinCost)
	if err != nil {
		return models.TemporaryCredential{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[profileID]; !ok {
		return models.TemporaryCredential{}, store.ErrProfileNotFound
	}
	cred := &credential{
		TemporaryCredential: models.TemporaryCredential{
			CredentialID: uuid.NewString(),
			ProfileID:    profileID,
			ExpiresAt:    time.Now().UTC().Add(ttl),
		},
		hash: string(hash),
	}
	s.credentials[cred.CredentialID] = cred
	return cred.TemporaryCredential, nil
}

// RevokeTemporaryCredential marks a credential used without redeeming it.
func (s *Store) RevokeTemporaryCredential(credentialID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[credentialID]
	if !ok {
		return store.ErrProfileNotFound
	}
	cred.Used = true
	return nil
}

func (s *Store) findByEmail(email string) *account {
	for _, acct := range s.accounts {
		if acct.profile.Email == email && acct.active {
			return acct
		}
	}
	return nil
}
