package postgres

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"tidyhome/auth-service/internal/models"
	"tidyhome/auth-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Register(ctx context.Context, input store.RegisterInput) (models.Profile, error) {
	if !models.KnownRole(input.Role) {
		return models.Profile{}, store.ErrUnknownRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Profile{}, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Profile{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	accountID := uuid.NewString()
	email := strings.ToLower(strings.TrimSpace(input.Email))

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (account_id, email, password_hash, active)
		VALUES ($1, $2, $3, TRUE)
	`, accountID, email, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			err = store.ErrEmailTaken
		}
		return models.Profile{}, err
	}

	var profile models.Profile
	row := tx.QueryRow(ctx, `
		INSERT INTO profiles (profile_id, email, role, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING profile_id, email, role, full_name, COALESCE(avatar_url, ''), created_at
	`, accountID, email, input.Role, input.FullName)
	if err = row.Scan(&profile.ProfileID, &profile.Email, &profile.Role, &profile.FullName, &profile.AvatarURL, &profile.Created); err != nil {
		return models.Profile{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

func (s *Store) SignIn(ctx context.Context, input store.SignInInput) (store.SignInResult, error) {
	var profile models.Profile
	var passwordHash string
	row := s.pool.QueryRow(ctx, `
		SELECT p.profile_id, p.email, p.role, p.full_name, COALESCE(p.avatar_url, ''), p.created_at, a.password_hash
		FROM accounts a
		JOIN profiles p ON p.profile_id = a.account_id
		WHERE lower(a.email) = lower($1) AND a.active = TRUE
	`, input.Email)
	err := row.Scan(&profile.ProfileID, &profile.Email, &profile.Role, &profile.FullName, &profile.AvatarURL, &profile.Created, &passwordHash)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return store.SignInResult{}, err
	}

	if err == nil && bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(input.Password)) == nil {
		ttl := store.SessionTTL
		if input.RememberMe {
			ttl = store.RememberTTL
		}
		session, err := s.CreateSession(ctx, profile.ProfileID, ttl)
		if err != nil {
			return store.SignInResult{}, err
		}
		return store.SignInResult{Profile: profile, Session: session}, nil
	}

	return s.redeemTemporary(ctx, input.Email, input.Password)
}

// redeemTemporary is the fallback path used when password authentication
// fails: an unused, unexpired temporary credential issued for an admin
// profile with the matching email. The claim is a conditional UPDATE so two
// concurrent redemptions of the same credential cannot both succeed.
func (s *Store) redeemTemporary(ctx context.Context, email, password string) (store.SignInResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.credential_id, c.temp_password_hash,
		       p.profile_id, p.email, p.role, p.full_name, COALESCE(p.avatar_url, ''), p.created_at
		FROM temporary_credentials c
		JOIN profiles p ON p.profile_id = c.profile_id
		WHERE lower(p.email) = lower($1)
		  AND p.role = 'admin'
		  AND c.used = FALSE
		  AND c.expires_at > NOW()
	`, email)
	if err != nil {
		return store.SignInResult{}, err
	}
	defer rows.Close()

	var credentialID string
	var profile models.Profile
	found := false
	for rows.Next() {
		var id, hash string
		var candidate models.Profile
		if err := rows.Scan(&id, &hash, &candidate.ProfileID, &candidate.Email, &candidate.Role, &candidate.FullName, &candidate.AvatarURL, &candidate.Created); err != nil {
			return store.SignInResult{}, err
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil {
			credentialID = id
			profile = candidate
			found = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		return store.SignInResult{}, err
	}
	if !found {
		return store.SignInResult{}, store.ErrInvalidCredentials
	}
	rows.Close()

	tag, err := s.pool.Exec(ctx, `
		UPDATE temporary_credentials
		SET used = TRUE
		WHERE credential_id = $1 AND used = FALSE AND expires_at > NOW()
	`, credentialID)
	if err != nil {
		// The credential matched; losing the mark-used write is degraded
		// but not fatal. The surrounding expiry still bounds reuse.
		log.Printf("temporary credential mark-used failed: credential=%s err=%v", credentialID, err)
	} else if tag.RowsAffected() == 0 {
		// Claimed by a concurrent redemption.
		return store.SignInResult{}, store.ErrInvalidCredentials
	}

	session, err := s.CreateSession(ctx, profile.ProfileID, store.TemporaryTTL)
	if err != nil {
		return store.SignInResult{}, err
	}
	session.Temporary = true
	return store.SignInResult{Profile: profile, Session: session, Temporary: true}, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (models.Session, models.Profile, error) {
	var session models.Session
	var profile models.Profile
	row := s.pool.QueryRow(ctx, `
		SELECT s.session_id, s.profile_id, s.temporary, s.expires_at,
		       p.profile_id, p.email, p.role, p.full_name, COALESCE(p.avatar_url, ''), p.created_at
		FROM sessions s
		JOIN profiles p ON p.profile_id = s.profile_id
		WHERE s.session_id = $1 AND s.expires_at > NOW()
	`, sessionID)
	if err := row.Scan(&session.SessionID, &session.ProfileID, &session.Temporary, &session.ExpiresAt,
		&profile.ProfileID, &profile.Email, &profile.Role, &profile.FullName, &profile.AvatarURL, &profile.Created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, models.Profile{}, store.ErrSessionNotFound
		}
		return models.Session{}, models.Profile{}, err
	}
	return session, profile, nil
}

func (s *Store) CreateSession(ctx context.Context, profileID string, ttl time.Duration) (models.Session, error) {
	session := models.Session{
		SessionID: uuid.NewString(),
		ProfileID: profileID,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (session_id, profile_id, temporary, expires_at)
		VALUES ($1, $2, $3, $4)
	`, session.SessionID, session.ProfileID, session.Temporary, session.ExpiresAt)
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, profileID string) (models.Profile, error) {
	return s.profileQuery(ctx, `WHERE profile_id = $1`, profileID)
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	return s.profileQuery(ctx, `WHERE lower(email) = lower($1)`, email)
}

func (s *Store) profileQuery(ctx context.Context, where string, arg string) (models.Profile, error) {
	var profile models.Profile
	row := s.pool.QueryRow(ctx, `
		SELECT profile_id, email, role, full_name, COALESCE(avatar_url, ''), created_at
		FROM profiles
	`+where, arg)
	if err := row.Scan(&profile.ProfileID, &profile.Email, &profile.Role, &profile.FullName, &profile.AvatarURL, &profile.Created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, store.ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}

func (s *Store) UpdatePassword(ctx context.Context, profileID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $2 WHERE account_id = $1 AND active = TRUE
	`, profileID, string(hash))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrProfileNotFound
	}
	return nil
}

func (s *Store) IssueTemporaryCredential(ctx context.Context, profileID, tempPassword string, ttl time.Duration) (models.TemporaryCredential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.TemporaryCredential{}, err
	}
	credential := models.TemporaryCredential{
		CredentialID: uuid.NewString(),
		ProfileID:    profileID,
		ExpiresAt:    time.Now().UTC().Add(ttl),
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO temporary_credentials (credential_id, profile_id, temp_password_hash, used, expires_at)
		VALUES ($1, $2, $3, FALSE, $4)
	`, credential.CredentialID, credential.ProfileID, string(hash), credential.ExpiresAt)
	if err != nil {
		return models.TemporaryCredential{}, err
	}
	return credential, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
