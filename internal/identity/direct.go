package identity

import (
	"context"
	"sync"
	"time"

	"tidyhome/auth-service/internal/hub"
	"tidyhome/auth-service/internal/models"
	"tidyhome/auth-service/internal/store"

	"github.com/google/uuid"
)

// Direct binds the Service contract straight onto a store.Store and
// publishes every session transition to the hub.
type Direct struct {
	store store.Store
	hub   *hub.Hub

	mu      sync.Mutex
	current *models.Session

	subMu sync.Mutex
	subs  map[string]func(*models.Session)
}

func NewDirect(st store.Store, h *hub.Hub) *Direct {
	return &Direct{
		store: st,
		hub:   h,
		subs:  make(map[string]func(*models.Session)),
	}
}

func (d *Direct) CurrentSession(ctx context.Context) (*models.Session, error) {
	d.mu.Lock()
	session := d.current
	d.mu.Unlock()
	if session == nil {
		return nil, nil
	}

	// Re-validate against the store so an expired or revoked session does
	// not resume.
	stored, _, err := d.store.GetSession(ctx, session.SessionID)
	if err != nil {
		if err == store.ErrSessionNotFound {
			d.setCurrent(nil, session.ProfileID)
			return nil, nil
		}
		return nil, err
	}
	return &stored, nil
}

func (d *Direct) OnSessionChange(fn func(*models.Session)) func() {
	id := uuid.NewString()
	d.subMu.Lock()
	d.subs[id] = fn
	d.subMu.Unlock()
	return func() {
		d.subMu.Lock()
		delete(d.subs, id)
		d.subMu.Unlock()
	}
}

func (d *Direct) SignInWithPassword(ctx context.Context, email, password string, opts SignInOptions) (store.SignInResult, error) {
	result, err := d.store.SignIn(ctx, store.SignInInput{
		Email:      email,
		Password:   password,
		RememberMe: opts.RememberMe,
	})
	if err != nil {
		return store.SignInResult{}, err
	}
	session := result.Session
	d.setCurrent(&session, session.ProfileID)
	return result, nil
}

func (d *Direct) SignUp(ctx context.Context, email, password string, meta Metadata) (store.SignInResult, error) {
	profile, err := d.store.Register(ctx, store.RegisterInput{
		Email:    email,
		Password: password,
		Role:     meta.Role,
		FullName: meta.FullName,
	})
	if err != nil {
		return store.SignInResult{}, err
	}
	session, err := d.store.CreateSession(ctx, profile.ProfileID, store.SessionTTL)
	if err != nil {
		return store.SignInResult{}, err
	}
	d.setCurrent(&session, session.ProfileID)
	return store.SignInResult{Profile: profile, Session: session}, nil
}

func (d *Direct) SignOut(ctx context.Context) error {
	d.mu.Lock()
	session := d.current
	d.mu.Unlock()
	if session == nil {
		return nil
	}

	err := d.store.DeleteSession(ctx, session.SessionID)
	d.setCurrent(nil, session.ProfileID)
	if err != nil && err != store.ErrSessionNotFound {
		return err
	}
	return nil
}

func (d *Direct) UpdateUser(ctx context.Context, newPassword string) error {
	d.mu.Lock()
	session := d.current
	d.mu.Unlock()
	if session == nil {
		return store.ErrSessionNotFound
	}
	return d.store.UpdatePassword(ctx, session.ProfileID, newPassword)
}

func (d *Direct) setCurrent(session *models.Session, profileID string) {
	d.mu.Lock()
	d.current = session
	d.mu.Unlock()

	d.subMu.Lock()
	callbacks := make([]func(*models.Session), 0, len(d.subs))
	for _, fn := range d.subs {
		callbacks = append(callbacks, fn)
	}
	d.subMu.Unlock()
	for _, fn := range callbacks {
		fn(session)
	}

	if d.hub != nil {
		event := hub.Event{Type: hub.EventSignedOut, ProfileID: profileID, At: time.Now().UTC()}
		if session != nil {
			event.Type = hub.EventSignedIn
			event.Session = session
			event.ProfileID = session.ProfileID
		}
		d.hub.Broadcast(event)
	}
}
