// Package session holds the single source of truth for "who is signed in
// right now" on a client instance. It is constructed explicitly and wired
// in; there is no package-level singleton.
package session

import (
	"context"
	"sync"

	"tidyhome/auth-service/internal/identity"
	"tidyhome/auth-service/internal/models"
	"tidyhome/auth-service/internal/store"
)

// ErrProfileUnavailable is the fixed user-visible message when a session
// exists but its profile row cannot be resolved.
const ErrProfileUnavailable = "unable to load your profile"

type State struct {
	User    *models.Profile
	Loading bool
	Err     string
}

// Profiles resolves a profile row by id on session resume.
type Profiles interface {
	GetProfile(ctx context.Context, profileID string) (models.Profile, error)
}

// Store tracks the current session state. Updates are ordered by a
// monotonic ticket: the initial probe takes its ticket before any
// subscription event can, so a slow probe result never clobbers a newer
// subscription-driven update.
type Store struct {
	identity identity.Service
	profiles Profiles

	mu          sync.Mutex
	state       State
	ticket      uint64
	applied     uint64
	unsubscribe func()
}

func New(svc identity.Service, profiles Profiles) *Store {
	return &Store{
		identity: svc,
		profiles: profiles,
		state:    State{Loading: true},
	}
}

// Init subscribes to session changes and performs the one-time probe of the
// current session. The probe ticket is taken before the subscription is
// installed, so every event observed afterwards outranks it.
func (s *Store) Init(ctx context.Context) error {
	probeTicket := s.take()

	s.mu.Lock()
	s.unsubscribe = s.identity.OnSessionChange(func(session *models.Session) {
		ticket := s.take()
		s.resolve(context.Background(), ticket, session, false)
	})
	s.mu.Unlock()

	session, err := s.identity.CurrentSession(ctx)
	if err != nil {
		s.apply(probeTicket, func(state *State) {
			state.Loading = false
			state.User = nil
			state.Err = ErrProfileUnavailable
		})
		return err
	}
	s.resolve(ctx, probeTicket, session, true)
	return nil
}

// Close removes the session-change subscription. Idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetUser records a successful authentication. Reserved for the auth
// orchestrator; a successful operation also clears any prior error.
func (s *Store) SetUser(profile models.Profile) {
	s.apply(s.take(), func(state *State) {
		state.User = &profile
		state.Loading = false
		state.Err = ""
	})
}

// SetError records a failed operation without touching the current user.
func (s *Store) SetError(message string) {
	s.apply(s.take(), func(state *State) {
		state.Err = message
		state.Loading = false
	})
}

func (s *Store) ClearUser() {
	s.apply(s.take(), func(state *State) {
		state.User = nil
		state.Loading = false
	})
}

func (s *Store) ClearError() {
	s.apply(s.take(), func(state *State) {
		state.Err = ""
	})
}

// resolve turns a session (or its absence) into state, fetching the profile
// when one is present. The probe clears the user on any resolution failure;
// a subscription-driven refresh keeps the prior user on transient errors.
func (s *Store) resolve(ctx context.Context, ticket uint64, session *models.Session, probe bool) {
	if session == nil {
		s.apply(ticket, func(state *State) {
			state.User = nil
			state.Loading = false
		})
		return
	}

	profile, err := s.profiles.GetProfile(ctx, session.ProfileID)
	if err != nil {
		if err == store.ErrProfileNotFound || probe {
			s.apply(ticket, func(state *State) {
				state.User = nil
				state.Loading = false
				state.Err = ErrProfileUnavailable
			})
			return
		}
		s.apply(ticket, func(state *State) {
			state.Err = ErrProfileUnavailable
			state.Loading = false
		})
		return
	}
	s.apply(ticket, func(state *State) {
		state.User = &profile
		state.Loading = false
		state.Err = ""
	})
}

func (s *Store) take() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticket++
	return s.ticket
}

func (s *Store) apply(ticket uint64, mutate func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket <= s.applied {
		return
	}
	s.applied = ticket
	mutate(&s.state)
}
