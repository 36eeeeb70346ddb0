// Package auth drives sign-in, sign-up, sign-out, and password changes
// against the identity service, and is the only component that moves the
// session store between its states.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tidyhome/auth-service/internal/analytics"
	"tidyhome/auth-service/internal/identity"
	"tidyhome/auth-service/internal/mailer"
	"tidyhome/auth-service/internal/password"
	"tidyhome/auth-service/internal/routes"
	"tidyhome/auth-service/internal/session"
	"tidyhome/auth-service/internal/store"
)

var ErrPasswordTooWeak = errors.New("password too weak")

// Navigator moves the user interface to a route after a state transition.
type Navigator interface {
	GoTo(route string)
}

// ResetInitiator starts the password-reset flow; false means it did not.
type ResetInitiator interface {
	Initiate(ctx context.Context, email string) bool
}

type Orchestrator struct {
	identity  identity.Service
	sessions  *session.Store
	analytics analytics.Sink
	mailer    mailer.Sender
	reset     ResetInitiator
	navigator Navigator
	baseURL   string
}

func NewOrchestrator(svc identity.Service, sessions *session.Store, sink analytics.Sink, sender mailer.Sender, reset ResetInitiator, nav Navigator, baseURL string) *Orchestrator {
	return &Orchestrator{
		identity:  svc,
		sessions:  sessions,
		analytics: sink,
		mailer:    sender,
		reset:     reset,
		navigator: nav,
		baseURL:   baseURL,
	}
}

// SignIn authenticates by password. The store-level fallback may satisfy a
// failed password with an unused, unexpired admin temporary credential
// bounded to a 24-hour session.
func (o *Orchestrator) SignIn(ctx context.Context, email, pass string, rememberMe bool) error {
	result, err := o.identity.SignInWithPassword(ctx, email, pass, identity.SignInOptions{RememberMe: rememberMe})
	if err != nil {
		o.analytics.Track(ctx, analytics.EventLoginFailed, map[string]string{
			"email":  email,
			"reason": reason(err),
		})
		o.sessions.SetError(reason(err))
		return err
	}

	o.sessions.SetUser(result.Profile)
	o.analytics.Identify(ctx, result.Profile.ProfileID)
	o.analytics.Track(ctx, analytics.EventLogin, map[string]string{
		"role":      result.Profile.Role,
		"temporary": fmt.Sprintf("%t", result.Temporary),
	})
	return o.navigate(result.Profile.Role)
}

// SignUp gates on the password validator before anything touches the
// backend, creates account and profile in one transaction, then sends the
// role-specific welcome mail.
func (o *Orchestrator) SignUp(ctx context.Context, email, pass, role, fullName string) error {
	if check := password.Validate(pass); !check.IsValid {
		message := feedbackMessage(check.Feedback)
		o.sessions.SetError(message)
		return fmt.Errorf("%w: %s", ErrPasswordTooWeak, message)
	}

	result, err := o.identity.SignUp(ctx, email, pass, identity.Metadata{Role: role, FullName: fullName})
	if err != nil {
		o.analytics.Track(ctx, analytics.EventRegFailed, map[string]string{
			"email":  email,
			"reason": reason(err),
		})
		o.sessions.SetError(reason(err))
		return err
	}

	o.sessions.SetUser(result.Profile)

	welcome := mailer.Message{
		To:       result.Profile.Email,
		Template: mailer.WelcomeTemplate(result.Profile.Role),
		Metadata: map[string]string{
			"full_name":      result.Profile.FullName,
			"activation_url": o.baseURL + "/activate?profile=" + result.Profile.ProfileID,
		},
	}
	if err := o.mailer.Send(ctx, welcome); err != nil {
		log.Printf("welcome mail failed: profile=%s err=%v", result.Profile.ProfileID, err)
	}

	o.analytics.Identify(ctx, result.Profile.ProfileID)
	o.analytics.Track(ctx, analytics.EventRegistration, map[string]string{"role": result.Profile.Role})
	return o.navigate(result.Profile.Role)
}

// SignOut clears the tracked user and lands on the login route no matter
// what the backend invalidation returns.
func (o *Orchestrator) SignOut(ctx context.Context) error {
	hadUser := o.sessions.State().User != nil

	if err := o.identity.SignOut(ctx); err != nil {
		log.Printf("session invalidation failed: %v", err)
	}
	if hadUser {
		o.analytics.Track(ctx, analytics.EventLogout, nil)
	}
	o.sessions.ClearUser()
	o.navigator.GoTo(routes.Login)
	return nil
}

func (o *Orchestrator) ResetPassword(ctx context.Context, email string) error {
	if !o.reset.Initiate(ctx, email) {
		message := "unable to start password reset"
		o.sessions.SetError(message)
		return errors.New(message)
	}
	o.analytics.Track(ctx, analytics.EventResetRequest, map[string]string{"email": email})
	return nil
}

func (o *Orchestrator) UpdatePassword(ctx context.Context, newPassword string) error {
	if check := password.Validate(newPassword); !check.IsValid {
		message := feedbackMessage(check.Feedback)
		o.sessions.SetError(message)
		return fmt.Errorf("%w: %s", ErrPasswordTooWeak, message)
	}

	if err := o.identity.UpdateUser(ctx, newPassword); err != nil {
		o.sessions.SetError(reason(err))
		return err
	}
	if o.sessions.State().User != nil {
		o.analytics.Track(ctx, analytics.EventPasswordReset, nil)
	}
	return nil
}

func (o *Orchestrator) ClearError() {
	o.sessions.ClearError()
}

func (o *Orchestrator) navigate(role string) error {
	route, err := routes.ForRole(role)
	if err != nil {
		o.sessions.SetError(reason(err))
		return err
	}
	o.navigator.GoTo(route)
	return nil
}

func feedbackMessage(fb password.Feedback) string {
	if fb.Warning != "" {
		return fb.Warning
	}
	return strings.Join(fb.Suggestions, "; ")
}

func reason(err error) string {
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, store.ErrEmailTaken):
		return "email already registered"
	case errors.Is(err, routes.ErrUnknownRole), errors.Is(err, store.ErrUnknownRole):
		return "unknown role"
	default:
		return err.Error()
	}
}
