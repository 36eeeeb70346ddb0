package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"log"
	"net/http"
	"strings"
	"time"

	"tidyhome/auth-service/internal/analytics"
	"tidyhome/auth-service/internal/hub"
	"tidyhome/auth-service/internal/mailer"
	"tidyhome/auth-service/internal/models"
	"tidyhome/auth-service/internal/password"
	"tidyhome/auth-service/internal/routes"
	"tidyhome/auth-service/internal/store"
)

// ResetInitiator starts the password-reset flow; false means it did not.
type ResetInitiator interface {
	Initiate(ctx context.Context, email string) bool
}

type Handler struct {
	store     store.Store
	analytics analytics.Sink
	mailer    mailer.Sender
	hub       *hub.Hub
	reset     ResetInitiator
	baseURL   string
}

func NewHandler(st store.Store, sink analytics.Sink, sender mailer.Sender, h *hub.Hub, reset ResetInitiator, baseURL string) *Handler {
	return &Handler{store: st, analytics: sink, mailer: sender, hub: h, reset: reset, baseURL: baseURL}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/auth/register", h.handleRegister)
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/logout", h.handleLogout)
	mux.HandleFunc("/api/auth/me", h.handleMe)
	mux.HandleFunc("/api/auth/password/reset", h.handlePasswordReset)
	mux.HandleFunc("/api/auth/password/update", h.handlePasswordUpdate)
	return mux
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type sessionResponse struct {
	SessionID string      `json:"session_id"`
	ExpiresAt string      `json:"expires_at"`
	Temporary bool        `json:"temporary,omitempty"`
	Redirect  string      `json:"redirect"`
	Profile   profileInfo `json:"profile"`
}

type profileInfo struct {
	ProfileID string `json:"profile_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Feedback *password.Feedback `json:"feedback,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload", nil)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.TrimSpace(req.Role)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.Role == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email, password, role, and full_name are required", nil)
		return
	}
	if !models.KnownRole(req.Role) {
		writeError(w, http.StatusBadRequest, "invalid_request", "role must be admin, provider, or customer", nil)
		return
	}

	if check := password.Validate(req.Password); !check.IsValid {
		writeError(w, http.StatusBadRequest, "weak_password", check.Feedback.Warning, &check.Feedback)
		return
	}

	profile, err := h.store.Register(r.Context(), store.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		FullName: req.FullName,
	})
	if err != nil {
		h.analytics.Track(r.Context(), analytics.EventRegFailed, map[string]string{"email": req.Email})
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email_taken", "email already registered", nil)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		}
		return
	}

	session, err := h.store.CreateSession(r.Context(), profile.ProfileID, store.SessionTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		return
	}

	welcome := mailer.Message{
		To:       profile.Email,
		Template: mailer.WelcomeTemplate(profile.Role),
		Metadata: map[string]string{
			"full_name":      profile.FullName,
			"activation_url": h.baseURL + "/activate?profile=" + profile.ProfileID,
		},
	}
	if err := h.mailer.Send(r.Context(), welcome); err != nil {
		log.Printf("welcome mail failed: profile=%s err=%v", profile.ProfileID, err)
	}

	h.analytics.Identify(r.Context(), profile.ProfileID)
	h.analytics.Track(r.Context(), analytics.EventRegistration, map[string]string{"role": profile.Role})
	h.broadcast(hub.EventSignedIn, &session)

	h.writeSession(w, http.StatusCreated, session, profile)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload", nil)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required", nil)
		return
	}

	result, err := h.store.SignIn(r.Context(), store.SignInInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			h.analytics.Track(r.Context(), analytics.EventLoginFailed, map[string]string{"email": req.Email})
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		return
	}

	h.analytics.Identify(r.Context(), result.Profile.ProfileID)
	h.analytics.Track(r.Context(), analytics.EventLogin, map[string]string{
		"role":      result.Profile.Role,
		"temporary": boolString(result.Temporary),
	})
	h.broadcast(hub.EventSignedIn, &result.Session)

	h.writeSession(w, http.StatusOK, result.Session, result.Profile)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session token", nil)
		return
	}

	session, _, err := h.store.GetSession(r.Context(), sessionID)
	if err == nil {
		if err := h.store.DeleteSession(r.Context(), session.SessionID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
			log.Printf("session invalidation failed: %v", err)
		}
		h.analytics.Track(r.Context(), analytics.EventLogout, nil)
		h.broadcast(hub.EventSignedOut, &session)
	} else if !errors.Is(err, store.ErrSessionNotFound) {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"redirect": routes.Login})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	session, profile, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	h.writeSession(w, http.StatusOK, session, profile)
}

func (h *Handler) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload", nil)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required", nil)
		return
	}

	if !h.reset.Initiate(r.Context(), req.Email) {
		writeError(w, http.StatusBadRequest, "reset_failed", "unable to start password reset", nil)
		return
	}
	h.analytics.Track(r.Context(), analytics.EventResetRequest, map[string]string{"email": req.Email})
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handlePasswordUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	session, _, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		NewPassword string `json:"new_password"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload", nil)
		return
	}

	if check := password.Validate(req.NewPassword); !check.IsValid {
		writeError(w, http.StatusBadRequest, "weak_password", check.Feedback.Warning, &check.Feedback)
		return
	}

	if err := h.store.UpdatePassword(r.Context(), session.ProfileID, req.NewPassword); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		return
	}
	h.analytics.Track(r.Context(), analytics.EventPasswordReset, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (models.Session, models.Profile, bool) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session token", nil)
		return models.Session{}, models.Profile{}, false
	}
	session, profile, err := h.store.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid session", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		}
		return models.Session{}, models.Profile{}, false
	}
	return session, profile, true
}

func (h *Handler) writeSession(w http.ResponseWriter, status int, session models.Session, profile models.Profile) {
	redirect, err := routes.ForRole(profile.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "unknown_role", "profile role has no landing route", nil)
		return
	}
	writeJSON(w, status, sessionResponse{
		SessionID: session.SessionID,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		Temporary: session.Temporary,
		Redirect:  redirect,
		Profile: profileInfo{
			ProfileID: profile.ProfileID,
			Email:     profile.Email,
			Role:      profile.Role,
			FullName:  profile.FullName,
			AvatarURL: profile.AvatarURL,
		},
	})
}

func (h *Handler) broadcast(eventType string, session *models.Session) {
	if h.hub == nil {
		return
	}
	event := hub.Event{Type: eventType, At: time.Now().UTC()}
	if session != nil {
		event.ProfileID = session.ProfileID
		if eventType == hub.EventSignedIn {
			event.Session = session
		}
	}
	h.hub.Broadcast(event)
}

func writeError(w http.ResponseWriter, status int, code, message string, feedback *password.Feedback) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message, Feedback: feedback}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func boolString(value bool) string {
	if value {
		return "true"
	}
	return "false"
}
