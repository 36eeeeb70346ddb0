package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"tidyhome/auth-service/internal/hub"
	"tidyhome/auth-service/internal/store"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
)

// StreamHandler exposes the session-change event stream over sockjs.
// Clients authenticate with their own session token and only receive
// events for that session's profile.
func StreamHandler(prefix string, st store.Store, h *hub.Hub) http.Handler {
	return sockjs.NewHandler(prefix, sockjs.DefaultOptions, func(conn sockjs.Session) {
		req := conn.Request()
		sessionID := streamToken(req)
		if sessionID == "" {
			_ = conn.Close(4001, "missing session")
			return
		}
		session, _, err := st.GetSession(context.Background(), sessionID)
		if err != nil {
			_ = conn.Close(4002, "invalid session")
			return
		}

		client := &hub.Client{
			ID:        uuid.NewString(),
			Send:      make(chan hub.Event, 16),
			ProfileID: session.ProfileID,
		}
		h.Register(client)
		defer h.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for event := range client.Send {
				payload, err := json.Marshal(event)
				if err != nil {
					continue
				}
				if err := conn.Send(string(payload)); err != nil {
					return
				}
			}
		}()

		for {
			if _, err := conn.Recv(); err != nil {
				return
			}
		}
	})
}

func streamToken(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("session")); token != "" {
		return token
	}
	return sessionIDFromRequest(r)
}
