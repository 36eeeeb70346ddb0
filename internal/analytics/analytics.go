// Package analytics ships identify/track events to the configured sink.
// Delivery is fire and forget: a failed send is logged and dropped.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	EventLogin         = "Login"
	EventLoginFailed   = "Login Failed"
	EventRegistration  = "Registration"
	EventRegFailed     = "Registration Failed"
	EventLogout        = "Logout"
	EventResetRequest  = "Password Reset Requested"
	EventPasswordReset = "Password Updated"
)

type Sink interface {
	Identify(ctx context.Context, profileID string)
	Track(ctx context.Context, event string, properties map[string]string)
}

// New selects a sink by kind: "log" (default), "noop", "webhook", or a
// bare http(s) URL.
func New(kind, webhookURL, webhookToken string) Sink {
	switch kind {
	case "", "log":
		return logSink{}
	case "noop":
		return noopSink{}
	case "webhook":
		if webhookURL == "" {
			return logSink{}
		}
		return &webhookSink{url: webhookURL, token: webhookToken}
	default:
		if strings.HasPrefix(kind, "http://") || strings.HasPrefix(kind, "https://") {
			return &webhookSink{url: kind, token: webhookToken}
		}
		return logSink{}
	}
}

type logSink struct{}

func (logSink) Identify(ctx context.Context, profileID string) {
	log.Printf("analytics identify profile=%s", profileID)
}

func (logSink) Track(ctx context.Context, event string, properties map[string]string) {
	log.Printf("analytics track event=%q properties=%v", event, properties)
}

type noopSink struct{}

func (noopSink) Identify(ctx context.Context, profileID string)                        {}
func (noopSink) Track(ctx context.Context, event string, properties map[string]string) {}

type webhookSink struct {
	url   string
	token string
}

func (s *webhookSink) Identify(ctx context.Context, profileID string) {
	s.post(ctx, map[string]interface{}{"type": "identify", "profile_id": profileID})
}

func (s *webhookSink) Track(ctx context.Context, event string, properties map[string]string) {
	s.post(ctx, map[string]interface{}{"type": "track", "event": event, "properties": properties})
}

func (s *webhookSink) post(ctx context.Context, payload map[string]interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("analytics marshal error: %v", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("analytics request error: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("analytics send error: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("analytics sink rejected event: status=%d", resp.StatusCode)
	}
}
