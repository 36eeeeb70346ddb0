// Package mailer renders and dispatches transactional email.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

type Message struct {
	To       string
	Template string
	Metadata map[string]string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New selects a provider by kind: "log" (default), "noop", "webhook", or a
// bare http(s) URL.
func New(kind, webhookURL, webhookToken string) Sender {
	switch kind {
	case "", "log":
		return logSender{}
	case "noop":
		return noopSender{}
	case "webhook":
		if webhookURL == "" {
			return logSender{}
		}
		return &webhookSender{url: webhookURL, token: webhookToken}
	default:
		if strings.HasPrefix(kind, "http://") || strings.HasPrefix(kind, "https://") {
			return &webhookSender{url: kind, token: webhookToken}
		}
		return logSender{}
	}
}

type logSender struct{}

func (logSender) Send(ctx context.Context, msg Message) error {
	subject, body, err := Render(msg.Template, msg.Metadata)
	if err != nil {
		return err
	}
	log.Printf("send email to=%s template=%s subject=%q body=%q", msg.To, msg.Template, subject, body)
	return nil
}

type noopSender struct{}

func (noopSender) Send(ctx context.Context, msg Message) error { return nil }

type webhookSender struct {
	url   string
	token string
}

func (s *webhookSender) Send(ctx context.Context, msg Message) error {
	subject, body, err := Render(msg.Template, msg.Metadata)
	if err != nil {
		return err
	}
	payload := map[string]string{
		"to":      msg.To,
		"subject": subject,
		"body":    body,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("email provider rejected request: status=%d", resp.StatusCode)
	}
	return nil
}

var ErrUnknownTemplate = errors.New("unknown email template")
