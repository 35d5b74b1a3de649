// Package chat posts booking alerts to a group-chat webhook (WhatsApp-style
// gateways that accept form-encoded token/to/body).
package chat

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Sender interface {
	Send(ctx context.Context, body string) error
	ProviderID() string
}

type WebhookSender struct {
	url   string
	token string
	to    string
	http  *http.Client
}

func NewWebhookSender(webhookURL, token, to string) *WebhookSender {
	return &WebhookSender{
		url:   strings.TrimSpace(webhookURL),
		token: strings.TrimSpace(token),
		to:    strings.TrimSpace(to),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *WebhookSender) ProviderID() string {
	return "chat-webhook"
}

func (s *WebhookSender) Send(ctx context.Context, body string) error {
	if s.url == "" {
		return errors.New("chat webhook url not configured")
	}
	form := url.Values{}
	form.Set("token", s.token)
	form.Set("to", s.to)
	form.Set("body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("chat webhook returned non-2xx")
	}
	return nil
}

type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) ProviderID() string {
	return "chat-noop"
}

func (s *NoopSender) Send(_ context.Context, _ string) error {
	return nil
}
