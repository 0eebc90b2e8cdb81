package notifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mode decides which responses count as a failed delivery.
type Mode int

const (
	// ModeStrict treats any non-2xx response as a failure.
	ModeStrict Mode = iota
	// ModeOpaque ignores the response status; only transport errors fail. Used
	// for endpoints that answer cross-origin requests with unreadable responses.
	ModeOpaque
)

const DefaultWebhookTimeout = 10 * time.Second

// StatusError is returned by a strict webhook for a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
}

// Webhook POSTs the payload as JSON without authentication.
type Webhook struct {
	name   string
	url    string
	mode   Mode
	client *http.Client
}

type WebhookOption func(w *Webhook)

func WithMode(mode Mode) WebhookOption {
	return func(w *Webhook) {
		w.mode = mode
	}
}

func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) {
		w.client = c
	}
}

func WithTimeout(d time.Duration) WebhookOption {
	return func(w *Webhook) {
		if d > 0 {
			w.client = &http.Client{Timeout: d}
		}
	}
}

// NewWebhook defaults to ModeStrict and DefaultWebhookTimeout.
func NewWebhook(name, url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		name:   name,
		url:    url,
		mode:   ModeStrict,
		client: &http.Client{Timeout: DefaultWebhookTimeout},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Webhook) Name() string {
	return w.name
}

func (w *Webhook) Deliver(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if w.mode == ModeStrict && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
